package traveltime

import "sync/atomic"

// Ref is the shared handle to the active model. The worker stores a new
// model on every swap; engines load it per pricing call. There is exactly
// one active model at a time.
type Ref struct {
	p atomic.Pointer[Model]
}

// NewRef creates a ref holding the given model.
func NewRef(m *Model) *Ref {
	r := &Ref{}
	r.p.Store(m)
	return r
}

// Load returns the active model.
func (r *Ref) Load() *Model { return r.p.Load() }

// Store publishes a new active model.
func (r *Ref) Store(m *Model) { r.p.Store(m) }
