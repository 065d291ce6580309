package routing

import "context"

// Engine is a routing engine. Implementations must be safe for concurrent
// use; CalcRoute returns an error only for real faults, never for "no path
// found" (that is an empty Response).
type Engine interface {
	CalcRoute(ctx context.Context, req Request) (Response, error)
}

// Embodier re-prices an already-chosen leg against the engine's current
// travel times, attaching the concrete vehicle that will drive it.
type Embodier interface {
	EmbodyWithCurrentTravelTime(ctx context.Context, leg Leg, vehicleID, vehicleTypeID string, requestID int64) (Response, error)
}
