package worker

import (
	"context"
	"fmt"
	"log"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/theoremus-urban-solutions/trip-router/graphpool"
	"github.com/theoremus-urban-solutions/trip-router/network"
	"github.com/theoremus-urban-solutions/trip-router/routing"
	"github.com/theoremus-urban-solutions/trip-router/stats"
	"github.com/theoremus-urban-solutions/trip-router/traveltime"
)

// Config tunes a worker.
type Config struct {
	ID             string // assigned a uuid when empty
	Slots          int    // explicit slot count; 0 derives from cores
	SlotReserve    int    // cores left free when deriving, default 1
	BinDurationSec int    // model bin shape, used when compiling raw observations
	Bins           int
	TimeBinned     bool          // rebuild the pool on every model swap
	ReportEvery    time.Duration // throughput reporting tick, default 10s
}

// Deps are the worker's collaborators, wired by the composition root.
type Deps struct {
	Complete routing.Engine
	Embodier routing.Embodier
	Pool     *graphpool.Pool // nil disables the fast path entirely
	Model    *traveltime.Ref
	Net      *network.Network
	Counters *stats.Counters
	Sink     stats.Sink
}

// Worker executes routing requests pulled from a coordinator.
type Worker struct {
	cfg  Config
	deps Deps
	id   string

	version   atomic.Int64
	handled   atomic.Int64
	slots     chan struct{}
	rebuildMu sync.RWMutex // route reads, swap writes while the pool rebuilds
	wg        sync.WaitGroup

	mu          sync.Mutex
	coordinator Coordinator
}

// New builds a worker. The model ref must already hold a model; the pool,
// when present, is built on the first swap.
func New(cfg Config, deps Deps) *Worker {
	if cfg.ID == "" {
		cfg.ID = uuid.NewString()
	}
	if cfg.SlotReserve <= 0 {
		cfg.SlotReserve = 1
	}
	if cfg.Slots <= 0 {
		cfg.Slots = runtime.NumCPU() - cfg.SlotReserve
		if cfg.Slots < 1 {
			cfg.Slots = 1
		}
	}
	if cfg.ReportEvery <= 0 {
		cfg.ReportEvery = 10 * time.Second
	}
	if deps.Counters == nil {
		deps.Counters = &stats.Counters{}
	}
	return &Worker{
		cfg:   cfg,
		deps:  deps,
		id:    cfg.ID,
		slots: make(chan struct{}, cfg.Slots),
	}
}

// ID returns the worker id used in the pull protocol.
func (w *Worker) ID() string { return w.id }

// ModelVersion returns the version of the last swapped model.
func (w *Worker) ModelVersion() int64 { return w.version.Load() }

// Start launches the throughput reporter. It returns immediately; cancel
// the context to stop reporting.
func (w *Worker) Start(ctx context.Context) {
	go w.reportLoop(ctx)
	log.Printf("worker %s: started with %d execution slots", w.id, w.cfg.Slots)
}

// Wait blocks until all in-flight route executions finish.
func (w *Worker) Wait() { w.wg.Wait() }

func (w *Worker) reportLoop(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.ReportEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n := w.handled.Swap(0)
			log.Printf("worker %s: handled %d requests in the last %s", w.id, n, w.cfg.ReportEvery)
		}
	}
}

// Deliver processes one message. Routing requests are executed
// asynchronously on the slot pool; everything else completes before
// Deliver returns. A non-nil error means the worker is broken (a failed
// graph rebuild, a bad model) and must not be fed further work.
func (w *Worker) Deliver(ctx context.Context, msg any) error {
	switch m := msg.(type) {
	case WorkAvailable:
		w.setCoordinator(m.Coordinator)
		w.askForWork()
		return nil
	case routing.Request:
		w.deps.Counters.IncRequest(m.WithTransit)
		w.askForWork()
		w.slots <- struct{}{}
		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			w.execute(ctx, m)
			w.handled.Add(1)
			// Free the slot before asking so an ask always means capacity.
			<-w.slots
			w.askForWork()
		}()
		return nil
	case UpdateTravelTimeModel:
		return w.swap(ctx, m)
	case EmbodyRequest:
		w.embody(ctx, m)
		return nil
	default:
		return fmt.Errorf("worker %s: unknown message %T", w.id, msg)
	}
}

func (w *Worker) setCoordinator(c Coordinator) {
	w.mu.Lock()
	w.coordinator = c
	w.mu.Unlock()
}

func (w *Worker) currentCoordinator() Coordinator {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.coordinator
}

// askForWork pulls one more request. Without a registered coordinator the
// ask is dropped; the coordinator will re-offer with WorkAvailable.
func (w *Worker) askForWork() {
	c := w.currentCoordinator()
	if c == nil {
		log.Printf("worker %s: no coordinator registered yet, dropping work request", w.id)
		return
	}
	c.GimmeWork(w.id)
}

func (w *Worker) execute(ctx context.Context, req routing.Request) {
	resp, err := w.route(ctx, req)
	if err != nil {
		w.deps.Counters.IncFailure()
		log.Printf("worker %s: request %d failed: %v", w.id, req.ID, err)
		w.sendFailure(routing.NewFailure(req.ID, err))
		return
	}
	w.sendResponse(resp)
}

// route applies the dispatch and fallback policy: narrowed per-mode tries
// on the fast instance for the request's bin, then the complete engine for
// whatever remains uncovered. Transit requests and workers without a fast
// pool go straight to the complete engine with the request untouched.
func (w *Worker) route(ctx context.Context, req routing.Request) (routing.Response, error) {
	if w.deps.Pool == nil || req.WithTransit {
		w.deps.Counters.IncFallback()
		return w.deps.Complete.CalcRoute(ctx, req)
	}

	fast := routing.Response{RequestID: req.ID}
	covered := map[routing.Mode]bool{}
	// Capture the bin instance under the rebuild lock; a request landing
	// mid-swap waits here until the new set is published.
	w.rebuildMu.RLock()
	inst := w.deps.Pool.InstanceFor(w.deps.Pool.BinFor(req.DepartTime))
	w.rebuildMu.RUnlock()
	for _, mode := range req.ModesPresent() {
		if !mode.FastRoutable() {
			continue
		}
		w.deps.Counters.IncFastAttempt(string(mode))
		resp, err := inst.CalcRoute(ctx, req.Narrowed(req.VehiclesOfMode(mode)))
		if err != nil {
			// A fast engine error is not fatal: the mode simply counts as
			// uncovered and the complete engine serves it.
			log.Printf("worker %s: fast %s routing failed for request %d: %v", w.id, mode, req.ID, err)
			continue
		}
		if resp.Success() {
			w.deps.Counters.IncFastHit(string(mode))
			covered[mode] = true
			fast.Itineraries = append(fast.Itineraries, resp.Itineraries...)
		}
	}

	var uncovered []routing.Mode
	for _, m := range req.ModesPresent() {
		if !covered[m] {
			uncovered = append(uncovered, m)
		}
	}
	if len(uncovered) == 0 && len(covered) > 0 {
		return fast, nil
	}

	w.deps.Counters.IncFallback()
	fallbackReq := req
	if len(covered) > 0 {
		fallbackReq = req.NarrowedToModes(uncovered)
	}
	slow, err := w.deps.Complete.CalcRoute(ctx, fallbackReq)
	if err != nil {
		return routing.Response{}, err
	}
	return routing.MergeResponses(fast, slow), nil
}

// swap activates a new travel-time model: bump the version, publish the
// model, rebuild the per-bin graphs in time-binned mode and reset the
// diagnostic counters. A rebuild failure is returned as an error and
// leaves the worker unusable for fast routing; callers treat it as fatal.
func (w *Worker) swap(ctx context.Context, msg UpdateTravelTimeModel) error {
	model := msg.Model
	if model == nil {
		compiled, dropped, err := traveltime.Compile(msg.Observations, w.deps.Net, w.cfg.BinDurationSec, w.cfg.Bins)
		if err != nil {
			return fmt.Errorf("worker %s: compile travel times: %w", w.id, err)
		}
		if dropped > 0 {
			log.Printf("worker %s: dropped %d unusable link observations", w.id, dropped)
		}
		model = compiled
	}
	model.Version = w.version.Add(1)
	w.deps.Model.Store(model)

	if w.deps.Pool != nil && (w.cfg.TimeBinned || !w.deps.Pool.Built()) {
		started := time.Now()
		w.rebuildMu.Lock()
		err := w.deps.Pool.Rebuild(ctx, model)
		w.rebuildMu.Unlock()
		if err != nil {
			return fmt.Errorf("worker %s: %w", w.id, err)
		}
		log.Printf("worker %s: rebuilt %d graph instances in %s", w.id, w.deps.Pool.BinCount(), time.Since(started).Round(time.Millisecond))
	}

	snap := w.deps.Counters.Snapshot()
	log.Printf("worker %s: travel times v%d active, stats before reset: %s", w.id, model.Version, snap)
	if w.deps.Sink != nil {
		if err := w.deps.Sink.Flush(ctx, w.id, snap); err != nil {
			log.Printf("worker %s: stats flush failed: %v", w.id, err)
		}
	}
	return nil
}

func (w *Worker) embody(ctx context.Context, msg EmbodyRequest) {
	w.deps.Counters.IncEmbodiment()
	resp, err := w.deps.Embodier.EmbodyWithCurrentTravelTime(ctx, msg.Leg, msg.VehicleID, msg.VehicleTypeID, msg.RequestID)
	if err != nil {
		w.deps.Counters.IncFailure()
		log.Printf("worker %s: embodiment for request %d failed: %v", w.id, msg.RequestID, err)
		w.sendFailure(routing.NewFailure(msg.RequestID, err))
		return
	}
	w.sendResponse(resp)
}

func (w *Worker) sendResponse(resp routing.Response) {
	c := w.currentCoordinator()
	if c == nil {
		log.Printf("worker %s: dropping response for request %d, no coordinator", w.id, resp.RequestID)
		return
	}
	c.SendResponse(resp)
}

func (w *Worker) sendFailure(f routing.Failure) {
	c := w.currentCoordinator()
	if c == nil {
		log.Printf("worker %s: dropping failure for request %d, no coordinator", w.id, f.RequestID)
		return
	}
	c.SendFailure(f)
}
