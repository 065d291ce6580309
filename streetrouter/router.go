package streetrouter

import (
	"context"
	"fmt"

	"github.com/theoremus-urban-solutions/trip-router/network"
	"github.com/theoremus-urban-solutions/trip-router/routing"
	"github.com/theoremus-urban-solutions/trip-router/stopfinder"
	"github.com/theoremus-urban-solutions/trip-router/traveltime"
)

// Defaults for Options left zero.
const (
	DefaultWalkSpeedMPS = 1.4
	DefaultBikeSpeedMPS = 4.2
	DefaultBusSpeedMPS  = 40.0 / 3.6
	DefaultStopLimit    = 5
	DefaultMinAccessSec = 60
	DefaultBoardWaitSec = 300
)

// Options tune the complete engine.
type Options struct {
	WalkSpeedMPS float64
	BikeSpeedMPS float64
	BusSpeedMPS  float64
	StopLimit    int // distinct stops collected per stop search
	MinAccessSec int // stops closer than this are not worth riding to
	BoardWaitSec int // assumed wait before boarding
}

func (o Options) withDefaults() Options {
	if o.WalkSpeedMPS <= 0 {
		o.WalkSpeedMPS = DefaultWalkSpeedMPS
	}
	if o.BikeSpeedMPS <= 0 {
		o.BikeSpeedMPS = DefaultBikeSpeedMPS
	}
	if o.BusSpeedMPS <= 0 {
		o.BusSpeedMPS = DefaultBusSpeedMPS
	}
	if o.StopLimit <= 0 {
		o.StopLimit = DefaultStopLimit
	}
	if o.MinAccessSec <= 0 {
		o.MinAccessSec = DefaultMinAccessSec
	}
	if o.BoardWaitSec <= 0 {
		o.BoardWaitSec = DefaultBoardWaitSec
	}
	return o
}

// Router is the complete engine. It answers every mode over the live
// travel-time model and assembles transit itineraries through stop
// discovery. Safe for concurrent use; the model source must be too.
type Router struct {
	net   *network.Network
	stops *stopfinder.Index
	model func() *traveltime.Model
	opts  Options
}

// New builds the complete engine. model is called per link pricing and
// must return the currently published travel-time model.
func New(net *network.Network, stops *stopfinder.Index, model func() *traveltime.Model, opts Options) *Router {
	return &Router{net: net, stops: stops, model: model, opts: opts.withDefaults()}
}

// CalcRoute computes one itinerary per street vehicle that has a path,
// plus a transit itinerary when the request asks for transit and a usable
// stop pair exists. No path at all is an empty response, not an error.
func (r *Router) CalcRoute(ctx context.Context, req routing.Request) (routing.Response, error) {
	origin, ok := r.net.Snap(req.Origin)
	if !ok {
		return routing.Response{}, fmt.Errorf("route %d: origin off network", req.ID)
	}
	dest, ok := r.net.Snap(req.Destination)
	if !ok {
		return routing.Response{}, fmt.Errorf("route %d: destination off network", req.ID)
	}

	resp := routing.Response{RequestID: req.ID}
	for _, v := range req.Vehicles {
		if err := ctx.Err(); err != nil {
			return routing.Response{}, fmt.Errorf("route %d: %w", req.ID, err)
		}
		it, found := r.streetItinerary(req, v, origin, dest)
		if found {
			resp.Itineraries = append(resp.Itineraries, it)
		}
	}
	if req.WithTransit && r.stops != nil {
		if it, found := r.transitItinerary(req, origin, dest); found {
			resp.Itineraries = append(resp.Itineraries, it)
		}
	}
	return resp, nil
}

func (r *Router) streetItinerary(req routing.Request, v routing.StreetVehicle, origin, dest network.SplitEdge) (routing.Itinerary, bool) {
	w, ok := r.weightFor(v.Mode, req.DepartTime)
	if !ok {
		return routing.Itinerary{}, false
	}
	path, found := shortestPath(r.net, origin, dest, w)
	if !found {
		return routing.Itinerary{}, false
	}
	leg := routing.Leg{
		Mode:        v.Mode,
		VehicleID:   v.ID,
		StartTime:   req.DepartTime,
		DurationSec: int(path.seconds),
		LinkIDs:     path.linkIDs,
		DistanceM:   path.meters,
	}
	return routing.Itinerary{
		Legs: []routing.Leg{leg},
		Cost: tripCost(path.seconds, req.ValueOfTime),
	}, true
}

// weightFor maps a mode to its link weight. Car prices links with the
// current model at the clock time the link is entered.
func (r *Router) weightFor(mode routing.Mode, departTime int) (linkWeight, bool) {
	switch mode {
	case routing.ModeCar:
		m := r.model()
		return func(l *network.Link, elapsed float64) float64 {
			if !l.AllowsMode(string(routing.ModeCar)) {
				return -1
			}
			return m.DriveTime(l.ID, departTime+int(elapsed))
		}, true
	case routing.ModeWalk:
		return speedWeight(string(routing.ModeWalk), r.opts.WalkSpeedMPS), true
	case routing.ModeBike:
		return speedWeight(string(routing.ModeBike), r.opts.BikeSpeedMPS), true
	default:
		return nil, false
	}
}

// EmbodyWithCurrentTravelTime re-prices an already chosen leg against the
// current model and attaches the vehicle that will execute it.
func (r *Router) EmbodyWithCurrentTravelTime(ctx context.Context, leg routing.Leg, vehicleID, vehicleTypeID string, requestID int64) (routing.Response, error) {
	if err := ctx.Err(); err != nil {
		return routing.Response{}, fmt.Errorf("embody %d: %w", requestID, err)
	}
	m := r.model()
	elapsed := 0.0
	meters := 0.0
	for _, linkID := range leg.LinkIDs {
		l, ok := r.net.Link(linkID)
		if !ok {
			return routing.Response{}, fmt.Errorf("embody %d: unknown link %s", requestID, linkID)
		}
		switch leg.Mode {
		case routing.ModeCar, routing.ModeBus:
			elapsed += m.DriveTime(linkID, leg.StartTime+int(elapsed))
		case routing.ModeBike:
			elapsed += l.LengthM / r.opts.BikeSpeedMPS
		default:
			elapsed += l.LengthM / r.opts.WalkSpeedMPS
		}
		meters += l.LengthM
	}
	priced := leg
	priced.VehicleID = vehicleID
	priced.DurationSec = int(elapsed)
	priced.DistanceM = meters
	return routing.Response{
		RequestID:   requestID,
		Itineraries: []routing.Itinerary{{Legs: []routing.Leg{priced}}},
	}, nil
}

func tripCost(seconds, valueOfTime float64) float64 {
	return seconds / 3600 * valueOfTime
}
