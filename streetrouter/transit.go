package streetrouter

import (
	"math"

	"github.com/theoremus-urban-solutions/trip-router/network"
	"github.com/theoremus-urban-solutions/trip-router/routing"
	"github.com/theoremus-urban-solutions/trip-router/stopfinder"
)

// transitItinerary assembles walk-bus-walk via the best stop pair found by
// two stop searches. When either search walks into the other trip end the
// trip is short enough that transit has nothing to offer.
func (r *Router) transitItinerary(req routing.Request, origin, dest network.SplitEdge) (routing.Itinerary, bool) {
	access := stopfinder.NearbyStops(r.net, origin, r.opts.WalkSpeedMPS,
		stopfinder.NewVisitor(r.stops, r.opts.MinAccessSec, r.opts.StopLimit, dest.FromNode, dest.ToNode))
	if access.ReachedDestination() || len(access.Found()) == 0 {
		return routing.Itinerary{}, false
	}
	egress := stopfinder.NearbyStops(r.net, dest, r.opts.WalkSpeedMPS,
		stopfinder.NewVisitor(r.stops, r.opts.MinAccessSec, r.opts.StopLimit, origin.FromNode, origin.ToNode))
	if egress.ReachedDestination() || len(egress.Found()) == 0 {
		return routing.Itinerary{}, false
	}

	bestTotal := math.Inf(1)
	var bestAccess, bestEgress string
	var bestParts [3]float64 // access, bus, egress seconds
	for aStop, aSec := range access.Found() {
		for eStop, eSec := range egress.Found() {
			if aStop == eStop {
				continue
			}
			aCoord, _ := r.stops.Coord(aStop)
			eCoord, _ := r.stops.Coord(eStop)
			busSec := network.HaversineM(aCoord, eCoord) / r.opts.BusSpeedMPS
			total := aSec + float64(r.opts.BoardWaitSec) + busSec + eSec
			if total < bestTotal {
				bestTotal = total
				bestAccess, bestEgress = aStop, eStop
				bestParts = [3]float64{aSec, busSec, eSec}
			}
		}
	}
	if math.IsInf(bestTotal, 1) {
		return routing.Itinerary{}, false
	}

	aCoord, _ := r.stops.Coord(bestAccess)
	eCoord, _ := r.stops.Coord(bestEgress)
	boardTime := req.DepartTime + int(bestParts[0]) + r.opts.BoardWaitSec
	legs := []routing.Leg{
		{
			Mode:        routing.ModeWalk,
			StartTime:   req.DepartTime,
			DurationSec: int(bestParts[0]),
			DistanceM:   bestParts[0] * r.opts.WalkSpeedMPS,
		},
		{
			Mode:        routing.ModeBus,
			StartTime:   boardTime,
			DurationSec: int(bestParts[1]),
			DistanceM:   network.HaversineM(aCoord, eCoord),
		},
		{
			Mode:        routing.ModeWalk,
			StartTime:   boardTime + int(bestParts[1]),
			DurationSec: int(bestParts[2]),
			DistanceM:   bestParts[2] * r.opts.WalkSpeedMPS,
		},
	}
	return routing.Itinerary{
		Legs: legs,
		Cost: tripCost(bestTotal, req.ValueOfTime),
	}, true
}
