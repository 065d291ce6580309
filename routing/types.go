package routing

import (
	"fmt"

	"github.com/theoremus-urban-solutions/trip-router/network"
)

// Mode is a travel mode a street vehicle can use.
type Mode string

const (
	ModeCar  Mode = "car"
	ModeWalk Mode = "walk"
	ModeBike Mode = "bike"
	ModeBus  Mode = "bus"
)

// FastRoutable reports whether the time-binned fast engines can serve this
// mode. Everything else goes straight to the complete engine.
func (m Mode) FastRoutable() bool { return m == ModeCar || m == ModeWalk }

// StreetVehicle is a vehicle available to the traveler for one trip.
type StreetVehicle struct {
	ID       string        `json:"id"`
	TypeID   string        `json:"typeId"`
	Mode     Mode          `json:"mode"`
	Location network.Coord `json:"location"`
}

// Request is a point-to-point trip routing query. Requests are treated as
// immutable once issued; narrowing produces copies.
type Request struct {
	ID          int64           `json:"id"`
	DepartTime  int             `json:"departTime"` // seconds since simulation start
	Origin      network.Coord   `json:"origin"`
	Destination network.Coord   `json:"destination"`
	Vehicles    []StreetVehicle `json:"vehicles"`
	WithTransit bool            `json:"withTransit"`
	ValueOfTime float64         `json:"valueOfTime"` // money units per hour
}

// Narrowed returns a copy of the request restricted to the given vehicles.
// The request id is preserved so responses still correlate.
func (r Request) Narrowed(vehicles []StreetVehicle) Request {
	r.Vehicles = vehicles
	return r
}

// NarrowedToModes returns a copy restricted to vehicles of the given modes.
func (r Request) NarrowedToModes(modes []Mode) Request {
	keep := make([]StreetVehicle, 0, len(r.Vehicles))
	for _, v := range r.Vehicles {
		for _, m := range modes {
			if v.Mode == m {
				keep = append(keep, v)
				break
			}
		}
	}
	return r.Narrowed(keep)
}

// ModesPresent lists the distinct vehicle modes on the request, in first
// appearance order.
func (r Request) ModesPresent() []Mode {
	seen := map[Mode]struct{}{}
	var modes []Mode
	for _, v := range r.Vehicles {
		if _, ok := seen[v.Mode]; ok {
			continue
		}
		seen[v.Mode] = struct{}{}
		modes = append(modes, v.Mode)
	}
	return modes
}

// VehiclesOfMode filters the request's vehicles by mode.
func (r Request) VehiclesOfMode(m Mode) []StreetVehicle {
	var out []StreetVehicle
	for _, v := range r.Vehicles {
		if v.Mode == m {
			out = append(out, v)
		}
	}
	return out
}

// Leg is one segment of an itinerary traveled with a single vehicle or on
// foot.
type Leg struct {
	Mode        Mode     `json:"mode"`
	VehicleID   string   `json:"vehicleId,omitempty"`
	StartTime   int      `json:"startTime"`
	DurationSec int      `json:"durationSec"`
	LinkIDs     []string `json:"linkIds,omitempty"`
	DistanceM   float64  `json:"distanceM"`
}

// Itinerary is one complete way of making the trip.
type Itinerary struct {
	Legs []Leg   `json:"legs"`
	Cost float64 `json:"cost"`
}

// TotalDurationSec sums the leg durations.
func (it Itinerary) TotalDurationSec() int {
	total := 0
	for _, l := range it.Legs {
		total += l.DurationSec
	}
	return total
}

// Response carries the itineraries found for a request. An empty itinerary
// list means no path was found; that is a valid answer, not an error.
type Response struct {
	RequestID   int64       `json:"requestId"`
	Itineraries []Itinerary `json:"itineraries"`
}

// Success reports whether the response contains at least one itinerary.
func (r Response) Success() bool { return len(r.Itineraries) > 0 }

// MergeResponses appends second's itineraries after first's, keeping
// first's request id.
func MergeResponses(first, second Response) Response {
	merged := Response{RequestID: first.RequestID}
	merged.Itineraries = append(merged.Itineraries, first.Itineraries...)
	merged.Itineraries = append(merged.Itineraries, second.Itineraries...)
	return merged
}

// Failure reports that a request could not be routed because the engine
// itself failed. Sent in place of a Response; the simulation decides how to
// proceed.
type Failure struct {
	RequestID int64  `json:"requestId"`
	Cause     string `json:"cause"`
}

// NewFailure wraps an engine error into a Failure for the given request.
func NewFailure(requestID int64, err error) Failure {
	return Failure{RequestID: requestID, Cause: fmt.Sprintf("%v", err)}
}
