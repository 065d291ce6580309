package streetrouter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/theoremus-urban-solutions/trip-router/gtfs"
	"github.com/theoremus-urban-solutions/trip-router/network"
	"github.com/theoremus-urban-solutions/trip-router/routing"
	"github.com/theoremus-urban-solutions/trip-router/stopfinder"
	"github.com/theoremus-urban-solutions/trip-router/traveltime"
)

func bidi(id string, from, to string, lengthM, speed float64, modes ...string) []*network.Link {
	rev := ""
	for _, r := range id {
		rev = string(r) + rev
	}
	return []*network.Link{
		{ID: id, From: from, To: to, LengthM: lengthM, FreeSpeedMPS: speed, Modes: modes},
		{ID: rev, From: to, To: from, LengthM: lengthM, FreeSpeedMPS: speed, Modes: modes},
	}
}

// diversionNetwork has a short top route o-a-b-d-t and a longer bottom
// route a-c-d. Congesting b-d makes the bottom route the fast one.
func diversionNetwork(t *testing.T) *network.Network {
	t.Helper()
	nodes := []network.Node{
		{ID: "o", Coord: network.Coord{Lat: 45.000, Lon: 8.99873}},
		{ID: "a", Coord: network.Coord{Lat: 45.000, Lon: 9.00000}},
		{ID: "b", Coord: network.Coord{Lat: 45.000, Lon: 9.00127}},
		{ID: "c", Coord: network.Coord{Lat: 44.999, Lon: 9.00127}},
		{ID: "d", Coord: network.Coord{Lat: 45.000, Lon: 9.00254}},
		{ID: "t", Coord: network.Coord{Lat: 45.000, Lon: 9.00381}},
	}
	var links []*network.Link
	links = append(links, bidi("oa", "o", "a", 100, 10)...)
	links = append(links, bidi("ab", "a", "b", 100, 10)...)
	links = append(links, bidi("bd", "b", "d", 100, 10)...)
	links = append(links, bidi("ac", "a", "c", 150, 10)...)
	links = append(links, bidi("cd", "c", "d", 150, 10)...)
	links = append(links, bidi("dt", "d", "t", 100, 10)...)
	net, err := network.New(nodes, links)
	require.NoError(t, err)
	return net
}

func staticModel(t *testing.T, net *network.Network) func() *traveltime.Model {
	t.Helper()
	m := traveltime.FreeFlow(net, 3600, 24)
	return func() *traveltime.Model { return m }
}

func congestedModel(t *testing.T, net *network.Network) func() *traveltime.Model {
	t.Helper()
	obs := []traveltime.Observation{{LinkID: "bd", AtSec: 8 * 3600, SpeedMPS: 1}}
	m, _, err := traveltime.Compile(obs, net, 3600, 24)
	require.NoError(t, err)
	return func() *traveltime.Model { return m }
}

var (
	originCoord = network.Coord{Lat: 45.000, Lon: 8.9993}
	destCoord   = network.Coord{Lat: 45.000, Lon: 9.0032}
)

func carRequest(id int64, departSec int) routing.Request {
	return routing.Request{
		ID:          id,
		DepartTime:  departSec,
		Origin:      originCoord,
		Destination: destCoord,
		Vehicles:    []routing.StreetVehicle{{ID: "car-1", TypeID: "sedan", Mode: routing.ModeCar}},
		ValueOfTime: 20,
	}
}

func TestCarRouteFreeFlow(t *testing.T) {
	net := diversionNetwork(t)
	r := New(net, stopfinder.NewIndex(nil, net, 50), staticModel(t, net), Options{})

	resp, err := r.CalcRoute(context.Background(), carRequest(1, 0))
	require.NoError(t, err)
	require.Len(t, resp.Itineraries, 1)

	leg := resp.Itineraries[0].Legs[0]
	require.Equal(t, routing.ModeCar, leg.Mode)
	require.Equal(t, "car-1", leg.VehicleID)
	require.Equal(t, []string{"ab", "bd"}, leg.LinkIDs, "free flow takes the short top route")
	require.Equal(t, 20, leg.DurationSec)
	require.InDelta(t, 200, leg.DistanceM, 0.1)
}

func TestCarRouteDivertsUnderCongestion(t *testing.T) {
	net := diversionNetwork(t)
	r := New(net, stopfinder.NewIndex(nil, net, 50), congestedModel(t, net), Options{})

	morning, err := r.CalcRoute(context.Background(), carRequest(2, 8*3600))
	require.NoError(t, err)
	require.Len(t, morning.Itineraries, 1)
	require.Equal(t, []string{"ac", "cd"}, morning.Itineraries[0].Legs[0].LinkIDs,
		"congested b-d pushes the car onto the bottom route")
	require.Equal(t, 30, morning.Itineraries[0].Legs[0].DurationSec)

	night, err := r.CalcRoute(context.Background(), carRequest(3, 0))
	require.NoError(t, err)
	require.Equal(t, []string{"ab", "bd"}, night.Itineraries[0].Legs[0].LinkIDs,
		"other bins stay on the free-flow route")
}

func TestWalkRoute(t *testing.T) {
	net := diversionNetwork(t)
	r := New(net, stopfinder.NewIndex(nil, net, 50), staticModel(t, net), Options{})

	req := carRequest(4, 0)
	req.Vehicles = []routing.StreetVehicle{{ID: "body-1", TypeID: "human", Mode: routing.ModeWalk}}
	resp, err := r.CalcRoute(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, resp.Itineraries, 1)

	leg := resp.Itineraries[0].Legs[0]
	require.Equal(t, routing.ModeWalk, leg.Mode)
	// 200m at the default 1.4 m/s.
	require.InDelta(t, 142, float64(leg.DurationSec), 1)
}

func TestUnknownModeVehicleYieldsNothing(t *testing.T) {
	net := diversionNetwork(t)
	r := New(net, stopfinder.NewIndex(nil, net, 50), staticModel(t, net), Options{})

	req := carRequest(5, 0)
	req.Vehicles = []routing.StreetVehicle{{ID: "bus-1", Mode: routing.ModeBus}}
	resp, err := r.CalcRoute(context.Background(), req)
	require.NoError(t, err)
	require.Empty(t, resp.Itineraries)
}

func TestNoPathIsEmptyResponseNotError(t *testing.T) {
	// Island nodes x-y sit far north with their own link; nothing connects.
	nodes := []network.Node{
		{ID: "a", Coord: network.Coord{Lat: 45.000, Lon: 9.000}},
		{ID: "b", Coord: network.Coord{Lat: 45.000, Lon: 9.00127}},
		{ID: "x", Coord: network.Coord{Lat: 45.030, Lon: 9.000}},
		{ID: "y", Coord: network.Coord{Lat: 45.030, Lon: 9.00127}},
	}
	var links []*network.Link
	links = append(links, bidi("ab", "a", "b", 100, 10)...)
	links = append(links, bidi("xy", "x", "y", 100, 10)...)
	net, err := network.New(nodes, links)
	require.NoError(t, err)
	r := New(net, stopfinder.NewIndex(nil, net, 50), staticModel(t, net), Options{})

	req := carRequest(6, 0)
	req.Destination = network.Coord{Lat: 45.030, Lon: 9.0006}
	resp, err := r.CalcRoute(context.Background(), req)
	require.NoError(t, err, "unroutable is an answer, not a fault")
	require.Empty(t, resp.Itineraries)
}

func TestOffNetworkOriginIsError(t *testing.T) {
	net := diversionNetwork(t)
	r := New(net, stopfinder.NewIndex(nil, net, 50), staticModel(t, net), Options{})

	req := carRequest(7, 0)
	req.Origin = network.Coord{Lat: 52.0, Lon: 21.0}
	_, err := r.CalcRoute(context.Background(), req)
	require.Error(t, err)
}

// transitNetwork separates two walkable pockets with a car-only stretch so
// that transit is the only way across on foot. Stops S1 at b and S2 at d.
func transitNetwork(t *testing.T) (*network.Network, *stopfinder.Index) {
	t.Helper()
	nodes := []network.Node{
		{ID: "a0", Coord: network.Coord{Lat: 45.000, Lon: 8.99873}},
		{ID: "a", Coord: network.Coord{Lat: 45.000, Lon: 9.00000}},
		{ID: "b", Coord: network.Coord{Lat: 45.000, Lon: 9.00127}},
		{ID: "d", Coord: network.Coord{Lat: 45.000, Lon: 9.00508}},
		{ID: "e", Coord: network.Coord{Lat: 45.000, Lon: 9.00635}},
		{ID: "e0", Coord: network.Coord{Lat: 45.000, Lon: 9.00762}},
	}
	var links []*network.Link
	links = append(links, bidi("fa", "a0", "a", 100, 10)...)
	links = append(links, bidi("ab", "a", "b", 100, 10)...)
	links = append(links, bidi("bd", "b", "d", 300, 14, "car")...)
	links = append(links, bidi("de", "d", "e", 100, 10)...)
	links = append(links, bidi("eg", "e", "e0", 100, 10)...)
	net, err := network.New(nodes, links)
	require.NoError(t, err)

	idx := stopfinder.NewIndex([]gtfs.Stop{
		{ID: "S1", Coord: network.Coord{Lat: 45.000, Lon: 9.00127}},
		{ID: "S2", Coord: network.Coord{Lat: 45.000, Lon: 9.00508}},
	}, net, 50)
	return net, idx
}

func TestTransitItinerary(t *testing.T) {
	net, idx := transitNetwork(t)
	r := New(net, idx, staticModel(t, net), Options{})

	req := routing.Request{
		ID:          8,
		DepartTime:  7 * 3600,
		Origin:      network.Coord{Lat: 45.000, Lon: 8.9993},
		Destination: network.Coord{Lat: 45.000, Lon: 9.0070},
		Vehicles:    []routing.StreetVehicle{{ID: "body-1", Mode: routing.ModeWalk}},
		WithTransit: true,
		ValueOfTime: 20,
	}
	resp, err := r.CalcRoute(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, resp.Itineraries, 1, "walk cannot cross the car-only stretch, transit can")

	legs := resp.Itineraries[0].Legs
	require.Len(t, legs, 3)
	require.Equal(t, routing.ModeWalk, legs[0].Mode)
	require.Equal(t, routing.ModeBus, legs[1].Mode)
	require.Equal(t, routing.ModeWalk, legs[2].Mode)

	require.Equal(t, req.DepartTime, legs[0].StartTime)
	require.InDelta(t, 71, float64(legs[0].DurationSec), 2, "walk a to S1")
	require.Equal(t, legs[0].StartTime+legs[0].DurationSec+DefaultBoardWaitSec, legs[1].StartTime)
	require.InDelta(t, 27, float64(legs[1].DurationSec), 2, "300m hop at bus speed")
	require.InDelta(t, 300, legs[1].DistanceM, 5)
	require.Greater(t, resp.Itineraries[0].Cost, 0.0)
}

func TestTransitSkippedWhenDestinationWalkable(t *testing.T) {
	net, idx := transitNetwork(t)
	r := New(net, idx, staticModel(t, net), Options{})

	// Origin and destination inside the same walkable pocket.
	req := routing.Request{
		ID:          9,
		DepartTime:  7 * 3600,
		Origin:      network.Coord{Lat: 45.000, Lon: 8.9993},
		Destination: network.Coord{Lat: 45.000, Lon: 9.0009},
		Vehicles:    []routing.StreetVehicle{{ID: "body-1", Mode: routing.ModeWalk}},
		WithTransit: true,
	}
	resp, err := r.CalcRoute(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, resp.Itineraries, 1)
	require.Len(t, resp.Itineraries[0].Legs, 1, "plain walk only, no transit for a walkable trip")
	require.Equal(t, routing.ModeWalk, resp.Itineraries[0].Legs[0].Mode)
}

func TestEmbodyRepricesLeg(t *testing.T) {
	net := diversionNetwork(t)
	r := New(net, stopfinder.NewIndex(nil, net, 50), congestedModel(t, net), Options{})

	leg := routing.Leg{
		Mode:      routing.ModeCar,
		StartTime: 8 * 3600,
		LinkIDs:   []string{"ab", "bd"},
	}
	resp, err := r.EmbodyWithCurrentTravelTime(context.Background(), leg, "car-9", "sedan", 77)
	require.NoError(t, err)
	require.EqualValues(t, 77, resp.RequestID)
	require.Len(t, resp.Itineraries, 1)

	out := resp.Itineraries[0].Legs[0]
	require.Equal(t, "car-9", out.VehicleID)
	require.Equal(t, 110, out.DurationSec, "10s on ab plus 100s on congested bd")
	require.InDelta(t, 200, out.DistanceM, 0.1)
}

func TestEmbodyUnknownLinkIsError(t *testing.T) {
	net := diversionNetwork(t)
	r := New(net, stopfinder.NewIndex(nil, net, 50), staticModel(t, net), Options{})

	leg := routing.Leg{Mode: routing.ModeCar, LinkIDs: []string{"nope"}}
	_, err := r.EmbodyWithCurrentTravelTime(context.Background(), leg, "car-1", "sedan", 78)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown link")
}
