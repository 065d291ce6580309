package traffic

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	gtfsrtpb "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"

	"github.com/theoremus-urban-solutions/trip-router/network"
)

func feedNet(t *testing.T) *network.Network {
	t.Helper()
	nodes := []network.Node{
		{ID: "a", Coord: network.Coord{Lat: 45.000, Lon: 9.00000}},
		{ID: "b", Coord: network.Coord{Lat: 45.000, Lon: 9.00127}},
	}
	links := []*network.Link{
		{ID: "ab", From: "a", To: "b", LengthM: 100, FreeSpeedMPS: 14},
	}
	n, err := network.New(nodes, links)
	require.NoError(t, err)
	return n
}

func vehicleEntity(id string, lat, lon, speed float32, ts uint64) *gtfsrtpb.FeedEntity {
	return &gtfsrtpb.FeedEntity{
		Id: proto.String(id),
		Vehicle: &gtfsrtpb.VehiclePosition{
			Position: &gtfsrtpb.Position{
				Latitude:  proto.Float32(lat),
				Longitude: proto.Float32(lon),
				Speed:     proto.Float32(speed),
			},
			Timestamp: proto.Uint64(ts),
		},
	}
}

func dayClock(epoch int64) int {
	tm := time.Unix(epoch, 0)
	return tm.Hour()*3600 + tm.Minute()*60 + tm.Second()
}

func TestExtractObservations(t *testing.T) {
	net := feedNet(t)
	vehicleTS := uint64(time.Date(2026, 8, 20, 8, 30, 0, 0, time.Local).Unix())

	noSpeed := vehicleEntity("2", 45.0001, 9.0004, 0, vehicleTS)
	noSpeed.Vehicle.Position.Speed = nil

	fm := &gtfsrtpb.FeedMessage{
		Header: &gtfsrtpb.FeedHeader{
			GtfsRealtimeVersion: proto.String("2.0"),
			Timestamp:           proto.Uint64(vehicleTS - 3600),
		},
		Entity: []*gtfsrtpb.FeedEntity{
			vehicleEntity("1", 45.0001, 9.0006, 3.5, vehicleTS),
			noSpeed,
			vehicleEntity("3", 46.5, 10.5, 9.0, vehicleTS), // nowhere near the network
			{Id: proto.String("4")},                        // no vehicle payload
		},
	}

	obs := ExtractObservations(fm, net, 50)
	require.Len(t, obs, 1)
	require.Equal(t, "ab", obs[0].LinkID)
	require.InDelta(t, 3.5, obs[0].SpeedMPS, 1e-6)
	require.Equal(t, dayClock(int64(vehicleTS)), obs[0].AtSec,
		"vehicle timestamp wins over the header timestamp")
}

func TestExtractObservationsNilFeed(t *testing.T) {
	require.Nil(t, ExtractObservations(nil, feedNet(t), 50))
}

func TestFetchFeedRoundTrip(t *testing.T) {
	fm := &gtfsrtpb.FeedMessage{
		Header: &gtfsrtpb.FeedHeader{GtfsRealtimeVersion: proto.String("2.0")},
		Entity: []*gtfsrtpb.FeedEntity{vehicleEntity("1", 45, 9, 5, 1700000000)},
	}
	data, err := proto.Marshal(fm)
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(data)
	}))
	defer srv.Close()

	got, err := NewClient().FetchFeed(srv.URL)
	require.NoError(t, err)
	require.Len(t, got.Entity, 1)
	require.InDelta(t, 5.0, float64(*got.Entity[0].Vehicle.Position.Speed), 1e-6)
}

func TestFetchFeedEmptyURL(t *testing.T) {
	fm, err := NewClient().FetchFeed("")
	require.NoError(t, err)
	require.Nil(t, fm)
}

func TestFetchFeedHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewClient().FetchFeed(srv.URL)
	require.Error(t, err)
	require.Contains(t, err.Error(), "502")
}
