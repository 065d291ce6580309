package traffic

import (
	"time"

	gtfsrtpb "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"

	"github.com/theoremus-urban-solutions/trip-router/network"
	"github.com/theoremus-urban-solutions/trip-router/traveltime"
)

// ExtractObservations converts vehicle positions into link speed
// observations. Entities without a position or speed are skipped, as are
// vehicles farther than maxSnapM from any link. Observation times come
// from the vehicle timestamp, falling back to the feed header and then to
// the wall clock.
func ExtractObservations(fm *gtfsrtpb.FeedMessage, net *network.Network, maxSnapM float64) []traveltime.Observation {
	if fm == nil {
		return nil
	}
	var headerTS int64
	if fm.Header != nil && fm.Header.Timestamp != nil {
		headerTS = int64(*fm.Header.Timestamp)
	}
	var obs []traveltime.Observation
	for _, e := range fm.Entity {
		v := e.Vehicle
		if v == nil || v.Position == nil {
			continue
		}
		p := v.Position
		if p.Speed == nil || p.Latitude == nil || p.Longitude == nil {
			continue
		}
		c := network.Coord{Lat: float64(*p.Latitude), Lon: float64(*p.Longitude)}
		link, dist, ok := net.NearestLink(c)
		if !ok || dist > maxSnapM {
			continue
		}
		ts := headerTS
		if v.Timestamp != nil {
			ts = int64(*v.Timestamp)
		}
		obs = append(obs, traveltime.Observation{
			LinkID:   link.ID,
			AtSec:    secondsOfDay(ts),
			SpeedMPS: float64(*p.Speed),
		})
	}
	return obs
}

// secondsOfDay maps an epoch timestamp to local seconds since midnight,
// the time axis the travel-time model lives on.
func secondsOfDay(epoch int64) int {
	t := time.Now()
	if epoch > 0 {
		t = time.Unix(epoch, 0)
	}
	return t.Hour()*3600 + t.Minute()*60 + t.Second()
}
