package stopfinder

import (
	"log"

	"github.com/theoremus-urban-solutions/trip-router/gtfs"
	"github.com/theoremus-urban-solutions/trip-router/network"
)

// Index maps network vertices to the transit stops snapped onto them.
// Each stop attaches to the nearer endpoint node of its nearest link.
type Index struct {
	byNode map[string][]string
	node   map[string]string
	coords map[string]network.Coord
}

// NewIndex snaps stops onto the network. Stops farther than maxSnapM from
// any link are dropped with a log line; a stop in the middle of nowhere is
// a data problem, not a reason to fail startup.
func NewIndex(stops []gtfs.Stop, net *network.Network, maxSnapM float64) *Index {
	idx := &Index{
		byNode: map[string][]string{},
		node:   make(map[string]string, len(stops)),
		coords: make(map[string]network.Coord, len(stops)),
	}
	dropped := 0
	for _, s := range stops {
		link, dist, ok := net.NearestLink(s.Coord)
		if !ok || dist > maxSnapM {
			dropped++
			continue
		}
		nodeID := closerEndpoint(net, link, s.Coord)
		idx.byNode[nodeID] = append(idx.byNode[nodeID], s.ID)
		idx.node[s.ID] = nodeID
		idx.coords[s.ID] = s.Coord
	}
	if dropped > 0 {
		log.Printf("stop index: dropped %d of %d stops beyond %.0fm snap distance", dropped, len(stops), maxSnapM)
	}
	return idx
}

func closerEndpoint(net *network.Network, l *network.Link, c network.Coord) string {
	from, _ := net.Node(l.From)
	to, _ := net.Node(l.To)
	if network.HaversineM(c, from.Coord) <= network.HaversineM(c, to.Coord) {
		return l.From
	}
	return l.To
}

// StopsAt returns the stop ids attached to a vertex, nil for most vertices.
func (i *Index) StopsAt(nodeID string) []string { return i.byNode[nodeID] }

// NodeOf returns the vertex a stop is attached to.
func (i *Index) NodeOf(stopID string) (string, bool) {
	n, ok := i.node[stopID]
	return n, ok
}

// Coord returns a stop's coordinate.
func (i *Index) Coord(stopID string) (network.Coord, bool) {
	c, ok := i.coords[stopID]
	return c, ok
}

// Count returns the number of indexed stops.
func (i *Index) Count() int { return len(i.node) }
