package network

import "math"

// cellDeg is the grid cell size in degrees, roughly 550m of latitude.
const cellDeg = 0.005

// maxSearchRings bounds the ring expansion of a nearest-link query,
// about 10km at the default cell size.
const maxSearchRings = 20

type cellKey struct{ x, y int }

// gridIndex buckets links into a uniform lat/lon grid for nearest-link
// queries. A link is registered in every cell its endpoint bounding box
// touches.
type gridIndex struct {
	net   *Network
	cells map[cellKey][]*Link
}

func newGridIndex(net *Network) *gridIndex {
	g := &gridIndex{net: net, cells: map[cellKey][]*Link{}}
	for _, l := range net.links {
		from := net.nodes[l.From].Coord
		to := net.nodes[l.To].Coord
		minX, maxX := cellOf(from.Lon), cellOf(to.Lon)
		if minX > maxX {
			minX, maxX = maxX, minX
		}
		minY, maxY := cellOf(from.Lat), cellOf(to.Lat)
		if minY > maxY {
			minY, maxY = maxY, minY
		}
		for x := minX; x <= maxX; x++ {
			for y := minY; y <= maxY; y++ {
				k := cellKey{x, y}
				g.cells[k] = append(g.cells[k], l)
			}
		}
	}
	return g
}

func cellOf(deg float64) int { return int(math.Floor(deg / cellDeg)) }

// nearest scans rings of cells around c until a link is found, then one
// extra ring to catch closer links straddling the ring boundary.
func (g *gridIndex) nearest(c Coord) (*Link, float64) {
	center := cellKey{cellOf(c.Lon), cellOf(c.Lat)}
	var best *Link
	bestDist := math.Inf(1)
	foundRing := -1
	for ring := 0; ring <= maxSearchRings; ring++ {
		if foundRing >= 0 && ring > foundRing+1 {
			break
		}
		for _, k := range ringCells(center, ring) {
			for _, l := range g.cells[k] {
				from := g.net.nodes[l.From].Coord
				to := g.net.nodes[l.To].Coord
				d := distToSegmentM(c, from, to)
				if d < bestDist {
					best = l
					bestDist = d
				}
			}
		}
		if best != nil && foundRing < 0 {
			foundRing = ring
		}
	}
	return best, bestDist
}

// ringCells lists the cells of the square ring at the given radius.
func ringCells(center cellKey, ring int) []cellKey {
	if ring == 0 {
		return []cellKey{center}
	}
	keys := make([]cellKey, 0, 8*ring)
	for x := center.x - ring; x <= center.x+ring; x++ {
		keys = append(keys, cellKey{x, center.y - ring}, cellKey{x, center.y + ring})
	}
	for y := center.y - ring + 1; y <= center.y+ring-1; y++ {
		keys = append(keys, cellKey{center.x - ring, y}, cellKey{center.x + ring, y})
	}
	return keys
}

// SplitEdge is the result of snapping a coordinate onto the network: the
// nearest link and its two endpoint nodes. A search that reaches either
// endpoint has effectively arrived at the snapped coordinate.
type SplitEdge struct {
	Link     *Link
	FromNode string
	ToNode   string
	DistM    float64
}

// NearestLink returns the link closest to c and the snap distance in meters.
func (n *Network) NearestLink(c Coord) (*Link, float64, bool) {
	l, d := n.index.nearest(c)
	if l == nil {
		return nil, 0, false
	}
	return l, d, true
}

// Snap resolves a coordinate to its split edge.
func (n *Network) Snap(c Coord) (SplitEdge, bool) {
	l, d := n.index.nearest(c)
	if l == nil {
		return SplitEdge{}, false
	}
	return SplitEdge{Link: l, FromNode: l.From, ToNode: l.To, DistM: d}, true
}
