package stopfinder

// Visitor accumulates transit stops encountered by one street search. State
// is tied to that single search; build a fresh visitor per invocation.
//
// Stops closer than the minimum threshold are rejected so that trips do not
// "ride" transit for a distance they could simply walk. A stop already
// recorded is only updated when the new dominance value is strictly better,
// and the visitor never records more distinct stops than its limit.
type Visitor struct {
	stops  *Index
	minSec int
	limit  int
	destA  string
	destB  string

	found      map[string]float64
	hitDest    bool
	lastVertex string
}

// NewVisitor builds a visitor. dest carries the two endpoint vertices of
// the destination's split edge; reaching either one ends the search.
func NewVisitor(stops *Index, minSec, limit int, destA, destB string) *Visitor {
	return &Visitor{
		stops:  stops,
		minSec: minSec,
		limit:  limit,
		destA:  destA,
		destB:  destB,
		found:  map[string]float64{},
	}
}

// Visit is called for every vertex the search settles, with the elapsed
// walking seconds and the search's dominance value for that vertex.
func (v *Visitor) Visit(vertexID string, elapsedSec int, dominance float64) {
	v.lastVertex = vertexID
	if vertexID == v.destA || vertexID == v.destB {
		v.hitDest = true
	}
	stopIDs := v.stops.StopsAt(vertexID)
	if len(stopIDs) == 0 {
		return
	}
	if elapsedSec < v.minSec {
		return
	}
	for _, id := range stopIDs {
		if best, seen := v.found[id]; seen {
			if dominance < best {
				v.found[id] = dominance
			}
			continue
		}
		// A vertex can host a cluster of stops; new ones only land while
		// the limit has room.
		if len(v.found) >= v.limit {
			continue
		}
		v.found[id] = dominance
	}
}

// Done reports whether the search may terminate: the stop budget is
// exhausted or the search has reached the destination itself.
func (v *Visitor) Done() bool {
	return v.hitDest || len(v.found) >= v.limit
}

// Found returns the discovered stops keyed by their best dominance value.
func (v *Visitor) Found() map[string]float64 { return v.found }

// ReachedDestination reports whether the search walked into either
// destination split-edge endpoint.
func (v *Visitor) ReachedDestination() bool { return v.hitDest }
