package stopfinder

import (
	"container/heap"

	"github.com/theoremus-urban-solutions/trip-router/network"
)

// NearbyStops walks outward from the origin split edge at the given speed,
// feeding every settled vertex to the visitor until the visitor reports
// done or the walkable network is exhausted. The dominance value handed to
// the visitor is the elapsed walking time.
func NearbyStops(net *network.Network, origin network.SplitEdge, walkSpeedMPS float64, v *Visitor) *Visitor {
	dist := map[string]float64{origin.FromNode: 0, origin.ToNode: 0}
	pq := &nodeQueue{{id: origin.FromNode}, {id: origin.ToNode}}
	heap.Init(pq)
	settled := map[string]struct{}{}

	for pq.Len() > 0 {
		cur := heap.Pop(pq).(nodeLabel)
		if _, done := settled[cur.id]; done {
			continue // stale entry, already settled cheaper
		}
		settled[cur.id] = struct{}{}

		v.Visit(cur.id, int(cur.sec), cur.sec)
		if v.Done() {
			return v
		}

		for _, l := range net.OutLinks(cur.id) {
			if !l.AllowsMode("walk") {
				continue
			}
			next := cur.sec + l.LengthM/walkSpeedMPS
			if old, seen := dist[l.To]; !seen || next < old {
				dist[l.To] = next
				heap.Push(pq, nodeLabel{id: l.To, sec: next})
			}
		}
	}
	return v
}

type nodeLabel struct {
	id  string
	sec float64
}

type nodeQueue []nodeLabel

func (q nodeQueue) Len() int           { return len(q) }
func (q nodeQueue) Less(i, j int) bool { return q[i].sec < q[j].sec }
func (q nodeQueue) Swap(i, j int)      { q[i], q[j] = q[j], q[i] }
func (q *nodeQueue) Push(x any)        { *q = append(*q, x.(nodeLabel)) }

func (q *nodeQueue) Pop() any {
	old := *q
	n := len(old)
	x := old[n-1]
	*q = old[:n-1]
	return x
}
