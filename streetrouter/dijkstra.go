package streetrouter

import (
	"container/heap"
	"math"

	"github.com/theoremus-urban-solutions/trip-router/network"
)

// linkWeight prices one link given the seconds already traveled. Returning
// a non-positive value marks the link unusable for the search.
type linkWeight func(l *network.Link, elapsedSec float64) float64

// pathResult is a found street path.
type pathResult struct {
	linkIDs []string
	seconds float64
	meters  float64
}

// shortestPath runs a Dijkstra expansion from the origin split edge until
// either destination endpoint settles. Stale queue entries are skipped
// instead of decreasing keys.
func shortestPath(net *network.Network, origin, dest network.SplitEdge, weight linkWeight) (pathResult, bool) {
	dist := map[string]float64{origin.FromNode: 0, origin.ToNode: 0}
	prev := map[string]*network.Link{}
	settled := map[string]struct{}{}
	pq := &searchQueue{{node: origin.FromNode}, {node: origin.ToNode}}
	heap.Init(pq)

	goal := ""
	for pq.Len() > 0 {
		cur := heap.Pop(pq).(searchLabel)
		if _, done := settled[cur.node]; done {
			continue
		}
		settled[cur.node] = struct{}{}
		if cur.node == dest.FromNode || cur.node == dest.ToNode {
			goal = cur.node
			break
		}
		for _, l := range net.OutLinks(cur.node) {
			if _, done := settled[l.To]; done {
				continue
			}
			w := weight(l, cur.sec)
			if w <= 0 {
				continue
			}
			next := cur.sec + w
			if old, seen := dist[l.To]; !seen || next < old {
				dist[l.To] = next
				prev[l.To] = l
				heap.Push(pq, searchLabel{node: l.To, sec: next})
			}
		}
	}
	if goal == "" {
		return pathResult{}, false
	}

	res := pathResult{seconds: dist[goal]}
	for at := goal; ; {
		l := prev[at]
		if l == nil {
			break
		}
		res.linkIDs = append(res.linkIDs, l.ID)
		res.meters += l.LengthM
		at = l.From
	}
	reverse(res.linkIDs)
	return res, true
}

func reverse(s []string) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

type searchLabel struct {
	node string
	sec  float64
}

type searchQueue []searchLabel

func (q searchQueue) Len() int           { return len(q) }
func (q searchQueue) Less(i, j int) bool { return q[i].sec < q[j].sec }
func (q searchQueue) Swap(i, j int)      { q[i], q[j] = q[j], q[i] }
func (q *searchQueue) Push(x any)        { *q = append(*q, x.(searchLabel)) }

func (q *searchQueue) Pop() any {
	old := *q
	n := len(old)
	x := old[n-1]
	*q = old[:n-1]
	return x
}

// speedWeight builds a fixed-speed weight for walk and bike searches.
func speedWeight(mode string, speedMPS float64) linkWeight {
	return func(l *network.Link, _ float64) float64 {
		if !l.AllowsMode(mode) {
			return -1
		}
		if speedMPS <= 0 {
			return math.Inf(1)
		}
		return l.LengthM / speedMPS
	}
}
