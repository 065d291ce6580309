package network

import "fmt"

// Coord is a WGS84 coordinate.
type Coord struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Node is a junction in the road network.
type Node struct {
	ID    string
	Coord Coord
}

// Link is a directed road segment between two nodes.
type Link struct {
	ID           string
	From         string
	To           string
	LengthM      float64
	FreeSpeedMPS float64
	Modes        []string // modes allowed on this link; empty means all
}

// AllowsMode reports whether the link is usable by the given mode.
func (l *Link) AllowsMode(mode string) bool {
	if len(l.Modes) == 0 {
		return true
	}
	for _, m := range l.Modes {
		if m == mode {
			return true
		}
	}
	return false
}

// FreeFlowSec returns the free-flow traversal time of the link in seconds.
func (l *Link) FreeFlowSec() float64 {
	if l.FreeSpeedMPS <= 0 {
		return 0
	}
	return l.LengthM / l.FreeSpeedMPS
}

// Network is an immutable road network with adjacency and a spatial index.
type Network struct {
	nodes    map[string]Node
	links    map[string]*Link
	outgoing map[string][]*Link
	index    *gridIndex
}

// New builds a network from nodes and links, wiring adjacency and the
// spatial index. Links referencing unknown nodes are rejected.
func New(nodes []Node, links []*Link) (*Network, error) {
	n := &Network{
		nodes:    make(map[string]Node, len(nodes)),
		links:    make(map[string]*Link, len(links)),
		outgoing: make(map[string][]*Link, len(nodes)),
	}
	for _, nd := range nodes {
		n.nodes[nd.ID] = nd
	}
	for _, l := range links {
		if _, ok := n.nodes[l.From]; !ok {
			return nil, fmt.Errorf("link %s: unknown from node %s", l.ID, l.From)
		}
		if _, ok := n.nodes[l.To]; !ok {
			return nil, fmt.Errorf("link %s: unknown to node %s", l.ID, l.To)
		}
		n.links[l.ID] = l
		n.outgoing[l.From] = append(n.outgoing[l.From], l)
	}
	n.index = newGridIndex(n)
	return n, nil
}

// Accessor methods

func (n *Network) Node(id string) (Node, bool) {
	nd, ok := n.nodes[id]
	return nd, ok
}

func (n *Network) Link(id string) (*Link, bool) {
	l, ok := n.links[id]
	return l, ok
}

// OutLinks returns the links leaving a node. The returned slice is shared
// and must not be modified.
func (n *Network) OutLinks(nodeID string) []*Link { return n.outgoing[nodeID] }

func (n *Network) NodeCount() int { return len(n.nodes) }
func (n *Network) LinkCount() int { return len(n.links) }

// Links calls fn for every link until fn returns false.
func (n *Network) Links(fn func(*Link) bool) {
	for _, l := range n.links {
		if !fn(l) {
			return
		}
	}
}

// LinkIDs returns all link ids. Order is unspecified.
func (n *Network) LinkIDs() []string {
	ids := make([]string, 0, len(n.links))
	for id := range n.links {
		ids = append(ids, id)
	}
	return ids
}
