// Package traveltime holds the link travel-time model the simulation feeds
// back into the router. A model maps (link, time bin) to drive seconds and
// falls back to free-flow times where no observations exist. Models are
// immutable after construction; the worker swaps whole models atomically.
package traveltime

import (
	"fmt"

	"github.com/theoremus-urban-solutions/trip-router/network"
)

// Observation is one raw speed reading on a link, as produced by the
// simulation's executed legs or by a live traffic feed.
type Observation struct {
	LinkID   string  `json:"linkId"`
	AtSec    int     `json:"atSec"` // seconds since midnight
	SpeedMPS float64 `json:"speedMps"`
}

// Model maps (link, time bin) to drive seconds.
type Model struct {
	Version        int64
	BinDurationSec int
	Bins           int

	freeFlow map[string]float64   // link -> free-flow seconds
	binned   map[string][]float64 // link -> per-bin drive seconds, 0 means no data
}

// FreeFlow builds the bootstrap model: every link at its free-flow time in
// every bin. Used before the first simulation iteration has produced any
// observations.
func FreeFlow(net *network.Network, binDurationSec, bins int) *Model {
	m := &Model{
		BinDurationSec: binDurationSec,
		Bins:           bins,
		freeFlow:       make(map[string]float64, net.LinkCount()),
		binned:         map[string][]float64{},
	}
	net.Links(func(l *network.Link) bool {
		m.freeFlow[l.ID] = l.FreeFlowSec()
		return true
	})
	return m
}

// Compile aggregates raw observations into a model. Speeds are averaged per
// (link, bin) and converted to drive seconds using link lengths. Observations
// for unknown links or with non-positive speeds are dropped; the count of
// dropped observations is returned alongside the model.
func Compile(obs []Observation, net *network.Network, binDurationSec, bins int) (*Model, int, error) {
	if binDurationSec <= 0 || bins <= 0 {
		return nil, 0, fmt.Errorf("compile travel times: bad bin shape %dx%ds", bins, binDurationSec)
	}
	m := FreeFlow(net, binDurationSec, bins)

	type acc struct {
		sum float64
		n   int
	}
	sums := map[string][]acc{}
	dropped := 0
	for _, o := range obs {
		link, ok := net.Link(o.LinkID)
		if !ok || o.SpeedMPS <= 0 {
			dropped++
			continue
		}
		bin := m.BinOf(o.AtSec)
		a := sums[link.ID]
		if a == nil {
			a = make([]acc, bins)
			sums[link.ID] = a
		}
		a[bin].sum += o.SpeedMPS
		a[bin].n++
	}
	for linkID, a := range sums {
		link, _ := net.Link(linkID)
		row := make([]float64, bins)
		for bin := range a {
			if a[bin].n == 0 {
				continue
			}
			meanSpeed := a[bin].sum / float64(a[bin].n)
			row[bin] = link.LengthM / meanSpeed
		}
		m.binned[linkID] = row
	}
	return m, dropped, nil
}

// BinOf maps a time of day to a bin index, clamping to the last bin past
// the horizon.
func (m *Model) BinOf(atSec int) int {
	if atSec < 0 {
		atSec = 0
	}
	bin := atSec / m.BinDurationSec
	if bin >= m.Bins {
		bin = m.Bins - 1
	}
	return bin
}

// DriveTime returns the drive seconds for a link at a time of day: the
// binned value when observed, the free-flow time otherwise. Unknown links
// return 0.
func (m *Model) DriveTime(linkID string, atSec int) float64 {
	if row, ok := m.binned[linkID]; ok {
		if t := row[m.BinOf(atSec)]; t > 0 {
			return t
		}
	}
	return m.freeFlow[linkID]
}

// SampleBin snapshots drive seconds for every link at the given bin. This
// is what the per-bin graph builds consume.
func (m *Model) SampleBin(bin int) map[string]float64 {
	if bin < 0 {
		bin = 0
	}
	if bin >= m.Bins {
		bin = m.Bins - 1
	}
	out := make(map[string]float64, len(m.freeFlow))
	for linkID, ff := range m.freeFlow {
		out[linkID] = ff
		if row, ok := m.binned[linkID]; ok && row[bin] > 0 {
			out[linkID] = row[bin]
		}
	}
	return out
}

// ObservedLinks reports how many links carry at least one binned value.
func (m *Model) ObservedLinks() int { return len(m.binned) }
