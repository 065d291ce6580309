package streetrouter

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/theoremus-urban-solutions/trip-router/network"
	"github.com/theoremus-urban-solutions/trip-router/routing"
)

// binArtifact is the on-disk form of one per-bin drive-time table.
type binArtifact struct {
	Bin      int                `json:"bin"`
	DriveSec map[string]float64 `json:"driveSec"`
}

// BinnedBuilder builds the fast per-bin engines for the graph pool.
type BinnedBuilder struct {
	net          *network.Network
	walkSpeedMPS float64
}

// NewBinnedBuilder wires a builder over the shared network.
func NewBinnedBuilder(net *network.Network, walkSpeedMPS float64) *BinnedBuilder {
	if walkSpeedMPS <= 0 {
		walkSpeedMPS = DefaultWalkSpeedMPS
	}
	return &BinnedBuilder{net: net, walkSpeedMPS: walkSpeedMPS}
}

// Build writes the bin's drive-time artifact and returns the instance that
// routes over it.
func (b *BinnedBuilder) Build(ctx context.Context, bin int, driveSec map[string]float64, outDir string) (routing.Engine, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := json.Marshal(binArtifact{Bin: bin, DriveSec: driveSec})
	if err != nil {
		return nil, fmt.Errorf("encode bin %d: %w", bin, err)
	}
	name := filepath.Join(outDir, fmt.Sprintf("graph_bin_%03d.json", bin))
	if err := os.WriteFile(name, data, 0o644); err != nil {
		return nil, fmt.Errorf("write bin artifact: %w", err)
	}
	return &BinnedInstance{net: b.net, bin: bin, driveSec: driveSec, walkSpeedMPS: b.walkSpeedMPS}, nil
}

// BinnedInstance answers car and walk requests against a drive-time table
// frozen at build time. Vehicles of any other mode yield no itineraries;
// the complete engine covers those.
type BinnedInstance struct {
	net          *network.Network
	bin          int
	driveSec     map[string]float64
	walkSpeedMPS float64
}

// Bin returns the time bin this instance was built for.
func (e *BinnedInstance) Bin() int { return e.bin }

func (e *BinnedInstance) CalcRoute(ctx context.Context, req routing.Request) (routing.Response, error) {
	origin, ok := e.net.Snap(req.Origin)
	if !ok {
		return routing.Response{}, fmt.Errorf("route %d: origin off network", req.ID)
	}
	dest, ok := e.net.Snap(req.Destination)
	if !ok {
		return routing.Response{}, fmt.Errorf("route %d: destination off network", req.ID)
	}

	resp := routing.Response{RequestID: req.ID}
	for _, v := range req.Vehicles {
		if err := ctx.Err(); err != nil {
			return routing.Response{}, fmt.Errorf("route %d: %w", req.ID, err)
		}
		var w linkWeight
		switch v.Mode {
		case routing.ModeCar:
			w = e.carWeight()
		case routing.ModeWalk:
			w = speedWeight(string(routing.ModeWalk), e.walkSpeedMPS)
		default:
			continue
		}
		path, found := shortestPath(e.net, origin, dest, w)
		if !found {
			continue
		}
		resp.Itineraries = append(resp.Itineraries, routing.Itinerary{
			Legs: []routing.Leg{{
				Mode:        v.Mode,
				VehicleID:   v.ID,
				StartTime:   req.DepartTime,
				DurationSec: int(path.seconds),
				LinkIDs:     path.linkIDs,
				DistanceM:   path.meters,
			}},
			Cost: tripCost(path.seconds, req.ValueOfTime),
		})
	}
	return resp, nil
}

// carWeight prices links with the frozen table, free flow where the table
// has no entry.
func (e *BinnedInstance) carWeight() linkWeight {
	return func(l *network.Link, _ float64) float64 {
		if !l.AllowsMode(string(routing.ModeCar)) {
			return -1
		}
		if t, ok := e.driveSec[l.ID]; ok && t > 0 {
			return t
		}
		return l.FreeFlowSec()
	}
}
