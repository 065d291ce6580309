package graphpool

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/theoremus-urban-solutions/trip-router/network"
	"github.com/theoremus-urban-solutions/trip-router/routing"
	"github.com/theoremus-urban-solutions/trip-router/traveltime"
)

type fakeEngine struct {
	bin   int
	drive map[string]float64
}

func (f *fakeEngine) CalcRoute(_ context.Context, req routing.Request) (routing.Response, error) {
	return routing.Response{RequestID: req.ID}, nil
}

type fakeBuilder struct {
	mu      sync.Mutex
	builds  []int
	delay   time.Duration
	fail    map[int]error
	entered chan struct{} // closed when the first build starts
	block   chan struct{} // when set, every build waits here
	once    sync.Once
}

func (b *fakeBuilder) Build(ctx context.Context, bin int, drive map[string]float64, outDir string) (routing.Engine, error) {
	if b.entered != nil {
		b.once.Do(func() { close(b.entered) })
	}
	if b.block != nil {
		select {
		case <-b.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if b.delay > 0 {
		select {
		case <-time.After(b.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	b.mu.Lock()
	b.builds = append(b.builds, bin)
	b.mu.Unlock()
	if err := b.fail[bin]; err != nil {
		return nil, err
	}
	name := filepath.Join(outDir, fmt.Sprintf("bin_%d.json", bin))
	if err := os.WriteFile(name, []byte("{}"), 0o644); err != nil {
		return nil, err
	}
	return &fakeEngine{bin: bin, drive: drive}, nil
}

func testModel(t *testing.T) *traveltime.Model {
	t.Helper()
	nodes := []network.Node{
		{ID: "a", Coord: network.Coord{Lat: 45.00, Lon: 9.00}},
		{ID: "b", Coord: network.Coord{Lat: 45.01, Lon: 9.00}},
	}
	links := []*network.Link{
		{ID: "ab", From: "a", To: "b", LengthM: 1000, FreeSpeedMPS: 10},
		{ID: "ba", From: "b", To: "a", LengthM: 1000, FreeSpeedMPS: 10},
	}
	net, err := network.New(nodes, links)
	require.NoError(t, err)
	return traveltime.FreeFlow(net, 3600, 4)
}

func TestRebuildBuildsAllBins(t *testing.T) {
	b := &fakeBuilder{}
	p := New(b, t.TempDir(), 3600, 4, false, time.Minute)
	require.False(t, p.Built())

	require.NoError(t, p.Rebuild(context.Background(), testModel(t)))
	require.True(t, p.Built())
	require.Len(t, b.builds, 4)

	for bin := 0; bin < 4; bin++ {
		eng := p.InstanceFor(bin).(*fakeEngine)
		require.Equal(t, bin, eng.bin)
		_, err := os.Stat(filepath.Join(p.Dir(), fmt.Sprintf("bin_%d.json", bin)))
		require.NoError(t, err, "artifact for bin %d", bin)
	}
}

func TestRebuildClearsStaleArtifacts(t *testing.T) {
	dir := t.TempDir()
	stale := filepath.Join(dir, "leftover.bin")
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0o644))

	p := New(&fakeBuilder{}, dir, 3600, 2, false, time.Minute)
	require.NoError(t, p.Rebuild(context.Background(), testModel(t)))

	_, err := os.Stat(stale)
	require.True(t, os.IsNotExist(err), "stale artifact must be wiped")
}

func TestStaticPoolHoldsOneInstance(t *testing.T) {
	p := New(&fakeBuilder{}, t.TempDir(), 3600, 4, true, time.Minute)
	require.NoError(t, p.Rebuild(context.Background(), testModel(t)))
	require.Equal(t, 1, p.BinCount())
	require.Equal(t, 0, p.BinFor(13*3600))
	require.NotNil(t, p.InstanceFor(0))
}

func TestBinForFloorsAndClamps(t *testing.T) {
	p := New(&fakeBuilder{}, t.TempDir(), 3600, 4, false, time.Minute)
	require.Equal(t, 0, p.BinFor(-10))
	require.Equal(t, 0, p.BinFor(0))
	require.Equal(t, 0, p.BinFor(3599))
	require.Equal(t, 1, p.BinFor(3600))
	require.Equal(t, 3, p.BinFor(3*3600))
	require.Equal(t, 3, p.BinFor(40*3600), "past horizon clamps to last bin")
}

func TestInstanceForPanics(t *testing.T) {
	p := New(&fakeBuilder{}, t.TempDir(), 3600, 2, false, time.Minute)
	require.Panics(t, func() { p.InstanceFor(0) }, "unbuilt pool")

	require.NoError(t, p.Rebuild(context.Background(), testModel(t)))
	require.Panics(t, func() { p.InstanceFor(2) }, "bin outside built range")
	require.Panics(t, func() { p.InstanceFor(-1) })
}

func TestRebuildTimeoutFailsWholeRebuild(t *testing.T) {
	b := &fakeBuilder{delay: 200 * time.Millisecond}
	p := New(b, t.TempDir(), 3600, 2, false, 20*time.Millisecond)

	err := p.Rebuild(context.Background(), testModel(t))
	require.Error(t, err)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.False(t, p.Built(), "failed rebuild leaves the pool unbuilt")
}

func TestRebuildBuilderErrorFailsWholeRebuild(t *testing.T) {
	b := &fakeBuilder{fail: map[int]error{1: fmt.Errorf("disk full")}}
	p := New(b, t.TempDir(), 3600, 3, false, time.Minute)

	err := p.Rebuild(context.Background(), testModel(t))
	require.Error(t, err)
	require.Contains(t, err.Error(), "bin 1")
	require.False(t, p.Built())
}

func TestRebuildPublishesOnlyAfterAllBinsBuild(t *testing.T) {
	b := &fakeBuilder{}
	p := New(b, t.TempDir(), 3600, 4, false, time.Minute)
	require.NoError(t, p.Rebuild(context.Background(), testModel(t)))
	old := p.InstanceFor(2)

	b.entered = make(chan struct{})
	b.block = make(chan struct{})
	done := make(chan error, 1)
	go func() { done <- p.Rebuild(context.Background(), testModel(t)) }()
	<-b.entered

	// The rebuild is mid-flight; the previous generation still serves.
	require.True(t, p.Built())
	require.Same(t, old, p.InstanceFor(2))

	close(b.block)
	require.NoError(t, <-done)
	require.NotSame(t, old, p.InstanceFor(2), "the finished rebuild replaces the set")
}

func TestRebuildTwiceIsEquivalent(t *testing.T) {
	b := &fakeBuilder{}
	p := New(b, t.TempDir(), 3600, 3, false, time.Minute)
	m := testModel(t)

	require.NoError(t, p.Rebuild(context.Background(), m))
	first := make([]map[string]float64, 3)
	for bin := 0; bin < 3; bin++ {
		first[bin] = p.InstanceFor(bin).(*fakeEngine).drive
	}

	require.NoError(t, p.Rebuild(context.Background(), m))
	for bin := 0; bin < 3; bin++ {
		require.Equal(t, first[bin], p.InstanceFor(bin).(*fakeEngine).drive,
			"same model must produce an equivalent instance for bin %d", bin)
	}
}
