package main

import (
	"context"
	"flag"
	"io"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/theoremus-urban-solutions/trip-router/config"
	"github.com/theoremus-urban-solutions/trip-router/coordinator"
	"github.com/theoremus-urban-solutions/trip-router/graphpool"
	"github.com/theoremus-urban-solutions/trip-router/gtfs"
	"github.com/theoremus-urban-solutions/trip-router/internal"
	"github.com/theoremus-urban-solutions/trip-router/network"
	"github.com/theoremus-urban-solutions/trip-router/stats"
	"github.com/theoremus-urban-solutions/trip-router/stopfinder"
	"github.com/theoremus-urban-solutions/trip-router/streetrouter"
	"github.com/theoremus-urban-solutions/trip-router/traffic"
	"github.com/theoremus-urban-solutions/trip-router/traveltime"
	"github.com/theoremus-urban-solutions/trip-router/worker"
)

func main() {
	configPath := flag.String("config", "", "path to config.yml (default: config.yml in the working directory)")
	workerID := flag.String("worker-id", "", "worker id used in the pull protocol (default: random)")
	flag.Parse()

	internal.InitLogging()
	_ = godotenv.Load()

	var paths []string
	if *configPath != "" {
		paths = append(paths, *configPath)
	} else if p := getEnv("CONFIG_PATH", ""); p != "" {
		paths = append(paths, p)
	}
	if err := config.Load(paths...); err != nil {
		log.Fatalf("load config: %v", err)
	}
	cfg := config.Config
	if dsn := getEnv("DATABASE_URL", ""); dsn != "" {
		cfg.Stats.PostgresDSN = dsn
	}
	if p := getEnv("PORT", ""); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			log.Fatalf("bad PORT override %q: %v", p, err)
		}
		cfg.Server.Port = port
	}

	net, err := network.LoadCSV(cfg.Network.NodesCSV, cfg.Network.LinksCSV)
	if err != nil {
		log.Fatalf("load network: %v", err)
	}
	log.Printf("network loaded: %d nodes, %d links", net.NodeCount(), net.LinkCount())

	var stopIndex *stopfinder.Index
	if cfg.Transit.GTFSZip != "" {
		stops, err := gtfs.LoadStops(cfg.Transit.GTFSZip)
		if err != nil {
			log.Fatalf("load gtfs stops: %v", err)
		}
		stopIndex = stopfinder.NewIndex(stops, net, cfg.Transit.StopSnapM)
		log.Printf("stop index ready: %d of %d stops snapped", stopIndex.Count(), len(stops))
	}

	model := traveltime.FreeFlow(net, cfg.Fast.BinDurationSec, cfg.Fast.Bins)
	ref := traveltime.NewRef(model)

	opts := streetrouter.Options{
		WalkSpeedMPS: cfg.Routing.WalkSpeedMPS,
		BikeSpeedMPS: cfg.Routing.BikeSpeedMPS,
		BusSpeedMPS:  cfg.Routing.BusSpeedMPS,
		StopLimit:    cfg.Routing.StopLimit,
		MinAccessSec: cfg.Routing.MinAccessSec,
		BoardWaitSec: cfg.Routing.BoardWaitSec,
	}
	complete := streetrouter.New(net, stopIndex, ref.Load, opts)

	var pool *graphpool.Pool
	if cfg.Fast.Mode != "off" {
		pool = graphpool.New(
			streetrouter.NewBinnedBuilder(net, cfg.Routing.WalkSpeedMPS),
			cfg.Fast.GraphDir,
			cfg.Fast.BinDurationSec,
			cfg.Fast.Bins,
			cfg.Fast.Mode == "static",
			time.Duration(cfg.Fast.BuildTimeoutSec)*time.Second,
		)
	}

	var sink stats.Sink = stats.LogSink{}
	if cfg.Stats.PostgresDSN != "" {
		pg, err := stats.NewPGSink(cfg.Stats.PostgresDSN)
		if err != nil {
			log.Fatalf("stats sink: %v", err)
		}
		sink = pg
	}

	counters := &stats.Counters{}
	wrk := worker.New(
		worker.Config{
			ID:             *workerID,
			Slots:          cfg.Worker.Slots,
			SlotReserve:    cfg.Worker.SlotReserve,
			BinDurationSec: cfg.Fast.BinDurationSec,
			Bins:           cfg.Fast.Bins,
			TimeBinned:     cfg.Fast.Mode == "time-binned",
			ReportEvery:    time.Duration(cfg.Worker.ReportEverySec) * time.Second,
		},
		worker.Deps{
			Complete: complete,
			Embodier: complete,
			Pool:     pool,
			Model:    ref,
			Net:      net,
			Counters: counters,
			Sink:     sink,
		},
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	wrk.Start(ctx)

	queue := coordinator.NewQueue(cfg.Worker.QueueCapacity)
	if err := queue.Attach(ctx, wrk); err != nil {
		log.Fatalf("attach worker: %v", err)
	}

	// Publish the bootstrap model; in time-binned and static modes this
	// also builds the fast graph instances.
	if err := wrk.Deliver(ctx, worker.UpdateTravelTimeModel{Model: model}); err != nil {
		log.Fatalf("initial travel-time swap: %v", err)
	}

	if cfg.Traffic.FeedURL != "" {
		poller := traffic.NewPoller(
			cfg.Traffic.FeedURL,
			net,
			cfg.Traffic.SnapM,
			time.Duration(cfg.Traffic.PollIntervalMS)*time.Millisecond,
			func(obs []traveltime.Observation) {
				if err := wrk.Deliver(ctx, worker.UpdateTravelTimeModel{Observations: obs}); err != nil {
					log.Fatalf("travel-time swap from traffic feed: %v", err)
				}
			},
		)
		go poller.Run(ctx)
		log.Printf("traffic poller on %s every %dms", cfg.Traffic.FeedURL, cfg.Traffic.PollIntervalMS)
	}

	startServer(cfg.Server.Port, queue, wrk, ref)
	waitForShutdown()

	cancel()
	wrk.Wait()
	if err := sink.Flush(context.Background(), wrk.ID(), counters.Snapshot()); err != nil {
		log.Printf("final stats flush: %v", err)
	}
	if closer, ok := sink.(io.Closer); ok {
		_ = closer.Close()
	}
	log.Printf("worker %s drained, shutdown complete", wrk.ID())
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
