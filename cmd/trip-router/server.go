package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/theoremus-urban-solutions/trip-router/coordinator"
	"github.com/theoremus-urban-solutions/trip-router/routing"
	"github.com/theoremus-urban-solutions/trip-router/traveltime"
	"github.com/theoremus-urban-solutions/trip-router/worker"
)

const routeTimeout = 30 * time.Second

var (
	server     *http.Server
	requestIDs atomic.Int64
)

func startServer(port int, q *coordinator.Queue, w *worker.Worker, model *traveltime.Ref) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", handleHealth(q, w, model))
	mux.HandleFunc("/route", handleRoute(q))

	addr := fmt.Sprintf(":%d", port)
	server = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()
	log.Printf("server listening on %s", addr)
}

func handleRoute(q *coordinator.Queue) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "POST only", http.StatusMethodNotAllowed)
			return
		}
		var req routing.Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, fmt.Sprintf("bad request: %v", err), http.StatusBadRequest)
			return
		}
		if req.ID == 0 {
			req.ID = requestIDs.Add(1)
		}

		ctx, cancel := context.WithTimeout(r.Context(), routeTimeout)
		defer cancel()
		resp, err := q.Submit(ctx, req)
		if err != nil {
			writeSubmitError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func writeSubmitError(w http.ResponseWriter, err error) {
	var failed *coordinator.RequestFailed
	switch {
	case errors.Is(err, coordinator.ErrQueueFull):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	case errors.Is(err, coordinator.ErrDuplicateRequest):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, context.DeadlineExceeded):
		http.Error(w, "routing timed out", http.StatusGatewayTimeout)
	case errors.As(err, &failed):
		http.Error(w, failed.Error(), http.StatusBadGateway)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

type healthResponse struct {
	Status       string `json:"status"`
	ModelVersion int64  `json:"model_version"`
	Backlog      int    `json:"backlog"`
	InFlight     int    `json:"in_flight"`
}

func handleHealth(q *coordinator.Queue, wrk *worker.Worker, model *traveltime.Ref) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		resp := healthResponse{
			Status:       "ok",
			ModelVersion: model.Load().Version,
			Backlog:      q.Backlog(),
			InFlight:     q.InFlight(),
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}

// waitForShutdown blocks until SIGINT or SIGTERM, then stops the HTTP
// server so no new work is accepted while the worker drains.
func waitForShutdown() {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	log.Printf("shutdown signal received")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if server != nil {
		if err := server.Shutdown(ctx); err != nil {
			log.Printf("server shutdown error: %v", err)
		} else {
			log.Printf("server shut down successfully")
		}
	}
}
