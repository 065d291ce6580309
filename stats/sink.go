package stats

import (
	"context"
	"log"
)

// Sink receives counter snapshots at swap and shutdown time. Flush errors
// are logged by the caller and never fail the swap.
type Sink interface {
	Flush(ctx context.Context, workerID string, s Snapshot) error
}

// LogSink writes snapshots to the process log. The default sink.
type LogSink struct{}

func (LogSink) Flush(_ context.Context, workerID string, s Snapshot) error {
	log.Printf("worker %s stats: %s", workerID, s)
	return nil
}
