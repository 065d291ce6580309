package traffic

import (
	"context"
	"log"
	"time"

	"github.com/theoremus-urban-solutions/trip-router/network"
	"github.com/theoremus-urban-solutions/trip-router/traveltime"
)

// Poller polls a VehiclePositions feed on an interval and hands extracted
// observations to the deliver callback.
type Poller struct {
	client   *Client
	url      string
	net      *network.Network
	maxSnapM float64
	interval time.Duration
	deliver  func([]traveltime.Observation)
}

// NewPoller wires a poller. deliver runs on the poller goroutine.
func NewPoller(url string, net *network.Network, maxSnapM float64, interval time.Duration, deliver func([]traveltime.Observation)) *Poller {
	return &Poller{
		client:   NewClient(),
		url:      url,
		net:      net,
		maxSnapM: maxSnapM,
		interval: interval,
		deliver:  deliver,
	}
}

// Run polls until the context is cancelled. Fetch failures are logged and
// retried on the next tick.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fm, err := p.client.FetchFeed(p.url)
			if err != nil {
				log.Printf("traffic poll: %v", err)
				continue
			}
			obs := ExtractObservations(fm, p.net, p.maxSnapM)
			if len(obs) > 0 {
				p.deliver(obs)
			}
		}
	}
}
