// Package traffic turns a GTFS-Realtime VehiclePositions feed into link
// speed observations. Vehicles reporting a speed are snapped to the nearest
// network link; the worker folds the observations into its travel-time
// model exactly like simulation-produced ones.
package traffic

import (
	"fmt"
	"io"
	"net/http"

	gtfsrtpb "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"google.golang.org/protobuf/proto"
)

// Client fetches GTFS-RT protobuf feeds over plain HTTP.
type Client struct {
	httpClient *http.Client
}

// NewClient creates a feed client.
func NewClient() *Client {
	return &Client{httpClient: &http.Client{}}
}

// FetchFeed downloads and decodes one feed. Returns nil for an empty URL
// so callers can leave the feed unconfigured.
func (c *Client) FetchFeed(url string) (*gtfsrtpb.FeedMessage, error) {
	if url == "" {
		return nil, nil
	}
	resp, err := c.httpClient.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d from %s", resp.StatusCode, url)
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read feed body: %w", err)
	}
	var fm gtfsrtpb.FeedMessage
	if err := proto.Unmarshal(b, &fm); err != nil {
		return nil, fmt.Errorf("decode feed: %w", err)
	}
	return &fm, nil
}
