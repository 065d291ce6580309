package config

// ServerConfig contains the HTTP server configuration
type ServerConfig struct {
	Port int `yaml:"port" validate:"omitempty,gt=0"`
}

// NetworkConfig points at the road network CSV files
type NetworkConfig struct {
	NodesCSV string `yaml:"nodesCSV" validate:"required"`
	LinksCSV string `yaml:"linksCSV" validate:"required"`
}

// TransitConfig contains the optional GTFS stop data used for transit
// itineraries. Without a zip the router serves street modes only.
type TransitConfig struct {
	GTFSZip   string  `yaml:"gtfsZip"`
	StopSnapM float64 `yaml:"stopSnapM" validate:"gte=0"`
}

// FastEngineConfig controls the per-time-bin fast engines.
// Mode off disables them, static builds a single instance once,
// time-binned rebuilds one instance per bin on every travel-time update.
type FastEngineConfig struct {
	Mode            string `yaml:"mode" validate:"omitempty,oneof=off static time-binned"`
	BinDurationSec  int    `yaml:"binDurationSec" validate:"gte=0"`
	Bins            int    `yaml:"bins" validate:"gte=0"`
	GraphDir        string `yaml:"graphDir"`
	BuildTimeoutSec int    `yaml:"buildTimeoutSec" validate:"gte=0"`
}

// RoutingConfig tunes the engines. Zero values use the engine defaults.
type RoutingConfig struct {
	WalkSpeedMPS float64 `yaml:"walkSpeedMPS" validate:"gte=0"`
	BikeSpeedMPS float64 `yaml:"bikeSpeedMPS" validate:"gte=0"`
	BusSpeedMPS  float64 `yaml:"busSpeedMPS" validate:"gte=0"`
	StopLimit    int     `yaml:"stopLimit" validate:"gte=0"`
	MinAccessSec int     `yaml:"minAccessSec" validate:"gte=0"`
	BoardWaitSec int     `yaml:"boardWaitSec" validate:"gte=0"`
}

// WorkerConfig sizes the execution slots and the work queue
type WorkerConfig struct {
	Slots          int `yaml:"slots" validate:"gte=0"`
	SlotReserve    int `yaml:"slotReserve" validate:"gte=0"`
	ReportEverySec int `yaml:"reportEverySec" validate:"gte=0"`
	QueueCapacity  int `yaml:"queueCapacity" validate:"gte=0"`
}

// TrafficConfig contains the optional GTFS-Realtime vehicle position feed
// that is turned into live travel-time observations
type TrafficConfig struct {
	FeedURL        string  `yaml:"feedURL" validate:"omitempty,url"`
	PollIntervalMS int     `yaml:"pollIntervalMS" validate:"gte=0"`
	SnapM          float64 `yaml:"snapM" validate:"gte=0"`
}

// StatsConfig contains the optional stats sink. With a DSN the counter
// snapshots are upserted into Postgres, otherwise they are only logged.
type StatsConfig struct {
	PostgresDSN string `yaml:"postgresDSN"`
}

// AppConfig is the root configuration structure
type AppConfig struct {
	Server  ServerConfig     `yaml:"server"`
	Network NetworkConfig    `yaml:"network" validate:"required"`
	Transit TransitConfig    `yaml:"transit"`
	Fast    FastEngineConfig `yaml:"fastEngine"`
	Routing RoutingConfig    `yaml:"routing"`
	Worker  WorkerConfig     `yaml:"worker"`
	Traffic TrafficConfig    `yaml:"traffic"`
	Stats   StatsConfig      `yaml:"stats"`
}
