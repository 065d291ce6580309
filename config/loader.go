package config

import (
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config is the global application configuration
var Config AppConfig

// Load reads and validates the application configuration. Without explicit
// paths it tries config.yml and config.yaml in the working directory.
func Load(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{"config.yml", "config.yaml"}
	}
	var data []byte
	var err error
	for _, p := range paths {
		data, err = os.ReadFile(p)
		if err == nil {
			break
		}
	}
	if err != nil {
		return err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return err
	}
	v := validator.New()
	if err := v.Struct(cfg); err != nil {
		return err
	}
	Config = cfg
	applyDefaults(&Config)
	return nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8090
	}
	if cfg.Fast.Mode == "" {
		cfg.Fast.Mode = "time-binned"
	}
	if cfg.Fast.BinDurationSec == 0 {
		cfg.Fast.BinDurationSec = 3600
	}
	if cfg.Fast.Bins == 0 {
		cfg.Fast.Bins = 30
	}
	if cfg.Fast.GraphDir == "" {
		cfg.Fast.GraphDir = "./graph-cache"
	}
	if cfg.Fast.BuildTimeoutSec == 0 {
		cfg.Fast.BuildTimeoutSec = 1200
	}
	if cfg.Transit.StopSnapM == 0 {
		cfg.Transit.StopSnapM = 500
	}
	if cfg.Worker.SlotReserve == 0 {
		cfg.Worker.SlotReserve = 1
	}
	if cfg.Worker.ReportEverySec == 0 {
		cfg.Worker.ReportEverySec = 10
	}
	if cfg.Worker.QueueCapacity == 0 {
		cfg.Worker.QueueCapacity = 1024
	}
	if cfg.Traffic.PollIntervalMS == 0 {
		cfg.Traffic.PollIntervalMS = 30000
	}
	if cfg.Traffic.SnapM == 0 {
		cfg.Traffic.SnapM = 50
	}
}
