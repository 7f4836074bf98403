package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/fleetscope/core/metrics"
)

type Config struct {
	Streams StreamsConfig  `json:"streams"`
	Ingest  IngestConfig   `json:"ingest"`
	Report  ReportConfig   `json:"report"`
	Metrics metrics.Config `json:"metrics"`
}

// StreamsConfig locates the four telemetry exports. Battery and charging
// streams are optional: not every scenario instruments batteries or
// deploys stations.
type StreamsConfig struct {
	FCD      string `json:"fcd"`
	Battery  string `json:"battery"`
	TripInfo string `json:"tripinfo"`
	Charging string `json:"charging"`
}

// Validate checks mandatory fields.
func (c StreamsConfig) Validate() error {
	if c.FCD == "" {
		return fmt.Errorf("streams.fcd is required")
	}
	if c.TripInfo == "" {
		return fmt.Errorf("streams.tripinfo is required")
	}
	return nil
}

// IngestConfig tunes stream reading.
type IngestConfig struct {
	// MalformedThreshold fails a stream once more malformed records
	// than this have been skipped. Negative disables the limit.
	MalformedThreshold int64 `json:"malformed_threshold"`
	// BufferSize enables prefetching readers when positive.
	BufferSize int `json:"buffer_size"`
}

// SetDefaults applies sane defaults.
func (c *IngestConfig) SetDefaults() {
	if c.MalformedThreshold == 0 {
		c.MalformedThreshold = 100
	}
}

// ReportConfig selects the report destination and format.
type ReportConfig struct {
	// Destination is a file path, or "-" for stdout.
	Destination string `json:"destination"`
	Format      string `json:"format"`
}

// SetDefaults applies sane defaults.
func (c *ReportConfig) SetDefaults() {
	if c.Destination == "" {
		c.Destination = "-"
	}
	if c.Format == "" {
		c.Format = "text"
	}
}

// Validate checks the format is supported.
func (c ReportConfig) Validate() error {
	switch c.Format {
	case "json", "csv", "text":
		return nil
	default:
		return fmt.Errorf("unknown report format %s", c.Format)
	}
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("FS_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "fs_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.Ingest.SetDefaults()
	cfg.Report.SetDefaults()
	if err := cfg.Streams.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Report.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
