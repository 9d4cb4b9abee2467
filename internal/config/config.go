package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/zeusync/bttick/internal/core/bt"
	"github.com/zeusync/bttick/internal/core/observability/log"
)

var (
	ErrInvalidInterval = errors.New("tick interval must be positive")
	ErrInvalidRuns     = errors.New("run count must be positive")
	ErrInvalidWorkers  = errors.New("worker count must not be negative")
	ErrMissingTree     = errors.New("tree path is required")
)

// Config is the host configuration of the tick loop.
type Config struct {
	LogLevel     string        `yaml:"log_level"`
	TickInterval time.Duration `yaml:"tick_interval"`
	Runs         int           `yaml:"runs"`
	// Workers is the number of runner shards. Zero means GOMAXPROCS.
	Workers int `yaml:"workers"`
	// StepLimit caps node visits per tick. Zero or less disables it.
	StepLimit int    `yaml:"step_limit"`
	Tree      string `yaml:"tree"`
	// Facts are written into every run's Blackboard before its first tick,
	// by Document key name.
	Facts map[string]int32 `yaml:"facts"`
}

func Default() Config {
	return Config{
		LogLevel:     "info",
		TickInterval: 100 * time.Millisecond,
		Runs:         1,
		StepLimit:    bt.DefaultStepLimit,
	}
}

// Load reads a YAML config file over the defaults. A relative tree path is
// taken relative to the config file.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("config file %s not found: %w", path, err)
		}
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Tree != "" && !filepath.IsAbs(cfg.Tree) {
		cfg.Tree = filepath.Join(filepath.Dir(path), cfg.Tree)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.TickInterval <= 0 {
		return ErrInvalidInterval
	}
	if c.Runs <= 0 {
		return ErrInvalidRuns
	}
	if c.Workers < 0 {
		return ErrInvalidWorkers
	}
	if c.Tree == "" {
		return ErrMissingTree
	}
	return nil
}

// Level returns the parsed log level, info when it does not parse.
func (c Config) Level() log.Level {
	l, _ := log.ParseLevel(c.LogLevel)
	return l
}
