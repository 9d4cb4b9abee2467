package injector

import (
	"fmt"
	"os"

	"github.com/google/wire"

	"github.com/zeusync/bttick/internal/config"
	"github.com/zeusync/bttick/internal/core/bt"
	"github.com/zeusync/bttick/internal/core/observability/log"
	"github.com/zeusync/bttick/internal/core/runner"
)

// ConfigPath is the location of the host config file.
type ConfigPath string

// App is everything the host loop needs.
type App struct {
	Config   config.Config
	Log      *log.Logger
	Document *bt.Document
	Tree     *bt.Tree
	Manager  *runner.Manager
}

var ProviderSet = wire.NewSet(
	ProvideConfig,
	ProvideLogger,
	ProvideRegistry,
	ProvideDocument,
	ProvideTree,
	ProvideManager,
	wire.Struct(new(App), "*"),
)

func ProvideConfig(path ConfigPath) (config.Config, error) {
	cfg, err := config.Load(string(path))
	if err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func ProvideLogger(cfg config.Config) *log.Logger {
	return log.New(cfg.Level())
}

func ProvideRegistry() *bt.Registry {
	r := bt.NewRegistry()
	bt.RegisterBuiltins(r)
	return r
}

func ProvideDocument(cfg config.Config) (*bt.Document, error) {
	f, err := os.Open(cfg.Tree)
	if err != nil {
		return nil, fmt.Errorf("open tree: %w", err)
	}
	defer f.Close()
	return bt.LoadYAML(f)
}

func ProvideTree(doc *bt.Document, reg *bt.Registry) (*bt.Tree, error) {
	tree, err := doc.Build(reg)
	if err != nil {
		return nil, fmt.Errorf("build tree: %w", err)
	}
	return tree, nil
}

func ProvideManager(cfg config.Config, logger *log.Logger) *runner.Manager {
	return runner.NewManager(
		runner.WithLogger(logger),
		runner.WithWorkers(cfg.Workers),
		runner.WithInterval(cfg.TickInterval),
		runner.WithRunOptions(bt.WithStepLimit(cfg.StepLimit)),
	)
}
