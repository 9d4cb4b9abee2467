package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/zeusync/bttick/internal/core/bt"
	"github.com/zeusync/bttick/internal/core/observability/log"
	"github.com/zeusync/bttick/internal/core/runner"
	"github.com/zeusync/bttick/internal/injector"
)

func main() {
	path := flag.String("config", "configs/bttick.yaml", "path to the config file")
	flag.Parse()

	app, err := injector.InitializeApp(injector.ConfigPath(*path))
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error starting bttick:", err)
		os.Exit(1)
	}

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, os.Interrupt, syscall.SIGTERM)

	err = serve(app, stopCh)
	_ = app.Log.Sync()
	if err != nil {
		os.Exit(1)
	}
}

// serve ticks the configured runs until stop delivers a signal.
func serve(app *injector.App, stop <-chan os.Signal) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := createRuns(app); err != nil {
		app.Log.Error("bttick failed to start", log.Error(err))
		return err
	}

	app.Log.Info("bttick started",
		log.String("tree", app.Config.Tree),
		log.Int("nodes", app.Tree.Len()),
		log.Int("runs", app.Manager.Len()),
	)

	app.Manager.SetObserver(summarize(app.Log))
	app.Manager.Start(ctx)

	<-stop
	cancel()
	app.Manager.Stop()
	app.Log.Info("bttick stopped")
	return nil
}

// createRuns registers the configured number of runs, each seeded with the
// configured facts.
func createRuns(app *injector.App) error {
	for i := 0; i < app.Config.Runs; i++ {
		run, err := app.Manager.Create(app.Tree)
		if err != nil {
			return fmt.Errorf("create run: %w", err)
		}
		if err := seed(run.Blackboard(), app.Document, app.Config.Facts); err != nil {
			return fmt.Errorf("seed facts: %w", err)
		}
	}
	return nil
}

// seed writes the configured facts into a fresh Blackboard.
func seed(bb *bt.Blackboard, doc *bt.Document, facts map[string]int32) error {
	for name, v := range facts {
		k, err := doc.Key(name)
		if err != nil {
			return err
		}
		bb.SetInt(k, v)
	}
	return nil
}

// summarize logs the status counts of one tick.
func summarize(l log.Log) func([]runner.Snapshot) {
	return func(snaps []runner.Snapshot) {
		counts := make(map[bt.Status]int, 3)
		for _, s := range snaps {
			counts[s.Status]++
		}
		l.Debug("tick",
			log.Int("running", counts[bt.StatusRunning]),
			log.Int("success", counts[bt.StatusSuccess]),
			log.Int("failure", counts[bt.StatusFailure]),
		)
	}
}
