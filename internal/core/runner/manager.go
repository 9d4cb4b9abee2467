package runner

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/errgroup"

	"github.com/zeusync/bttick/internal/core/bt"
	"github.com/zeusync/bttick/internal/core/observability/log"
)

// Snapshot is the result of ticking one Run.
type Snapshot struct {
	ID     string
	Status bt.Status
	Cursor string
	Err    error
}

type Option func(*Manager)

// WithWorkers sets the number of shards ticked in parallel.
func WithWorkers(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.workers = n
		}
	}
}

func WithLogger(l log.Log) Option {
	return func(m *Manager) { m.log = l }
}

// WithInterval sets the period of the loop started by Start.
func WithInterval(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.interval = d
		}
	}
}

// WithRunOptions adds options applied to every Run made by Create.
func WithRunOptions(opts ...bt.RunOption) Option {
	return func(m *Manager) { m.runOpts = append(m.runOpts, opts...) }
}

// WithObserver registers fn to receive the snapshots of every tick driven
// by Start.
func WithObserver(fn func([]Snapshot)) Option {
	return func(m *Manager) { m.observer = fn }
}

type shard struct {
	mu   sync.Mutex
	runs map[string]*bt.Run
}

// Manager drives many Runs, possibly over shared Trees. Runs are spread over
// shards by id and the shards are ticked in parallel; the Runs of one shard
// are ticked one after another, so a Run is never ticked concurrently.
type Manager struct {
	shards []*shard

	log      log.Log
	workers  int
	interval time.Duration
	runOpts  []bt.RunOption
	observer func([]Snapshot)

	mu        sync.Mutex
	isRunning bool
	stopChan  chan struct{}
	done      chan struct{}
}

func NewManager(opts ...Option) *Manager {
	m := &Manager{
		workers:  runtime.GOMAXPROCS(0),
		interval: 50 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.log == nil {
		m.log = log.Provide()
	}
	m.log = m.log.With(log.String("component", "runner"))

	m.shards = make([]*shard, m.workers)
	for i := range m.shards {
		m.shards[i] = &shard{runs: make(map[string]*bt.Run)}
	}
	return m
}

// Workers returns the number of shards.
func (m *Manager) Workers() int { return len(m.shards) }

// ShardOf returns the shard index a Run id maps to.
func (m *Manager) ShardOf(id string) int {
	return int(xxhash.Sum64String(id) % uint64(len(m.shards)))
}

func (m *Manager) shardOf(id string) *shard {
	return m.shards[m.ShardOf(id)]
}

// Create starts a new Run over tree and registers it.
func (m *Manager) Create(tree *bt.Tree, opts ...bt.RunOption) (*bt.Run, error) {
	all := make([]bt.RunOption, 0, len(m.runOpts)+len(opts)+1)
	all = append(all, bt.WithLogger(m.log))
	all = append(all, m.runOpts...)
	all = append(all, opts...)

	run := bt.NewRun(tree, all...)
	if err := m.Add(run); err != nil {
		return nil, err
	}
	return run, nil
}

// Add registers an existing Run under its id.
func (m *Manager) Add(run *bt.Run) error {
	if run == nil {
		return ErrNilRun
	}
	s := m.shardOf(run.ID())
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.runs[run.ID()]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateRun, run.ID())
	}
	s.runs[run.ID()] = run
	m.log.Debug("run added",
		log.String("run", run.ID()),
		log.Int("shard", m.ShardOf(run.ID())),
		log.Int("nodes", run.Tree().Len()),
	)
	return nil
}

func (m *Manager) Get(id string) (*bt.Run, bool) {
	s := m.shardOf(id)
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.runs[id]
	return run, ok
}

// Remove unregisters a Run. It waits for a tick of the Run in progress.
func (m *Manager) Remove(id string) bool {
	s := m.shardOf(id)
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.runs[id]; !exists {
		return false
	}
	delete(s.runs, id)
	m.log.Debug("run removed", log.String("run", id))
	return true
}

// Len returns the number of registered Runs.
func (m *Manager) Len() int {
	n := 0
	for _, s := range m.shards {
		s.mu.Lock()
		n += len(s.runs)
		s.mu.Unlock()
	}
	return n
}

// IDs returns the registered Run ids, sorted.
func (m *Manager) IDs() []string {
	var ids []string
	for _, s := range m.shards {
		s.mu.Lock()
		for id := range s.runs {
			ids = append(ids, id)
		}
		s.mu.Unlock()
	}
	sort.Strings(ids)
	return ids
}

// Reset rewinds one Run, serialized with its ticks.
func (m *Manager) Reset(id string) error {
	s := m.shardOf(id)
	s.mu.Lock()
	defer s.mu.Unlock()

	run, ok := s.runs[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownRun, id)
	}
	run.Reset()
	return nil
}

// TickAll ticks every registered Run once and returns their snapshots sorted
// by id. A failing Run is reported in its snapshot and does not stop the
// others; the returned error is only set when ctx ends the tick early.
func (m *Manager) TickAll(ctx context.Context) ([]Snapshot, error) {
	results := make([][]Snapshot, len(m.shards))
	g, gctx := errgroup.WithContext(ctx)

	for i, s := range m.shards {
		g.Go(func() error {
			s.mu.Lock()
			defer s.mu.Unlock()

			out := make([]Snapshot, 0, len(s.runs))
			for id, run := range s.runs {
				if err := gctx.Err(); err != nil {
					return err
				}
				st, err := run.Tick(gctx)
				if err != nil {
					m.log.Error("tick failed", log.String("run", id), log.Error(err))
				}
				out = append(out, Snapshot{
					ID:     id,
					Status: st,
					Cursor: run.Tree().Name(run.Cursor()),
					Err:    err,
				})
			}
			results[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []Snapshot
	for _, out := range results {
		all = append(all, out...)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return all, nil
}

// Start ticks all Runs every interval until ctx is done or Stop is called.
func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	if m.isRunning {
		m.mu.Unlock()
		return
	}
	m.isRunning = true
	m.stopChan = make(chan struct{})
	m.done = make(chan struct{})
	stop, done, observer := m.stopChan, m.done, m.observer
	m.mu.Unlock()

	m.log.Info("tick loop started",
		log.Duration("interval", m.interval),
		log.Int("workers", len(m.shards)),
	)
	go m.tickLoop(ctx, stop, done, observer)
}

// Running reports whether the loop started by Start is active.
func (m *Manager) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.isRunning
}

// SetObserver replaces the observer; it takes effect on the next Start.
func (m *Manager) SetObserver(fn func([]Snapshot)) {
	m.mu.Lock()
	m.observer = fn
	m.mu.Unlock()
}

// Stop ends the loop started by Start and waits for the tick in progress.
func (m *Manager) Stop() {
	m.mu.Lock()
	done := m.done
	if m.isRunning {
		m.isRunning = false
		close(m.stopChan)
	}
	m.mu.Unlock()

	if done == nil {
		return
	}
	<-done
	m.log.Info("tick loop stopped")
}

func (m *Manager) tickLoop(ctx context.Context, stop <-chan struct{}, done chan<- struct{}, observer func([]Snapshot)) {
	defer close(done)
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.mu.Lock()
			if m.stopChan == stop {
				m.isRunning = false
			}
			m.mu.Unlock()
			m.log.Info("tick loop ended", log.Error(ctx.Err()))
			return
		case <-stop:
			return
		case <-ticker.C:
			snaps, err := m.TickAll(ctx)
			if err != nil {
				m.log.Warn("tick interrupted", log.Error(err))
				continue
			}
			if observer != nil {
				observer(snaps)
			}
		}
	}
}
