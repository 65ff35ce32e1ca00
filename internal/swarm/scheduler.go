package swarm

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"swarmhammer/internal/config"
	"swarmhammer/internal/logger"
)

// GracePeriod is added to the per-generation budget before stalled workers
// are killed.
const GracePeriod = 30 * time.Second

// InitialPrefix names the directory of the unbiased first worker.
const InitialPrefix = "initial"

// Result is the outcome of a campaign.
type Result struct {
	// Failures lists the log path of every worker that exited non-zero.
	Failures []string
	Ledger   *Ledger

	Generations int
	Workers     int
	Killed      int
	Interrupted bool
	Started     time.Time
	Finished    time.Time
}

// ExitStatus is the number of failed workers.
func (r *Result) ExitStatus() int {
	return len(r.Failures)
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithGracePeriod overrides GracePeriod.
func WithGracePeriod(d time.Duration) Option {
	return func(s *Scheduler) { s.grace = d }
}

// WithClock replaces time.Now for the campaign budget.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// Scheduler runs the initial worker and then generations of parallel workers
// until the campaign budget is spent. Only the goroutine calling Run touches
// the ledger and the live worker set.
type Scheduler struct {
	params   *config.RunParameters
	gen      *Generator
	launcher Launcher
	grace    time.Duration
	now      func() time.Time
	logger   *log.Logger
}

// NewScheduler creates a scheduler.
func NewScheduler(params *config.RunParameters, gen *Generator, launcher Launcher, opts ...Option) *Scheduler {
	s := &Scheduler{
		params:   params,
		gen:      gen,
		launcher: launcher,
		grace:    GracePeriod,
		now:      time.Now,
		logger:   logger.NewStyledLogger("Scheduler"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run executes the campaign. The budget is checked between generations only,
// so the last generation may overrun it. Cancelling ctx kills running workers
// and returns what was recorded so far. Errors are returned only for workers
// that could not be launched.
func (s *Scheduler) Run(ctx context.Context) (*Result, error) {
	res := &Result{Ledger: NewLedger(), Started: s.now()}
	defer func() { res.Finished = s.now() }()

	if s.gen.WhitelistRequested() {
		s.logger.Debug("Base config requests whitelist filtering; worker configs are still written with filterBlacklist: true")
	}

	s.logger.Info("Running initial corpus generation")
	if err := s.runInitial(ctx, res); err != nil {
		return res, err
	}

	for generation := 1; s.now().Sub(res.Started) < s.params.Timeout; generation++ {
		if ctx.Err() != nil {
			res.Interrupted = true
			break
		}
		if err := s.runGeneration(ctx, res, generation); err != nil {
			return res, err
		}
		if res.Interrupted {
			break
		}
		res.Generations++
	}

	s.logger.Info("Campaign finished", "generations", res.Generations, "workers", res.Workers, "failed", len(res.Failures))
	return res, nil
}

func (s *Scheduler) runInitial(ctx context.Context, res *Result) error {
	h, err := s.spawn(ctx, filepath.Join(s.params.Name, InitialPrefix), true)
	if err != nil {
		return err
	}
	res.Workers++

	select {
	case <-h.Done():
		_ = h.Close()
		s.observe(res, h)
	case <-ctx.Done():
		s.logger.Warn("Interrupted during initial run", "prefix", h.Prefix)
		res.Killed += s.stop(map[*WorkerHandle]struct{}{h: {}})
		res.Interrupted = true
	}
	return nil
}

func (s *Scheduler) runGeneration(ctx context.Context, res *Result, generation int) error {
	s.logger.Info("Swarm generation", "generation", generation)

	live := make(map[*WorkerHandle]struct{}, s.params.NCores)
	exits := make(chan *WorkerHandle, s.params.NCores)
	for i := 0; i < s.params.NCores; i++ {
		prefix := filepath.Join(s.params.Name, fmt.Sprintf("gen.%d.%d", generation, i))
		h, err := s.spawn(ctx, prefix, false)
		if err != nil {
			res.Killed += s.stop(live)
			return err
		}
		res.Workers++
		live[h] = struct{}{}
		go func() {
			<-h.Done()
			exits <- h
		}()
	}

	deadline := time.NewTimer(s.params.GenTime + s.grace)
	defer deadline.Stop()

	for len(live) > 0 {
		select {
		case h := <-exits:
			delete(live, h)
			_ = h.Close()
			s.observe(res, h)
		case <-deadline.C:
			s.logger.Warn("Generation still running after timeout", "generation", generation, "running", len(live))
			res.Killed += s.stop(live)
			return nil
		case <-ctx.Done():
			s.logger.Warn("Interrupted, stopping generation", "generation", generation, "running", len(live))
			res.Killed += s.stop(live)
			res.Interrupted = true
			return nil
		}
	}
	return nil
}

func (s *Scheduler) spawn(ctx context.Context, prefix string, initial bool) (*WorkerHandle, error) {
	wc := s.gen.Generate(initial)
	if wc.Attempts > 1 {
		s.logger.Info("Degenerate blacklist configuration, generated again", "prefix", prefix, "attempts", wc.Attempts)
	}
	h, err := s.launcher.Launch(ctx, prefix, wc)
	if err != nil {
		return nil, fmt.Errorf("failed to launch %s: %w", prefix, err)
	}
	return h, nil
}

// observe records a worker that exited on its own.
func (s *Scheduler) observe(res *Result, h *WorkerHandle) {
	code := h.ExitCode()
	if code == 0 {
		s.logger.Debug("Worker passed", "prefix", h.Prefix)
		return
	}

	s.logger.Error("Worker FAILED", "prefix", h.Prefix, "exit_code", code)
	failures, err := Scan(h.LogPath)
	if err != nil {
		s.logger.Warn("Could not scan worker log", "prefix", h.Prefix, "error", err)
	}
	for _, line := range failures {
		if res.Ledger.Record(line, h.Prefix) {
			s.logger.Warn("New failure", "failure", line)
		}
	}
	res.Failures = append(res.Failures, h.LogPath)
}

// stop kills every live worker and closes its log without waiting. It returns
// how many were still running.
func (s *Scheduler) stop(live map[*WorkerHandle]struct{}) int {
	killed := 0
	for h := range live {
		_ = h.Close()
		if h.Exited() {
			continue
		}
		if err := h.Kill(); err != nil {
			s.logger.Warn("Failed to kill worker", "prefix", h.Prefix, "error", err)
		}
		killed++
	}
	return killed
}
