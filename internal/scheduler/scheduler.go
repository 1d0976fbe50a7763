package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"FactorBench/internal/model"
	"FactorBench/internal/notifier"
)

// ErrBusy is returned when a run is requested while another one is in progress.
var ErrBusy = errors.New("a backtest run is already in progress")

// Job executes one backtest run.
type Job func(ctx context.Context) (*model.RunSummary, error)

// Scheduler runs the backtest job on a cron schedule and on demand.
type Scheduler struct {
	Cron     *cron.Cron
	Job      Job
	Notifier notifier.Sender // nil disables notifications
	Ctx      context.Context

	running atomic.Bool
	mu      sync.Mutex
	last    *model.RunSummary
	lastErr error
	lastAt  time.Time
}

// NewScheduler creates a new Scheduler. Overlapping cron firings are skipped.
func NewScheduler(ctx context.Context, job Job, n notifier.Sender) *Scheduler {
	logger := cron.PrintfLogger(&log.Logger)
	return &Scheduler{
		Cron: cron.New(
			cron.WithSeconds(),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		Job:      job,
		Notifier: n,
		Ctx:      ctx,
	}
}

// Register schedules the backtest job with a six-field cron expression.
func (s *Scheduler) Register(spec string) error {
	if _, err := s.Cron.AddFunc(spec, s.runTask); err != nil {
		return fmt.Errorf("register backtest task: %w", err)
	}
	log.Info().Str("cron", spec).Msg("backtest task registered")
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Info().Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Info().Msg("scheduler stopped")
}

func (s *Scheduler) runTask() {
	if _, err := s.RunNow(); err != nil && !errors.Is(err, ErrBusy) {
		log.Error().Err(err).Msg("scheduled backtest failed")
	}
}

// RunNow executes the job immediately and notifies the outcome.
func (s *Scheduler) RunNow() (*model.RunSummary, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer s.running.Store(false)

	log.Info().Msg("running backtest task")
	summary, err := s.Job(s.Ctx)

	s.mu.Lock()
	s.last, s.lastErr, s.lastAt = summary, err, time.Now()
	s.mu.Unlock()

	if err != nil {
		runID := ""
		if summary != nil {
			runID = summary.RunID
		}
		s.trySend(notifier.FormatFailure(runID, err))
		return summary, err
	}
	s.trySend(notifier.FormatRunSummary(summary))
	return summary, nil
}

// Last returns the most recent run outcome.
func (s *Scheduler) Last() (*model.RunSummary, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last, s.lastAt, s.lastErr
}

// HandleCommand processes a chat command and returns a reply.
func (s *Scheduler) HandleCommand(_ context.Context, command string) string {
	switch command {
	case "/run":
		if s.running.Load() {
			return "⏳ a run is already in progress"
		}
		go s.runTask()
		return "🚀 backtest started"
	case "/status":
		last, at, err := s.Last()
		switch {
		case s.running.Load():
			return "⏳ backtest running"
		case at.IsZero():
			return "no run yet"
		case err != nil:
			return notifier.FormatFailure("", err)
		default:
			return notifier.FormatRunSummary(last)
		}
	case "/factors":
		last, _, _ := s.Last()
		if last == nil || len(last.Latest) == 0 {
			return "no factor weights yet"
		}
		return notifier.FormatFactorWeights(last.Latest)
	default:
		return "Commands:\n• /run start a backtest\n• /status last run summary\n• /factors latest factor weights"
	}
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Error().Err(err).Msg("send notification")
	}
}
