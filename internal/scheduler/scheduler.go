package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"releasewatch/internal/logging"
	"releasewatch/internal/pipeline"
	"releasewatch/internal/services"
)

// State is the scheduler's pass state.
type State int32

const (
	Idle State = iota
	Running
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Runner performs one pass.
type Runner interface {
	RunPass(ctx context.Context) (pipeline.Summary, error)
}

// Alerter is told about passes that failed as a whole.
type Alerter interface {
	NotifyPassFailed(ctx context.Context, passID string, err error) error
}

// Options controls scheduling.
type Options struct {
	Interval   time.Duration
	RunOnStart bool
}

// Result describes one finished pass.
type Result struct {
	PassID    string
	StartedAt time.Time
	Summary   pipeline.Summary
	Err       error
}

// Status is a snapshot of scheduler activity.
type Status struct {
	State    State
	Started  bool
	Passes   int64
	Failures int64
	Skipped  int64
	Last     *Result
}

// Scheduler runs passes without overlap.
type Scheduler struct {
	runner  Runner
	alerter Alerter
	opts    Options
	logger  *slog.Logger

	state    atomic.Int32
	passes   atomic.Int64
	failures atomic.Int64
	skipped  atomic.Int64

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	last    *Result
}

// New builds a scheduler. alerter may be nil.
func New(runner Runner, alerter Alerter, opts Options, logger *slog.Logger) *Scheduler {
	if opts.Interval <= 0 {
		opts.Interval = 30 * time.Minute
	}
	return &Scheduler{
		runner:  runner,
		alerter: alerter,
		opts:    opts,
		logger:  logging.NewComponentLogger(logger, "scheduler"),
	}
}

// Start launches the ticker loop, running one pass immediately when
// configured to.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return errors.New("scheduler already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.started = true
	s.wg.Add(1)
	s.mu.Unlock()

	go s.loop(runCtx)
	s.logger.Info("scheduler started",
		logging.Duration("interval", s.opts.Interval),
		logging.Bool("run_on_start", s.opts.RunOnStart),
	)
	return nil
}

// Stop cancels the loop and waits for an in-flight pass to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	cancel := s.cancel
	s.started = false
	s.cancel = nil
	s.mu.Unlock()

	cancel()
	s.wg.Wait()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) loop(ctx context.Context) {
	defer s.wg.Done()

	if s.opts.RunOnStart {
		s.fire(ctx)
	}

	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.fire(ctx)
		}
	}
}

// fire starts a pass without blocking the ticker so that a long pass turns
// later ticks into no-ops instead of queueing them.
func (s *Scheduler) fire(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.Trigger(ctx)
	}()
}

// Trigger runs one pass if none is running. It reports false when the call
// was a no-op because another pass held the Running state.
func (s *Scheduler) Trigger(ctx context.Context) (Result, bool) {
	if !s.state.CompareAndSwap(int32(Idle), int32(Running)) {
		s.skipped.Add(1)
		s.logger.Info("pass skipped; previous pass still running",
			logging.String(logging.FieldEventType, "pass_skipped"),
		)
		return Result{}, false
	}
	defer s.state.Store(int32(Idle))

	result := s.run(ctx)
	s.passes.Add(1)
	if result.Err != nil {
		s.failures.Add(1)
	}
	s.mu.Lock()
	copied := result
	s.last = &copied
	s.mu.Unlock()
	return result, true
}

func (s *Scheduler) run(ctx context.Context) (result Result) {
	result.PassID = uuid.NewString()
	result.StartedAt = time.Now()
	ctx = services.WithPassID(ctx, result.PassID)
	logger := logging.WithContext(ctx, s.logger)

	defer func() {
		if r := recover(); r != nil {
			result.Err = fmt.Errorf("pass panicked: %v", r)
			logger.Error("pass panicked",
				logging.String(logging.FieldEventType, "pass_panic"),
				logging.Any("panic", r),
				logging.String("stack", string(debug.Stack())),
			)
			s.alert(ctx, logger, result)
		}
	}()

	logger.Info("pass started")
	summary, err := s.runner.RunPass(ctx)
	result.Summary = summary
	result.Err = err
	if err == nil {
		return result
	}
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		logger.Info("pass interrupted by shutdown")
		return result
	}
	kind := services.Classify(err)
	logging.ErrorWithContext(logger, "pass failed", "pass_failed",
		logging.Error(err),
		logging.String(logging.FieldErrorKind, string(kind)),
		logging.String(logging.FieldErrorHint, services.Hint(kind)),
	)
	s.alert(ctx, logger, result)
	return result
}

func (s *Scheduler) alert(ctx context.Context, logger *slog.Logger, result Result) {
	if s.alerter == nil {
		return
	}
	if err := s.alerter.NotifyPassFailed(context.WithoutCancel(ctx), result.PassID, result.Err); err != nil {
		logging.WarnWithContext(logger, "pass failure alert not sent", "alert_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
			logging.String(logging.FieldImpact, "operator not notified of failed pass"),
		)
	}
}

// State returns the current pass state.
func (s *Scheduler) State() State {
	return State(s.state.Load())
}

// Status returns a snapshot of scheduler activity.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	status := Status{
		State:    s.State(),
		Started:  s.started,
		Passes:   s.passes.Load(),
		Failures: s.failures.Load(),
		Skipped:  s.skipped.Load(),
	}
	if s.last != nil {
		copied := *s.last
		status.Last = &copied
	}
	return status
}
