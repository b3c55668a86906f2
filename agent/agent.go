package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/nstehr/ogbot/model"
)

// Locator confirms the game is reachable at the start of a cycle.
type Locator interface {
	Locate(ctx context.Context) (bool, error)
}

// Observer reads the empire's state from the game.
type Observer interface {
	Resources(ctx context.Context) (model.ResourceSnapshot, error)
	Colonies(ctx context.Context) (int, error)
}

// Phase is one independent action subsystem. Run gets the status observed
// at the start of the cycle and reports whether an in-game action was
// taken; "nothing to do" is (false, nil), not an error.
type Phase interface {
	Name() model.PhaseName
	Run(ctx context.Context, status model.EmpireStatus) (bool, error)
}

// Recorder receives every finished cycle. Errors are logged and ignored.
type Recorder interface {
	Record(ctx context.Context, out model.CycleOutcome) error
}

// Options tune the controller loop. Zero values take the defaults.
type Options struct {
	// SleepSlice is the longest uninterrupted wait between stop checks.
	SleepSlice time.Duration
	// RetryJitter adds up to this much random time to the wait after a
	// failed cycle so retries don't land on a fixed beat.
	RetryJitter time.Duration
}

// Controller owns the observe-then-act cycle for a single game session.
// It runs one cycle at a time from a single goroutine.
type Controller struct {
	Locator   Locator
	Observer  Observer
	Phases    []Phase
	Recorders []Recorder

	opts  Options
	cycle int
	now   func() time.Time
}

func New(locator Locator, observer Observer, phases []Phase, opts Options) *Controller {
	return &Controller{
		Locator:  locator,
		Observer: observer,
		Phases:   phases,
		opts:     opts,
		now:      time.Now,
	}
}

// AddRecorder registers r to receive every cycle outcome.
func (c *Controller) AddRecorder(r Recorder) {
	c.Recorders = append(c.Recorders, r)
}

// Run loops cycle → record → sleep until ctx is cancelled. An in-flight
// cycle is never interrupted; the stop is honored at the next checkpoint.
// It returns nil on a graceful stop.
func (c *Controller) Run(ctx context.Context) error {
	slog.Info("starting automation loop", "phases", len(c.Phases))
	for {
		if ctx.Err() != nil {
			slog.Info("automation loop stopped", "cycles", c.cycle)
			return nil
		}

		out := c.RunCycle(ctx)
		c.record(ctx, out)

		wait := out.Delay
		if !out.Succeeded {
			wait += c.jitter()
			slog.Warn("cycle failed, retrying", "cycle", out.Number, "in", wait.Round(time.Second).String(), "error", out.Err)
		} else {
			slog.Info("next cycle scheduled",
				"cycle", out.Number,
				"mode", Mode(out.Status, true),
				"in", wait.String(),
			)
		}

		if err := Sleep(ctx, wait, c.opts.SleepSlice); err != nil {
			slog.Info("automation loop stopped", "cycles", c.cycle)
			return nil
		}
	}
}

// RunCycle performs one locate → observe → build → raid → colonize pass.
// The cycle fails only when locate or observe fails; phase failures are
// contained and recorded in the outcome.
func (c *Controller) RunCycle(ctx context.Context) (out model.CycleOutcome) {
	c.cycle++
	out = model.CycleOutcome{
		ID:        uuid.NewString(),
		Number:    c.cycle,
		StartedAt: c.now(),
	}
	logger := slog.With("cycle", out.Number)
	logger.Info("cycle started", "id", out.ID)

	defer func() {
		out.Delay = NextDelay(out.Status, out.Succeeded)
		out.Duration = c.now().Sub(out.StartedAt)
	}()

	// The stop signal is only observed between cycles.
	ctx = context.WithoutCancel(ctx)

	found, err := c.Locator.Locate(ctx)
	if err != nil {
		out.Err = fmt.Errorf("%w: %w", ErrUnreachable, err)
		logger.Warn("lost game connection", "error", err)
		return out
	}
	if !found {
		out.Err = fmt.Errorf("%w: no game tab", ErrUnreachable)
		logger.Warn("lost game connection")
		return out
	}

	status, err := c.observe(ctx)
	if err != nil {
		out.Err = err
		logger.Error("could not read empire status", "error", err)
		return out
	}
	out.Status = status
	logStatus(logger, status)

	for _, p := range c.Phases {
		out.Phases = append(out.Phases, c.runPhase(ctx, logger, p, status))
	}

	out.Succeeded = true
	logger.Info("cycle complete", "phasesRun", countRan(out.Phases), "actions", countActed(out.Phases))
	return out
}

func (c *Controller) observe(ctx context.Context) (model.EmpireStatus, error) {
	res, err := c.Observer.Resources(ctx)
	if err != nil {
		return model.EmpireStatus{}, wrapObservation("resources", err)
	}
	colonies, err := c.Observer.Colonies(ctx)
	if err != nil {
		return model.EmpireStatus{}, wrapObservation("colonies", err)
	}
	return model.ComputeStatus(res, colonies), nil
}

func wrapObservation(what string, err error) error {
	if errors.Is(err, ErrObservation) {
		return fmt.Errorf("%s: %w", what, err)
	}
	return fmt.Errorf("%w: %s: %w", ErrObservation, what, err)
}

func (c *Controller) runPhase(ctx context.Context, logger *slog.Logger, p Phase, status model.EmpireStatus) (res model.PhaseResult) {
	res.Phase = p.Name()
	if !status.Ready(res.Phase) {
		logSkipped(logger, res.Phase, status)
		return res
	}

	res.Ran = true
	logger.Info("phase started", "phase", res.Phase)

	defer func() {
		if r := recover(); r != nil {
			res.Acted = false
			res.Err = &PhaseError{Phase: res.Phase, Err: fmt.Errorf("panic: %v", r)}
			logger.Error("phase panicked", "phase", res.Phase, "error", res.Err)
		}
	}()

	acted, err := p.Run(ctx, status)
	if err != nil {
		res.Err = &PhaseError{Phase: res.Phase, Err: err}
		logger.Error("phase failed", "phase", res.Phase, "error", err)
		return res
	}
	res.Acted = acted
	if acted {
		logger.Info("phase took action", "phase", res.Phase)
	} else {
		logger.Info("phase found nothing to do", "phase", res.Phase)
	}
	return res
}

func (c *Controller) record(ctx context.Context, out model.CycleOutcome) {
	// A cycle that finished during shutdown is still written out.
	ctx = context.WithoutCancel(ctx)
	for _, r := range c.Recorders {
		if err := r.Record(ctx, out); err != nil {
			slog.Warn("failed to record cycle", "cycle", out.Number, "error", err)
		}
	}
}

func (c *Controller) jitter() time.Duration {
	if c.opts.RetryJitter <= 0 {
		return 0
	}
	return time.Duration(rand.Int63n(int64(c.opts.RetryJitter)))
}

func logStatus(logger *slog.Logger, s model.EmpireStatus) {
	logger.Info("empire status",
		"metal", s.Resources.Metal,
		"crystal", s.Resources.Crystal,
		"deuterium", s.Resources.Deuterium,
		"energy", s.Resources.Energy,
		"total", s.TotalResources,
		"colonies", s.Colonies,
		"buildReady", s.ReadyForBuilding,
		"raidReady", s.ReadyForRaids,
		"colonizeReady", s.ReadyForColonization,
	)
}

func logSkipped(logger *slog.Logger, p model.PhaseName, s model.EmpireStatus) {
	switch p {
	case model.PhaseColonize:
		need := s.Shortfall()
		logger.Info("saving for colonization",
			"needMetal", need.Metal,
			"needCrystal", need.Crystal,
			"needDeuterium", need.Deuterium,
		)
	case model.PhaseRaid:
		logger.Info("not enough resources for raiding yet")
	default:
		logger.Info("phase skipped", "phase", p)
	}
}

func countRan(rs []model.PhaseResult) int {
	n := 0
	for _, r := range rs {
		if r.Ran {
			n++
		}
	}
	return n
}

func countActed(rs []model.PhaseResult) int {
	n := 0
	for _, r := range rs {
		if r.Acted {
			n++
		}
	}
	return n
}
