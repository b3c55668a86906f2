package agent

import (
	"context"
	"log/slog"
	"time"

	"github.com/nstehr/ogbot/model"
)

// Inter-cycle delays, most urgent first.
const (
	RetryDelay    = 300 * time.Second
	TurboDelay    = 180 * time.Second
	ActiveDelay   = 300 * time.Second
	BuildingDelay = 420 * time.Second
	WaitingDelay  = 600 * time.Second

	// MaxSleepSlice bounds how long a stop request can go unnoticed.
	MaxSleepSlice = 60 * time.Second
)

// NextDelay picks the wait before the next cycle. The more productive work
// is available, the sooner the next cycle runs. A failed cycle always
// retries after RetryDelay regardless of status.
func NextDelay(status model.EmpireStatus, succeeded bool) time.Duration {
	if !succeeded {
		return RetryDelay
	}
	switch {
	case status.ReadyForColonization:
		return TurboDelay
	case status.ReadyForRaids:
		return ActiveDelay
	case status.ReadyForBuilding:
		return BuildingDelay
	default:
		return WaitingDelay
	}
}

// Mode names the scheduling mode NextDelay chose, for logs and the status page.
func Mode(status model.EmpireStatus, succeeded bool) string {
	if !succeeded {
		return "retry"
	}
	switch {
	case status.ReadyForColonization:
		return "turbo"
	case status.ReadyForRaids:
		return "active"
	case status.ReadyForBuilding:
		return "building"
	default:
		return "waiting"
	}
}

// Sleep waits for d in slices of at most slice, logging the remaining time
// between slices. It returns ctx.Err() as soon as ctx ends.
func Sleep(ctx context.Context, d, slice time.Duration) error {
	if slice <= 0 || slice > MaxSleepSlice {
		slice = MaxSleepSlice
	}
	remaining := d
	for remaining > 0 {
		step := min(slice, remaining)
		t := time.NewTimer(step)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
		remaining -= step
		if remaining > 0 {
			slog.Info("sleeping", "remaining", remaining.Round(time.Second).String())
		}
	}
	return ctx.Err()
}
