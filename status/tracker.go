// Package status keeps the latest cycle outcome in memory and serves it over
// HTTP.
package status

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/nstehr/ogbot/agent"
	"github.com/nstehr/ogbot/model"
)

// maxEvents bounds the event backlog kept for /events.
const maxEvents = 50

// PhaseView is a phase result with its error flattened to text.
type PhaseView struct {
	Phase model.PhaseName `json:"phase"`
	Ran   bool            `json:"ran"`
	Acted bool            `json:"acted"`
	Error string          `json:"error,omitempty"`
}

// Snapshot is what /status returns.
type Snapshot struct {
	Cycle     int                `json:"cycle"`
	CycleID   string             `json:"cycleId,omitempty"`
	StartedAt time.Time          `json:"startedAt"`
	Succeeded bool               `json:"succeeded"`
	Error     string             `json:"error,omitempty"`
	Status    model.EmpireStatus `json:"status"`
	Phases    []PhaseView        `json:"phases"`
	Mode      string             `json:"mode"`
	NextDelay string             `json:"nextDelay"`
	NextRunAt time.Time          `json:"nextRunAt"`
	Cycles    int                `json:"cycles"`
	Failures  int                `json:"failures"`
}

// Tracker records outcomes for the status endpoint and derives events from
// consecutive outcomes. It implements the controller's Recorder.
type Tracker struct {
	mu       sync.RWMutex
	last     *model.CycleOutcome
	events   []agent.Event
	cycles   int
	failures int
}

func NewTracker() *Tracker {
	return &Tracker{}
}

func (t *Tracker) Record(ctx context.Context, out model.CycleOutcome) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, ev := range agent.DetectEvents(t.last, out) {
		slog.Info("empire event", "kind", string(ev.Kind), "cycle", ev.Cycle, "phase", string(ev.Phase), "detail", ev.Detail)
		t.events = append(t.events, ev)
	}
	if over := len(t.events) - maxEvents; over > 0 {
		t.events = append([]agent.Event(nil), t.events[over:]...)
	}

	t.cycles++
	if !out.Succeeded {
		t.failures++
	}
	t.last = &out
	return nil
}

// Snapshot returns the latest outcome, or false before the first cycle ends.
func (t *Tracker) Snapshot() (Snapshot, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.last == nil {
		return Snapshot{}, false
	}
	o := t.last
	s := Snapshot{
		Cycle:     o.Number,
		CycleID:   o.ID,
		StartedAt: o.StartedAt,
		Succeeded: o.Succeeded,
		Error:     errText(o.Err),
		Status:    o.Status,
		Mode:      agent.Mode(o.Status, o.Succeeded),
		NextDelay: o.Delay.String(),
		NextRunAt: o.StartedAt.Add(o.Duration).Add(o.Delay),
		Cycles:    t.cycles,
		Failures:  t.failures,
	}
	s.Phases = make([]PhaseView, 0, len(o.Phases))
	for _, p := range o.Phases {
		s.Phases = append(s.Phases, PhaseView{Phase: p.Phase, Ran: p.Ran, Acted: p.Acted, Error: errText(p.Err)})
	}
	return s, true
}

// Events returns the retained events, oldest first.
func (t *Tracker) Events() []agent.Event {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]agent.Event(nil), t.events...)
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
