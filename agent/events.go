package agent

import (
	"fmt"

	"github.com/nstehr/ogbot/model"
)

// EventKind identifies a notable change between two consecutive cycles.
type EventKind string

const (
	EventColonyFounded    EventKind = "colony_founded"
	EventColonyLost       EventKind = "colony_lost"
	EventReadinessGained  EventKind = "readiness_gained"
	EventReadinessLost    EventKind = "readiness_lost"
	EventResourcesDropped EventKind = "resources_dropped"
	EventCycleFailed      EventKind = "cycle_failed"
	EventCycleRecovered   EventKind = "cycle_recovered"
)

// Event is a significant change detected by diffing consecutive outcomes.
// Events are reporting only; no cycle decision depends on them.
type Event struct {
	Kind   EventKind       `json:"kind"`
	Cycle  int             `json:"cycle"`
	Phase  model.PhaseName `json:"phase,omitempty"`
	Detail string          `json:"detail"`
}

// dropThreshold is the share of stock that must vanish between two cycles
// without our own phases acting before it is reported as a loss.
const dropThreshold = 0.25

// DetectEvents compares cur against the previous outcome. A nil prev yields
// no events. Failed cycles carry no status, so status diffs are only taken
// between two successful cycles.
func DetectEvents(prev *model.CycleOutcome, cur model.CycleOutcome) []Event {
	if prev == nil {
		return nil
	}
	var events []Event

	switch {
	case prev.Succeeded && !cur.Succeeded:
		events = append(events, Event{Kind: EventCycleFailed, Cycle: cur.Number, Detail: errDetail(cur.Err)})
	case !prev.Succeeded && cur.Succeeded:
		events = append(events, Event{Kind: EventCycleRecovered, Cycle: cur.Number, Detail: "empire status readable again"})
	}
	if !prev.Succeeded || !cur.Succeeded {
		return events
	}

	p, c := prev.Status, cur.Status
	if c.Colonies > p.Colonies {
		events = append(events, Event{
			Kind:   EventColonyFounded,
			Cycle:  cur.Number,
			Detail: fmt.Sprintf("colonies %d → %d", p.Colonies, c.Colonies),
		})
	} else if c.Colonies < p.Colonies {
		events = append(events, Event{
			Kind:   EventColonyLost,
			Cycle:  cur.Number,
			Detail: fmt.Sprintf("colonies %d → %d", p.Colonies, c.Colonies),
		})
	}

	for _, phase := range model.PhaseOrder {
		was, is := p.Ready(phase), c.Ready(phase)
		switch {
		case !was && is:
			events = append(events, Event{Kind: EventReadinessGained, Cycle: cur.Number, Phase: phase, Detail: string(phase) + " gate opened"})
		case was && !is:
			events = append(events, Event{Kind: EventReadinessLost, Cycle: cur.Number, Phase: phase, Detail: string(phase) + " gate closed"})
		}
	}

	// Spending on our own actions explains a drop; only flag unexplained ones.
	if !actedAny(prev.Phases) && p.TotalResources > 0 {
		lost := p.TotalResources - c.TotalResources
		if float64(lost) >= float64(p.TotalResources)*dropThreshold {
			events = append(events, Event{
				Kind:   EventResourcesDropped,
				Cycle:  cur.Number,
				Detail: fmt.Sprintf("total resources %d → %d", p.TotalResources, c.TotalResources),
			})
		}
	}
	return events
}

func actedAny(rs []model.PhaseResult) bool {
	for _, r := range rs {
		if r.Acted {
			return true
		}
	}
	return false
}

func errDetail(err error) string {
	if err == nil {
		return "cycle failed"
	}
	return err.Error()
}
