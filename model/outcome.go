package model

import "time"

// PhaseName identifies one of the action subsystems run inside a cycle.
type PhaseName string

const (
	PhaseBuild    PhaseName = "build"
	PhaseRaid     PhaseName = "raid"
	PhaseColonize PhaseName = "colonize"
)

// PhaseOrder is the order phases run within a cycle.
var PhaseOrder = []PhaseName{PhaseBuild, PhaseRaid, PhaseColonize}

// PhaseResult records what a single phase did during a cycle.
type PhaseResult struct {
	Phase PhaseName `json:"phase"`
	Ran   bool      `json:"ran"`   // gate was open and the phase was invoked
	Acted bool      `json:"acted"` // the phase reported taking an in-game action
	Err   error     `json:"-"`
}

// CycleOutcome is the transient result of one cycle. A failed cycle always
// carries the fixed retry delay.
type CycleOutcome struct {
	ID        string        `json:"id"`
	Number    int           `json:"number"`
	StartedAt time.Time     `json:"startedAt"`
	Duration  time.Duration `json:"duration"`
	Succeeded bool          `json:"succeeded"`
	Err       error         `json:"-"`
	Status    EmpireStatus  `json:"status"`
	Phases    []PhaseResult `json:"phases"`
	Delay     time.Duration `json:"delay"`
}

// Phase returns the result for p, if the phase was registered.
func (o CycleOutcome) Phase(p PhaseName) (PhaseResult, bool) {
	for _, r := range o.Phases {
		if r.Phase == p {
			return r, true
		}
	}
	return PhaseResult{}, false
}
