package rules

import "github.com/nstehr/ogbot/model"

// Raid target verdicts.
const (
	Accept = "accept"
	Reject = "reject"
)

// TargetEnv is the environment raid-target rules are evaluated against.
type TargetEnv struct {
	Score     float64
	Activity  string
	FleetSize string
	Loot      int64
}

func NewTargetEnv(t model.RaidTarget) TargetEnv {
	return TargetEnv{
		Score:     t.Score,
		Activity:  string(t.Activity),
		FleetSize: string(t.FleetSize),
		Loot:      t.EstimatedLoot,
	}
}

// DefaultTargetRules decide whether a scanned planet is worth a raid under
// the balanced doctrine.
func DefaultTargetRules() []*Rule {
	return CompileTargetRules(DefaultDoctrine())
}

// NewTargetEngine compiles the raid target rules for d.
func NewTargetEngine(d Doctrine) (*Engine, error) {
	return NewEngine(CompileTargetRules(d), TargetEnv{})
}

// AcceptTarget reports whether the engine accepts t as a raid target.
func AcceptTarget(e *Engine, t model.RaidTarget) bool {
	r, err := e.Decide(NewTargetEnv(t))
	if err != nil {
		return false
	}
	return r.Outcome == Accept
}
