package model

// Readiness thresholds. These are fixed policy, not configuration.
const (
	BuildMinMetal   = 500
	BuildMinCrystal = 250

	RaidMinMetal   = 1000
	RaidMinCrystal = 500

	ColonizeMinMetal     = 50000
	ColonizeMinCrystal   = 25000
	ColonizeMinDeuterium = 10000
)

// EmpireStatus is derived from a snapshot at the start of a cycle and
// discarded when the cycle ends.
type EmpireStatus struct {
	Resources            ResourceSnapshot `json:"resources"`
	TotalResources       int64            `json:"totalResources"`
	Colonies             int              `json:"colonies"`
	ReadyForBuilding     bool             `json:"readyForBuilding"`
	ReadyForRaids        bool             `json:"readyForRaids"`
	ReadyForColonization bool             `json:"readyForColonization"`
}

// ComputeStatus aggregates a snapshot and colony count into readiness flags.
// It has no side effects.
func ComputeStatus(res ResourceSnapshot, colonies int) EmpireStatus {
	if colonies < 0 {
		colonies = 0
	}
	return EmpireStatus{
		Resources:        res,
		TotalResources:   res.Total(),
		Colonies:         colonies,
		ReadyForBuilding: res.Metal >= BuildMinMetal || res.Crystal >= BuildMinCrystal,
		ReadyForRaids:    res.Metal >= RaidMinMetal && res.Crystal >= RaidMinCrystal,
		ReadyForColonization: res.Metal >= ColonizeMinMetal &&
			res.Crystal >= ColonizeMinCrystal &&
			res.Deuterium >= ColonizeMinDeuterium,
	}
}

// Ready reports whether the given phase is gated open.
func (s EmpireStatus) Ready(p PhaseName) bool {
	switch p {
	case PhaseBuild:
		return s.ReadyForBuilding
	case PhaseRaid:
		return s.ReadyForRaids
	case PhaseColonize:
		return s.ReadyForColonization
	}
	return false
}

// Shortfall returns what is still missing before colonization is possible.
// All zero means the resource gate is open.
func (s EmpireStatus) Shortfall() ResourceSnapshot {
	return ResourceSnapshot{
		Metal:     max(0, ColonizeMinMetal-s.Resources.Metal),
		Crystal:   max(0, ColonizeMinCrystal-s.Resources.Crystal),
		Deuterium: max(0, ColonizeMinDeuterium-s.Resources.Deuterium),
	}
}
