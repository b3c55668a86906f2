package rules

import "github.com/nstehr/ogbot/model"

// BuildEnv is the environment building rules are evaluated against.
type BuildEnv struct {
	Metal     int64
	Crystal   int64
	Deuterium int64
	Energy    int64
}

func NewBuildEnv(res model.ResourceSnapshot) BuildEnv {
	return BuildEnv{
		Metal:     res.Metal,
		Crystal:   res.Crystal,
		Deuterium: res.Deuterium,
		Energy:    res.Energy,
	}
}

// DefaultBuildingRules picks the next building by the scarcest resource
// under the balanced doctrine.
func DefaultBuildingRules() []*Rule {
	return CompileBuildRules(DefaultDoctrine())
}

// NewBuildingEngine compiles the building rules for d.
func NewBuildingEngine(d Doctrine) (*Engine, error) {
	return NewEngine(CompileBuildRules(d), BuildEnv{})
}

// NextBuilding returns the building the engine picks for res.
func NextBuilding(e *Engine, res model.ResourceSnapshot) (model.BuildingKey, error) {
	r, err := e.Decide(NewBuildEnv(res))
	if err != nil {
		return "", err
	}
	return model.BuildingKey(r.Outcome), nil
}
