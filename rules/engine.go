package rules

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// ErrNoMatch is returned by Decide when no rule's condition holds.
var ErrNoMatch = errors.New("rules: no rule matched")

// Engine runs compiled rules against one environment type. The environment
// is fixed at construction so conditions are type-checked at compile time.
type Engine struct {
	rules []*Rule
}

// NewEngine compiles all rule conditions against env's type and sorts by
// priority. A rule that fails to compile rejects the whole set.
func NewEngine(rules []*Rule, env any) (*Engine, error) {
	compiled, err := compileRules(rules, env)
	if err != nil {
		return nil, err
	}
	return &Engine{rules: compiled}, nil
}

// Decide returns the highest-priority rule whose condition is true for env.
func (e *Engine) Decide(env any) (*Rule, error) {
	for _, r := range e.rules {
		result, err := vm.Run(r.program, env)
		if err != nil {
			slog.Warn("rule condition error", "rule", r.Name, "error", err)
			continue
		}
		match, ok := result.(bool)
		if !ok || !match {
			continue
		}
		slog.Debug("rule fired", "rule", r.Name, "priority", r.Priority, "outcome", r.Outcome)
		return r, nil
	}
	return nil, ErrNoMatch
}

// Rules returns the compiled rules in evaluation order.
func (e *Engine) Rules() []*Rule {
	out := make([]*Rule, len(e.rules))
	copy(out, e.rules)
	return out
}

func compileRules(rules []*Rule, env any) ([]*Rule, error) {
	out := make([]*Rule, 0, len(rules))
	for _, r := range rules {
		prog, err := expr.Compile(r.ConditionSrc, expr.Env(env), expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("compile rule %q: %w", r.Name, err)
		}
		c := *r
		c.program = prog
		out = append(out, &c)
	}
	// Stable so equal priorities keep declaration order.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority > out[j].Priority
	})
	return out, nil
}
