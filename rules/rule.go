package rules

import "github.com/expr-lang/expr/vm"

// Rule is a condition → outcome pair. The engine evaluates rules by
// descending priority and the first rule whose condition holds decides.
type Rule struct {
	Name         string      // human-readable identifier
	Priority     int         // higher = evaluated first
	ConditionSrc string      // expr source (preserved for logging)
	Outcome      string      // what the rule decides when it fires
	program      *vm.Program // compiled bytecode
}
