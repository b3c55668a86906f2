package agent

import (
	"errors"
	"fmt"

	"github.com/nstehr/ogbot/model"
)

var (
	// ErrUnreachable means the game tab could not be found at cycle start.
	ErrUnreachable = errors.New("agent: target unreachable")
	// ErrObservation means empire state could not be read.
	ErrObservation = errors.New("agent: observation failed")
)

// PhaseError wraps a failure inside a single phase. The controller contains
// it at the phase boundary; it never fails the cycle.
type PhaseError struct {
	Phase model.PhaseName
	Err   error
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("%s phase: %v", e.Phase, e.Err)
}

func (e *PhaseError) Unwrap() error { return e.Err }
