package agents

import "fmt"

// InvocationError reports a failed model call. Field resolution treats it as
// local to the field being resolved, never fatal to the run.
type InvocationError struct {
	Agent string
	Err   error
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("agent %s invocation failed: %v", e.Agent, e.Err)
}

func (e *InvocationError) Unwrap() error {
	return e.Err
}
