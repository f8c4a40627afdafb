package runs

import "errors"

var (
	// ErrEmptyInput means the run's document has no parsed messages.
	ErrEmptyInput = errors.New("document has no messages")
	// ErrAgentExecutionFailed means an agent failed even after falling back.
	ErrAgentExecutionFailed = errors.New("agent execution failed")
	// ErrOutputGenerationFailed means a core artifact format could not be rendered.
	ErrOutputGenerationFailed = errors.New("output generation failed")
	// ErrInvalidTransition means the requested status change breaks the run state machine.
	ErrInvalidTransition = errors.New("invalid run status transition")
)
