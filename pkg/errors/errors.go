package errors

import "fmt"

// ErrNotFound indicates a resource does not exist
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrUnauthorized indicates a failed authentication or authorization check
type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	return e.Message
}

// ErrInvalidStateTransition indicates an illegal lifecycle transition
type ErrInvalidStateTransition struct {
	From interface{}
	To   interface{}
}

func (e *ErrInvalidStateTransition) Error() string {
	return fmt.Sprintf("invalid state transition from %v to %v", e.From, e.To)
}

// ErrConflict indicates a write collided with existing state
type ErrConflict struct {
	Resource string
	Message  string
}

func (e *ErrConflict) Error() string {
	return fmt.Sprintf("%s conflict: %s", e.Resource, e.Message)
}
