package apperrors

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrNoData             = errors.New("no data for the requested objects and stage")
	ErrNoMatchingElements = errors.New("no matching elements")
	ErrUnknownStage       = errors.New("unknown stage")
	ErrInvalidIdentifier  = errors.New("invalid identifier")
)

// UnknownStageError is returned when a stage name is not in the configured stage map.
type UnknownStageError struct {
	Stage string
}

func (e *UnknownStageError) Error() string {
	return fmt.Sprintf("unknown stage %q", e.Stage)
}

func (e *UnknownStageError) Is(target error) bool {
	return target == ErrUnknownStage
}

// StageNotFoundError reports that a construction object has no model stage
// for the requested stage. It means "no data", not a transient fault.
type StageNotFoundError struct {
	ObjectID string
	Stage    string
}

func (e *StageNotFoundError) Error() string {
	return fmt.Sprintf("model stage not found for object %s at stage %q", e.ObjectID, e.Stage)
}

func (e *StageNotFoundError) Is(target error) bool {
	return target == ErrNotFound
}
