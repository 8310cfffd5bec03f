package app

import (
	"errors"
	"fmt"
)

// Stage names the step of a run that failed
type Stage string

const (
	StageConfiguration Stage = "configuration"
	StageInput         Stage = "input"
	StageSynthesis     Stage = "synthesis"
	StageAssembly      Stage = "assembly"
	StagePersistence   Stage = "persistence"
	StagePlayback      Stage = "playback"
)

// ErrEmptyInput is returned when there is no text to read
var ErrEmptyInput = errors.New("input text is empty")

// Error attaches the failing stage to a run error
type Error struct {
	Stage Stage
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// StageOf reports the stage of err, if it carries one
func StageOf(err error) (Stage, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Stage, true
	}
	return "", false
}

func stageError(stage Stage, err error) error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return err
	}
	return &Error{Stage: stage, Err: err}
}
