package entity

import (
	"errors"
	"fmt"
)

// Domain errors for lessons, assessments and profiles.
var (
	ErrSubjectNotFound = errors.New("subject not found")
	ErrLessonNotFound  = errors.New("lesson not found")
	ErrTestNotFound    = errors.New("test not found")
	ErrProfileNotFound = errors.New("profile not found")
	ErrEmptyAnswer     = errors.New("answer must not be empty")
	ErrInvalidUserID   = errors.New("invalid user ID")
)

// BlockedError signals that a lesson is locked behind an incomplete
// prerequisite. It carries the blocking frontier lesson so callers can render
// an actionable message instead of a hard failure.
type BlockedError struct {
	Blocking LessonRef
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("lesson blocked by incomplete prerequisite %q", e.Blocking.Slug)
}

// AsBlocked unwraps err into a BlockedError, if it is one.
func AsBlocked(err error) (*BlockedError, bool) {
	var blocked *BlockedError
	if errors.As(err, &blocked) {
		return blocked, true
	}
	return nil, false
}
