package commit

import (
	"errors"
	"fmt"
)

var (
	ErrNoParent        = errors.New("no client selected; choose the client these tasks belong to")
	ErrNothingSelected = errors.New("no records selected; select at least one record to import")
	ErrParentNotFound  = errors.New("client does not exist")
	ErrLocked          = errors.New("another import is committing; try again shortly")
)

// RecordError reports the record whose write aborted a commit. Records
// written before it stay persisted.
type RecordError struct {
	OriginalIndex int
	SlNo          int
	ProjectName   string
	Err           error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("row %d (%q, slNo %d) failed to save: %v", e.OriginalIndex+1, e.ProjectName, e.SlNo, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}
