package state

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/fundscout/fundscout/internal/types"
)

// NotFoundError indicates a job ID that is not present in the store.
type NotFoundError struct {
	JobID uuid.UUID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("job %s not found", e.JobID)
}

// TransitionError indicates a status change the job lifecycle does not allow,
// for example marking an already-done job as failed.
type TransitionError struct {
	JobID uuid.UUID
	From  types.JobStatus
	To    types.JobStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("job %s: invalid transition %s -> %s", e.JobID, e.From, e.To)
}
