package booking

import (
	"fmt"

	"notaryportal/internal/models"
)

// lifecycle holds the allowed job status transitions. The backend applies them.
type lifecycle struct {
	transitions map[models.JobStatus][]models.JobStatus
}

// A pending job is accepted or declined, an accepted job is completed or declined.
func newLifecycle() *lifecycle {
	return &lifecycle{
		transitions: map[models.JobStatus][]models.JobStatus{
			models.JobPending:   {models.JobAccepted, models.JobDeclined},
			models.JobAccepted:  {models.JobCompleted, models.JobDeclined},
			models.JobDeclined:  {},
			models.JobCompleted: {},
		},
	}
}

func (l *lifecycle) canTransition(from, to models.JobStatus) bool {
	allowed, ok := l.transitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// transition moves job to status to, or reports why it cannot.
func (l *lifecycle) transition(job *models.Job, to models.JobStatus) error {
	from := job.NormalizedStatus()
	if !l.canTransition(from, to) {
		return fmt.Errorf("job %s: cannot move from %s to %s", job.ID, from, to)
	}
	job.Status = to
	return nil
}

// isTerminal reports whether no further transitions exist from status.
func (l *lifecycle) isTerminal(status models.JobStatus) bool {
	allowed, ok := l.transitions[status]
	return ok && len(allowed) == 0
}

// StatusText is the client-facing label of a status.
func StatusText(status models.JobStatus) string {
	switch (models.Job{Status: status}).NormalizedStatus() {
	case models.JobPending:
		return "Pending"
	case models.JobAccepted:
		return "Accepted"
	case models.JobDeclined:
		return "Declined"
	case models.JobCompleted:
		return "Completed ✓"
	default:
		return string(status)
	}
}
