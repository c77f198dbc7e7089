package runstore

import "time"

// Status tracks a run's lifecycle in the store.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusDegraded  Status = "degraded"
	StatusAborted   Status = "aborted"
	StatusFailed    Status = "failed"
)

// Run is one persisted workflow run.
type Run struct {
	ID               int64
	CorrelationID    string
	Target           string
	Depth            string
	Status           Status
	QualityGrade     string
	CompositeScore   float64
	ExecutiveSummary string
	ReportJSON       string
	ErrorMessage     string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Terminal reports whether the run reached a final status.
func (r *Run) Terminal() bool {
	switch r.Status {
	case StatusCompleted, StatusDegraded, StatusAborted, StatusFailed:
		return true
	}
	return false
}
