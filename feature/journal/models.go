package journal

import (
	"time"

	"netbox-sync/core/reconcile"
)

// Run outcomes.
const (
	OutcomeRunning   = "running"
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
)

// Run is one sync, cleanup, status or hypervisor invocation.
type Run struct {
	ID         string     `gorm:"column:id;primaryKey;size:36" json:"id"`
	Kind       string     `gorm:"column:kind;size:32;index" json:"kind"`
	Cluster    string     `gorm:"column:cluster;size:64" json:"cluster"`
	DryRun     bool       `gorm:"column:dry_run" json:"dry_run"`
	StartedAt  time.Time  `gorm:"column:started_at;index" json:"started_at"`
	FinishedAt *time.Time `gorm:"column:finished_at" json:"finished_at,omitempty"`
	Outcome    string     `gorm:"column:outcome;size:16" json:"outcome"`
	Error      string     `gorm:"column:error;type:text" json:"error,omitempty"`
	Created    int        `gorm:"column:created" json:"created"`
	Updated    int        `gorm:"column:updated" json:"updated"`
	Unchanged  int        `gorm:"column:unchanged" json:"unchanged"`
	Skipped    int        `gorm:"column:skipped" json:"skipped"`
	Deleted    int        `gorm:"column:deleted" json:"deleted"`
}

// TableName overrides the table name.
func (Run) TableName() string {
	return "sync_runs"
}

// Action is one create, update or delete decision of a run.
type Action struct {
	ID        uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	RunID     string    `gorm:"column:run_id;size:36;index" json:"run_id"`
	Stage     string    `gorm:"column:stage;size:64" json:"stage"`
	Op        string    `gorm:"column:op;size:16" json:"op"`
	Key       string    `gorm:"column:entity_key;size:128" json:"key"` // key is reserved in MySQL
	Name      string    `gorm:"column:name;size:128" json:"name"`
	Changed   string    `gorm:"column:changed;size:255" json:"changed,omitempty"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
}

// TableName overrides the table name.
func (Action) TableName() string {
	return "sync_actions"
}

var (
	runColumns = []string{
		"id", "kind", "cluster", "dry_run", "started_at", "finished_at", "outcome", "error",
		"created", "updated", "unchanged", "skipped", "deleted",
	}
	actionColumns = []string{"id", "run_id", "stage", "op", "entity_key", "name", "changed", "created_at"}
)

func newRun(s *reconcile.Summary) Run {
	return Run{
		ID:        s.RunID,
		Kind:      s.Kind,
		Cluster:   s.Cluster,
		DryRun:    s.DryRun,
		StartedAt: s.StartedAt,
		Outcome:   OutcomeRunning,
	}
}

func outcome(s *reconcile.Summary) string {
	if s.Error != "" {
		return OutcomeFailed
	}
	return OutcomeSucceeded
}
