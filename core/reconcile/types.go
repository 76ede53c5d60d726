package reconcile

import (
	"time"

	"github.com/google/uuid"
)

// Op is the outcome of comparing one source entity against the registry.
type Op string

const (
	// OpNoop means the registry object already matches.
	OpNoop Op = "noop"
	// OpCreate means no registry object exists yet.
	OpCreate Op = "create"
	// OpUpdate means the registry object exists with stale fields.
	OpUpdate Op = "update"
	// OpDelete means the registry object has no source counterpart.
	OpDelete Op = "delete"
	// OpSkip means a required association is missing and the entity is left alone.
	OpSkip Op = "skip"
)

// Decision is the verdict for a single entity.
type Decision struct {
	// Op is what should happen to the registry object.
	Op Op `json:"op"`

	// Changed lists the field names that differ. Only set for OpUpdate.
	Changed []string `json:"changed,omitempty"`

	// Reason explains an OpSkip.
	Reason string `json:"reason,omitempty"`
}

// Create returns a create decision.
func Create() Decision { return Decision{Op: OpCreate} }

// Noop returns a no-op decision.
func Noop() Decision { return Decision{Op: OpNoop} }

// Update returns an update decision for the given changed fields.
func Update(changed ...string) Decision { return Decision{Op: OpUpdate, Changed: changed} }

// Skip returns a skip decision with a reason.
func Skip(reason string) Decision { return Decision{Op: OpSkip, Reason: reason} }

// Delete returns a delete decision.
func Delete() Decision { return Decision{Op: OpDelete} }

// Mutates reports whether the decision requires a registry write.
func (d Decision) Mutates() bool {
	return d.Op == OpCreate || d.Op == OpUpdate || d.Op == OpDelete
}

// StageSummary provides aggregate counts for one stage.
type StageSummary struct {
	// Stage is the stage name (e.g., "instances").
	Stage string `json:"stage"`

	// Created counts create decisions.
	Created int `json:"created"`

	// Updated counts update decisions.
	Updated int `json:"updated"`

	// Unchanged counts no-op decisions.
	Unchanged int `json:"unchanged"`

	// Skipped counts entities skipped for a missing association.
	Skipped int `json:"skipped"`

	// Deleted counts deleted registry objects.
	Deleted int `json:"deleted"`

	// Duration is how long the stage took.
	Duration time.Duration `json:"duration_ns"`
}

// Mutations returns the number of registry writes the stage decided on.
func (s StageSummary) Mutations() int {
	return s.Created + s.Updated + s.Deleted
}

// Summary is the result of a whole run.
type Summary struct {
	// RunID identifies the run in the journal and the report archive.
	RunID string `json:"run_id"`

	// Kind is the command that produced the run (sync, cleanup, status, hypervisor).
	Kind string `json:"kind"`

	// Cluster is the registry cluster the run was scoped to.
	Cluster string `json:"cluster"`

	// DryRun is true when no remote writes happened.
	DryRun bool `json:"dry_run"`

	// StartedAt is when the run began.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is when the run ended.
	FinishedAt time.Time `json:"finished_at"`

	// Stages holds the per-stage counts in execution order.
	Stages []StageSummary `json:"stages"`

	// Error is the fatal error that stopped the run, if any.
	Error string `json:"error,omitempty"`
}

// NewSummary starts a run summary with a fresh run ID.
func NewSummary(kind, cluster string, dryRun bool) *Summary {
	return &Summary{
		RunID:     uuid.NewString(),
		Kind:      kind,
		Cluster:   cluster,
		DryRun:    dryRun,
		StartedAt: time.Now(),
	}
}

// Finish stamps the end time and the fatal error, if any.
func (s *Summary) Finish(err error) {
	s.FinishedAt = time.Now()
	if err != nil {
		s.Error = err.Error()
	}
}

// Add appends a stage summary.
func (s *Summary) Add(stage StageSummary) {
	s.Stages = append(s.Stages, stage)
}

// Totals sums all stages.
func (s *Summary) Totals() StageSummary {
	total := StageSummary{Stage: "total"}
	for _, st := range s.Stages {
		total.Created += st.Created
		total.Updated += st.Updated
		total.Unchanged += st.Unchanged
		total.Skipped += st.Skipped
		total.Deleted += st.Deleted
		total.Duration += st.Duration
	}
	return total
}

// Options controls run behaviour.
type Options struct {
	// DryRun prevents any remote mutation.
	DryRun bool

	// MutationDelay is waited once before the first sync mutation.
	MutationDelay time.Duration

	// CleanupDelay is waited before every delete batch.
	CleanupDelay time.Duration

	// UnchangedLogEvery logs the running unchanged count every N no-ops.
	// Zero disables the periodic log.
	UnchangedLogEvery int
}
