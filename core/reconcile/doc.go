// Package reconcile holds the domain-neutral pieces of a staged reconciliation:
// decisions, field diffs, per-stage tallies, display name disambiguation, delayed
// batch deletion and the error taxonomy shared by every stage.
//
// # Decisions
//
// Every entity compared against the registry ends in a Decision: Create, Update with
// the changed field names, Noop, Skip (missing required association) or Delete.
// A Diff accumulates changed fields in comparison order:
//
//	var d reconcile.Diff
//	reconcile.Field(&d, "status", want.Status, have.Status)
//	reconcile.Field(&d, "vcpus", want.VCPUs, have.VCPUs)
//	decision := d.Decision()
//
// # Tallies
//
// A Tally counts the decisions of one stage, logs creates, updates and skips, and
// logs the running unchanged count every N no-ops. Finish returns a StageSummary and
// hands it to the Observer (metrics, journal).
//
// # Names
//
// Registry names are capped at MaxNameLen runes. When the registry rejects a name
// as a duplicate, WithNameFallback retries exactly once with the Disambiguate name;
// a second rejection is fatal.
//
// # Errors
//
// ErrUnmappedStatus, ErrUniquenessConflict, ErrNotFound, ErrTransport and
// ErrDataInconsistency are matched with errors.Is.
package reconcile
