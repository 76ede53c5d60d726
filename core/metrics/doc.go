// Package metrics exposes prometheus collectors for reconciliation runs.
//
// A Collector owns its registry and implements reconcile.Observer, so stages feed it
// through their tallies:
//
//   - netbox_sync_decisions_total{stage,op}
//   - netbox_sync_skipped_total{stage}
//   - netbox_sync_last_run_timestamp_seconds{kind}
//   - netbox_sync_stage_duration_seconds{stage}
//
// CLI runs push to a pushgateway when one is configured. The serve command mounts
// the collector at /metrics through Feature.
package metrics
