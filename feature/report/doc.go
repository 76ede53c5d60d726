// Package report prints run summaries as tables and archives them as JSON objects
// under reports/<run-id>.json in the storage bucket.
package report
