// Package journal records every run and its mutating decisions in a SQL database
// and serves them read-only over HTTP.
//
// The journal is optional. Commands open a Store when the database is reachable and
// fall back to a nil Recorder otherwise; a nil Recorder accepts every call.
package journal
