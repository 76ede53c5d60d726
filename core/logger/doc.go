// Package logger provides a structured logging facility based on Zap.
//
// New builds a development or production logger from Config. Console output uses
// colored capital levels and no stack traces, JSON output is meant for log shippers.
//
// # Context Awareness
//
// WithRayID extracts the RayID from a Fiber context and attaches it to the entry so
// every log line of one API request can be correlated. WithStage does the same for
// the reconciliation stage a line belongs to.
//
// # Usage
//
//	log, _ := logger.New(&cfg.Log)
//	logger.WithStage(log, "instances").Info("Stage started")
package logger
