// Package middleware contains HTTP middleware for the Fiber application.
//
// # Components
//
//   - rayid: assigns a RayID to every request and echoes it in the X-Ray-ID header.
//   - requestlog: logs each request through zap with its RayID, status and duration.
//   - auth: API key validation for the journal endpoints; serve leaves /swagger and /metrics public.
//
// Register rayid first so every later log line can be correlated.
package middleware
