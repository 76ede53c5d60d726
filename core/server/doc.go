// Package server holds the HTTP server configuration used by the serve command.
//
// The Config struct defines the listen port and the API key that protects the
// journal and metrics endpoints.
package server
