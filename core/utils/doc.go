// Package utils holds small conversions for loosely typed API payloads,
// such as custom field values that may arrive as nil, strings or numbers.
package utils
