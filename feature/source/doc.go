// Package source loads the compute platform's inventory export and normalizes
// it into the canonical records the sync stages compare against the registry.
//
// Load reads a JSON or YAML document from disk or object storage. Build applies
// the naming, status, address class and association rules and reports records
// it had to skip.
package source
