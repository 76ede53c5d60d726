// Package registry models the infrastructure registry the sync mirrors into.
//
// Reader and Writer are the two halves of the registry boundary. Client
// implements them over the registry REST API, classifying failures into the
// reconcile error sentinels. Memory implements them in process for dry runs
// and tests. Fetch builds a Snapshot of everything the sync manages in one
// cluster, indexed by the source identity of each kind.
package registry
