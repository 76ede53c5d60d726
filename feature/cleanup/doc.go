// Package cleanup removes managed registry objects the source no longer has.
//
// Deletion follows the dependency order addresses, interfaces, disks,
// machines, prefixes, VRFs, re-reading the registry between steps. Each step
// deletes its batch in one request after the configured delay. Containers are
// only deleted when empty, and global prefixes are never deleted.
package cleanup
