package sync

import (
	"context"
	"errors"
	"fmt"

	"netbox-sync/core/reconcile"
	"netbox-sync/feature/registry"
)

type requirement struct {
	kind  registry.LookupKind
	label string
	name  string
}

// Preflight checks that the registry carries every reference object the sync
// writes against and returns the cluster ID.
func Preflight(ctx context.Context, r registry.Reader, cfg registry.Config) (int, error) {
	reqs := []requirement{
		{registry.LookupClusterType, "cluster type", cfg.ClusterType},
		{registry.LookupCluster, "cluster", cfg.Cluster},
		{registry.LookupTag, "tag", cfg.Tag},
	}
	for _, field := range registry.CustomFieldNames {
		reqs = append(reqs, requirement{registry.LookupCustomField, "custom field", field})
	}

	var clusterID int
	for _, req := range reqs {
		if req.name == "" {
			return 0, fmt.Errorf("preflight: %s is not configured: %w", req.label, reconcile.ErrNotFound)
		}
		id, err := r.Lookup(ctx, req.kind, req.name)
		if errors.Is(err, reconcile.ErrNotFound) {
			return 0, fmt.Errorf("preflight: %s %q does not exist in the registry: %w", req.label, req.name, reconcile.ErrNotFound)
		}
		if err != nil {
			return 0, fmt.Errorf("preflight: %s %q: %w", req.label, req.name, err)
		}
		if req.kind == registry.LookupCluster {
			clusterID = id
		}
	}
	return clusterID, nil
}
