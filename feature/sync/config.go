package sync

import (
	"fmt"
	"strings"
	"time"

	"netbox-sync/core/reconcile"
)

// Config holds run behaviour.
type Config struct {
	// DryRun runs every stage against an in-memory copy of the registry.
	DryRun bool `mapstructure:"dry_run" default:"false"`
	// MutationDelaySeconds is waited once before the first registry write.
	MutationDelaySeconds int `mapstructure:"mutation_delay_seconds" default:"5"`
	// CleanupDelaySeconds is waited before every delete batch.
	CleanupDelaySeconds int `mapstructure:"cleanup_delay_seconds" default:"10"`
	// UnchangedLogEvery logs the running unchanged count every N no-ops.
	UnchangedLogEvery int `mapstructure:"unchanged_log_every" default:"10"`
	// NodeMap maps hypervisor labels to registry device names: "cmp-1=rack1-node1,cmp-2=rack1-node2".
	NodeMap string `mapstructure:"node_map" default:""`
}

// Options converts the config into engine options.
func (c Config) Options() reconcile.Options {
	return reconcile.Options{
		DryRun:            c.DryRun,
		MutationDelay:     time.Duration(c.MutationDelaySeconds) * time.Second,
		CleanupDelay:      time.Duration(c.CleanupDelaySeconds) * time.Second,
		UnchangedLogEvery: c.UnchangedLogEvery,
	}
}

// ParseNodeMap parses comma separated label=device pairs.
func ParseNodeMap(s string) (map[string]string, error) {
	out := make(map[string]string)
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		label, device, ok := strings.Cut(pair, "=")
		label, device = strings.TrimSpace(label), strings.TrimSpace(device)
		if !ok || label == "" || device == "" {
			return nil, fmt.Errorf("invalid node map entry %q, want label=device", pair)
		}
		out[label] = device
	}
	return out, nil
}
