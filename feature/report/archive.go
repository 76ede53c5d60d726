package report

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"

	"netbox-sync/core/reconcile"
	"netbox-sync/core/storage"
)

const prefix = "reports/"

// Key returns the object key a run summary is archived under.
func Key(runID string) string {
	return prefix + runID + ".json"
}

// Archive uploads s as JSON and returns its key.
func Archive(ctx context.Context, client storage.Client, bucket string, s *reconcile.Summary) (string, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode run %s: %w", s.RunID, err)
	}
	key := Key(s.RunID)
	if err := storage.WriteObject(ctx, client, bucket, key, "application/json", data); err != nil {
		return "", err
	}
	return key, nil
}

// Fetch downloads an archived summary.
func Fetch(ctx context.Context, client storage.Client, bucket, runID string) (*reconcile.Summary, error) {
	data, err := storage.ReadObject(ctx, client, bucket, Key(runID))
	if err != nil {
		return nil, err
	}
	var s reconcile.Summary
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to decode run %s: %w", runID, err)
	}
	return &s, nil
}

// Archived returns the run ids with an archived summary, sorted.
func Archived(ctx context.Context, client storage.Client, bucket string) ([]string, error) {
	keys, err := storage.ListKeys(ctx, client, bucket, prefix)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(keys))
	for _, k := range keys {
		if path.Ext(k) != ".json" {
			continue
		}
		ids = append(ids, strings.TrimSuffix(strings.TrimPrefix(k, prefix), ".json"))
	}
	sort.Strings(ids)
	return ids, nil
}
