package source

import (
	"fmt"
	"strings"

	"netbox-sync/core/reconcile"
)

// Status is the registry's lifecycle vocabulary.
type Status string

const (
	StatusActive          Status = "active"
	StatusOffline         Status = "offline"
	StatusPlanned         Status = "planned"
	StatusStaged          Status = "staged"
	StatusFailed          Status = "failed"
	StatusDecommissioning Status = "decommissioning"
)

var statusTable = map[string]Status{
	"active": StatusActive,

	"shutoff":   StatusOffline,
	"suspended": StatusOffline,
	"down":      StatusOffline,

	"build":         StatusPlanned,
	"hard_reboot":   StatusPlanned,
	"migrating":     StatusPlanned,
	"password":      StatusPlanned,
	"reboot":        StatusPlanned,
	"rebuild":       StatusPlanned,
	"rescue":        StatusPlanned,
	"resize":        StatusPlanned,
	"revert_resize": StatusPlanned,
	"verify_resize": StatusPlanned,

	"paused":            StatusStaged,
	"shelved":           StatusStaged,
	"shelved_offloaded": StatusStaged,

	"error":   StatusFailed,
	"deleted": StatusFailed,
	"unknown": StatusFailed,

	"soft_deleted": StatusDecommissioning,
}

// NormalizeStatus maps a source lifecycle state to the registry vocabulary.
// Matching is case-insensitive; anything outside the table is ErrUnmappedStatus.
func NormalizeStatus(raw string) (Status, error) {
	if s, ok := statusTable[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return s, nil
	}
	return "", fmt.Errorf("status %q: %w", raw, reconcile.ErrUnmappedStatus)
}
