package cmd

import (
	"os"

	"netbox-sync/feature/cleanup"

	"github.com/spf13/cobra"
)

var (
	cleanupDryRun bool
	cleanupYes    bool
)

// cleanupCmd deletes tagged registry objects the source no longer has.
var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete tagged registry objects that are gone from the source",
	Long: `Deletes orphaned IP addresses, interfaces, disks, virtual machines, prefixes and
VRFs, in that order. Only objects carrying the provenance tag are considered, and a
prefix or VRF is kept while it still contains anything. Every delete batch waits the
cleanup delay first.

Examples:
  # List what would be deleted
  netbox-sync cleanup --dry-run

  # Delete without the interactive prompt
  netbox-sync cleanup --yes`,
	RunE: runCleanup,
}

func init() {
	cleanupCmd.Flags().BoolVar(&cleanupDryRun, "dry-run", false, "Plan against an in-memory copy of the registry, delete nothing")
	cleanupCmd.Flags().BoolVar(&cleanupYes, "yes", false, "Auto-confirm deletion (non-interactive)")
	RootCmd.AddCommand(cleanupCmd)
}

func runCleanup(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	rt, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	opts := rt.options(cleanupDryRun)
	if !opts.DryRun && !confirm(os.Stdin, os.Stdout, "Cleanup deletes registry objects of cluster "+rt.cfg.NetBox.Cluster+".", cleanupYes) {
		rt.log.Warn("Operation cancelled by user. No changes were made.")
		return nil
	}
	s := rt.begin(ctx, "cleanup", opts.DryRun)

	inv, err := rt.inventory(ctx)
	if err != nil {
		return s.end(ctx, err)
	}
	reg, err := rt.registry(ctx, opts.DryRun)
	if err != nil {
		return s.end(ctx, err)
	}
	svc := cleanup.NewService(reg, inv, rt.cfg.NetBox, opts, rt.log, s.observer())
	return s.end(ctx, svc.Run(ctx, s.summary))
}
