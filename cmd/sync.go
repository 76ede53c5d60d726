package cmd

import (
	netboxsync "netbox-sync/feature/sync"

	"github.com/spf13/cobra"
)

var syncDryRun bool

// syncCmd runs the ten reconciliation stages.
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Create and update registry objects from the source inventory",
	Long: `Runs preflight, waits the mutation delay, then reconciles instances, routers,
DHCP agents, disks, interfaces, MAC addresses, VRFs, prefixes, IP addresses and
floating IPs in that order. The first fatal error stops the run.

Examples:
  # Show what would change without writing
  netbox-sync sync --dry-run

  # Apply
  netbox-sync sync`,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().BoolVar(&syncDryRun, "dry-run", false, "Plan against an in-memory copy of the registry, write nothing")
	RootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	rt, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	opts := rt.options(syncDryRun)
	s := rt.begin(ctx, "sync", opts.DryRun)

	inv, err := rt.inventory(ctx)
	if err != nil {
		return s.end(ctx, err)
	}
	reg, err := rt.registry(ctx, opts.DryRun)
	if err != nil {
		return s.end(ctx, err)
	}
	driver := netboxsync.NewDriver(reg, inv, rt.cfg.NetBox, opts, rt.log, s.observer())
	return s.end(ctx, driver.Run(ctx, s.summary))
}
