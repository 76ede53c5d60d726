package cmd

import (
	"context"
	"fmt"

	"netbox-sync/core/reconcile"
	netboxsync "netbox-sync/feature/sync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var toolsDryRun bool

// preflightCmd checks the registry prerequisites and exits.
var preflightCmd = &cobra.Command{
	Use:   "preflight",
	Short: "Check that the registry has the cluster, tag and custom fields",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		rt, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		reg, err := rt.registry(ctx, false)
		if err != nil {
			return err
		}
		clusterID, err := netboxsync.Preflight(ctx, reg, rt.cfg.NetBox)
		if err != nil {
			return err
		}
		rt.log.Info("Preflight passed", zap.Int("cluster_id", clusterID))
		fmt.Fprintf(cmd.OutOrStdout(), "cluster %s (id %d) is ready\n", rt.cfg.NetBox.Cluster, clusterID)
		return nil
	},
}

// statusCmd refreshes only the status field of known machines.
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Update the status of registry machines from the source",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTool(cmd, "status", func(ctx context.Context, _ *app, d *netboxsync.Driver, s *reconcile.Summary) error {
			return d.RefreshStatus(ctx, s)
		})
	},
}

// hypervisorCmd binds machines to the devices of their hypervisors.
var hypervisorCmd = &cobra.Command{
	Use:   "hypervisor",
	Short: "Associate machines with the devices their hypervisors run on",
	Long: `Maps each machine's hypervisor label to a registry device through sync.node_map
(SYNC_NODE_MAP, comma-separated label=device pairs) and sets the machine's device.
Unmapped labels and unknown devices are skipped.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTool(cmd, "hypervisor", func(ctx context.Context, rt *app, d *netboxsync.Driver, s *reconcile.Summary) error {
			nodeMap, err := netboxsync.ParseNodeMap(rt.cfg.Sync.NodeMap)
			if err != nil {
				return err
			}
			return d.AssociateHypervisors(ctx, nodeMap, s)
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{statusCmd, hypervisorCmd} {
		c.Flags().BoolVar(&toolsDryRun, "dry-run", false, "Plan against an in-memory copy of the registry, write nothing")
	}
	RootCmd.AddCommand(preflightCmd, statusCmd, hypervisorCmd)
}

func runTool(cmd *cobra.Command, kind string, fn func(context.Context, *app, *netboxsync.Driver, *reconcile.Summary) error) error {
	ctx := cmd.Context()
	rt, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	opts := rt.options(toolsDryRun)
	s := rt.begin(ctx, kind, opts.DryRun)

	inv, err := rt.inventory(ctx)
	if err != nil {
		return s.end(ctx, err)
	}
	reg, err := rt.registry(ctx, opts.DryRun)
	if err != nil {
		return s.end(ctx, err)
	}
	if _, err := netboxsync.Preflight(ctx, reg, rt.cfg.NetBox); err != nil {
		return s.end(ctx, err)
	}
	driver := netboxsync.NewDriver(reg, inv, rt.cfg.NetBox, opts, rt.log, s.observer())
	return s.end(ctx, fn(ctx, rt, driver, s.summary))
}
