package sync

import (
	"context"
	"fmt"

	"netbox-sync/core/reconcile"
	"netbox-sync/feature/registry"
	"netbox-sync/feature/source"

	"go.uber.org/zap"
)

// Stage names, in execution order.
const (
	StageInstances  = "instances"
	StageRouters    = "routers"
	StageAgents     = "dhcp_agents"
	StageDisks      = "disks"
	StageInterfaces = "interfaces"
	StageMACs       = "mac_addresses"
	StageVRFs       = "vrfs"
	StageSubnets    = "subnets"
	StageAddresses  = "ip_addresses"
	StageFloating   = "floating_ips"
	StageStatus     = "status"
	StageHypervisor = "hypervisors"
)

// Driver reconciles one source inventory into the registry.
type Driver struct {
	reg      registry.Registry
	inv      *source.Inventory
	cfg      registry.Config
	opts     reconcile.Options
	logger   *zap.Logger
	observer reconcile.Observer

	snap      *registry.Snapshot
	clusterID int
	armed     bool
}

// NewDriver creates a driver. observer may be nil.
func NewDriver(reg registry.Registry, inv *source.Inventory, cfg registry.Config, opts reconcile.Options, logger *zap.Logger, observer reconcile.Observer) *Driver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Driver{
		reg:      reg,
		inv:      inv,
		cfg:      cfg,
		opts:     opts,
		logger:   logger,
		observer: observer,
	}
}

type stage struct {
	name    string
	run     func(ctx context.Context, t *reconcile.Tally) error
	refresh func(ctx context.Context) error
}

// Run executes stages 1 to 10 in order and records their counts in summary.
// The first failing stage ends the run; stages already applied stay applied.
func (d *Driver) Run(ctx context.Context, summary *reconcile.Summary) (err error) {
	defer func() { summary.Finish(err) }()

	d.clusterID, err = Preflight(ctx, d.reg, d.cfg)
	if err != nil {
		return err
	}
	d.snap, err = registry.Fetch(ctx, d.reg, d.cfg.Cluster)
	if err != nil {
		return err
	}
	d.logger.Info("Starting sync",
		zap.String("cluster", d.cfg.Cluster),
		zap.Bool("dry_run", d.opts.DryRun),
		zap.Int("instances", len(d.inv.Instances)),
		zap.Int("interfaces", len(d.inv.Interfaces)),
		zap.Int("registry_vms", len(d.snap.VMList)))

	stages := []stage{
		{name: StageInstances, run: d.syncInstances},
		{name: StageRouters, run: d.syncRouters},
		{name: StageAgents, run: d.syncAgents, refresh: d.refresh(d.snap.RefreshVMs)},
		{name: StageDisks, run: d.syncDisks},
		{name: StageInterfaces, run: d.syncInterfaces, refresh: d.refresh(d.snap.RefreshInterfaces)},
		{name: StageMACs, run: d.syncMACs},
		{name: StageVRFs, run: d.syncVRFs, refresh: d.refresh(d.snap.RefreshVRFs)},
		{name: StageSubnets, run: d.syncSubnets, refresh: d.refresh(d.snap.RefreshPrefixes, d.snap.RefreshAddresses)},
		{name: StageAddresses, run: d.syncAddresses, refresh: d.refresh(d.snap.RefreshAddresses)},
		{name: StageFloating, run: d.syncFloating},
	}
	for _, st := range stages {
		t := reconcile.NewTally(st.name, d.logger, d.opts.UnchangedLogEvery, d.observer)
		runErr := st.run(ctx, t)
		summary.Add(t.Finish())
		if runErr != nil {
			return fmt.Errorf("stage %s: %w", st.name, runErr)
		}
		if st.refresh != nil {
			if err := st.refresh(ctx); err != nil {
				return fmt.Errorf("refresh after %s: %w", st.name, err)
			}
		}
	}
	return nil
}

func (d *Driver) refresh(fns ...func(context.Context, registry.Reader) error) func(context.Context) error {
	return func(ctx context.Context) error {
		for _, fn := range fns {
			if err := fn(ctx, d.reg); err != nil {
				return err
			}
		}
		return nil
	}
}

// arm waits the mutation delay once, before the first write of the run.
func (d *Driver) arm(ctx context.Context) error {
	if d.armed {
		return nil
	}
	d.armed = true
	if d.opts.DryRun {
		return nil
	}
	d.logger.Warn("Applying changes to the registry", zap.Duration("in", d.opts.MutationDelay))
	return reconcile.Wait(ctx, d.opts.MutationDelay)
}

func (d *Driver) create(ctx context.Context, kind registry.Kind, payload any) (int, error) {
	if err := d.arm(ctx); err != nil {
		return 0, err
	}
	return d.reg.Create(ctx, kind, payload)
}

func (d *Driver) update(ctx context.Context, kind registry.Kind, id int, payload any) error {
	if err := d.arm(ctx); err != nil {
		return err
	}
	return d.reg.Update(ctx, kind, id, payload)
}

// names orders the two accepted names so that an object already carrying the
// fallback keeps it.
func names(current, name, custom string) (string, string) {
	if current != "" && current == custom {
		return custom, name
	}
	return name, custom
}
