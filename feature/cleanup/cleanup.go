package cleanup

import (
	"context"
	"fmt"
	"time"

	"netbox-sync/core/reconcile"
	"netbox-sync/feature/registry"
	"netbox-sync/feature/source"
	netboxsync "netbox-sync/feature/sync"

	"go.uber.org/zap"
)

// Step names, in execution order.
const (
	StepAddresses  = "cleanup_ip_addresses"
	StepInterfaces = "cleanup_interfaces"
	StepDisks      = "cleanup_disks"
	StepMachines   = "cleanup_virtual_machines"
	StepPrefixes   = "cleanup_prefixes"
	StepVRFs       = "cleanup_vrfs"
)

// Service deletes orphaned objects.
type Service struct {
	reg      registry.Registry
	inv      *source.Inventory
	cfg      registry.Config
	opts     reconcile.Options
	logger   *zap.Logger
	observer reconcile.Observer
}

// NewService creates a cleanup service. observer may be nil.
func NewService(reg registry.Registry, inv *source.Inventory, cfg registry.Config, opts reconcile.Options, logger *zap.Logger, observer reconcile.Observer) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		reg:      reg,
		inv:      inv,
		cfg:      cfg,
		opts:     opts,
		logger:   logger,
		observer: observer,
	}
}

// orphan is a registry object queued for deletion.
type orphan struct {
	id   int
	key  string
	name string
}

type step struct {
	name    string
	kind    registry.Kind
	refresh func(ctx context.Context, r registry.Reader) error
	collect func(ctx context.Context, t *reconcile.Tally) ([]orphan, error)
}

// Run deletes every orphan and records the steps in summary.
func (s *Service) Run(ctx context.Context, summary *reconcile.Summary) (err error) {
	defer func() { summary.Finish(err) }()

	if len(s.inv.LiveIDs()) == 0 {
		return fmt.Errorf("source inventory has no instances, routers or agents, refusing to clean up: %w", reconcile.ErrDataInconsistency)
	}
	if _, err := netboxsync.Preflight(ctx, s.reg, s.cfg); err != nil {
		return err
	}
	snap, err := registry.Fetch(ctx, s.reg, s.cfg.Cluster)
	if err != nil {
		return err
	}

	steps := []step{
		{name: StepAddresses, kind: registry.KindIPAddress, collect: s.addresses(snap)},
		{name: StepInterfaces, kind: registry.KindInterface, refresh: snap.RefreshInterfaces, collect: s.interfaces(snap)},
		{name: StepDisks, kind: registry.KindVirtualDisk, refresh: snap.RefreshVMs, collect: s.disks(snap)},
		{name: StepMachines, kind: registry.KindVirtualMachine, refresh: snap.RefreshVMs, collect: s.machines(snap)},
		{name: StepPrefixes, kind: registry.KindPrefix, refresh: snap.RefreshPrefixes, collect: s.prefixes(snap)},
		{name: StepVRFs, kind: registry.KindVRF, refresh: snap.RefreshVRFs, collect: s.vrfs(snap)},
	}
	for _, st := range steps {
		if st.refresh != nil {
			if err := st.refresh(ctx, s.reg); err != nil {
				return fmt.Errorf("refresh before %s: %w", st.name, err)
			}
		}
		t := reconcile.NewTally(st.name, s.logger, s.opts.UnchangedLogEvery, s.observer)
		stepErr := s.runStep(ctx, st, t)
		summary.Add(t.Finish())
		if stepErr != nil {
			return fmt.Errorf("%s: %w", st.name, stepErr)
		}
	}
	return nil
}

func (s *Service) runStep(ctx context.Context, st step, t *reconcile.Tally) error {
	orphans, err := st.collect(ctx, t)
	if err != nil {
		return err
	}
	ids := make([]int, len(orphans))
	for i, o := range orphans {
		ids[i] = o.id
	}
	err = reconcile.DeleteBatch(ctx, s.logger, string(st.kind), ids, s.Delay(), func(ctx context.Context, ids []int) error {
		return s.reg.Delete(ctx, st.kind, ids)
	})
	if err != nil {
		return err
	}
	for _, o := range orphans {
		t.Record(o.key, o.name, reconcile.Delete())
	}
	return nil
}

// addresses finds managed addresses whose interface no longer carries them,
// as a fixed or a floating IP.
func (s *Service) addresses(snap *registry.Snapshot) func(context.Context, *reconcile.Tally) ([]orphan, error) {
	return func(_ context.Context, t *reconcile.Tally) ([]orphan, error) {
		live := s.inv.LiveAddresses()
		var out []orphan
		for _, a := range snap.Addresses {
			itf, ok := snap.InterfaceByID(a.InterfaceID())
			if !ok {
				continue
			}
			if _, kept := live[itf.ExternalID()][a.Bare()]; kept {
				t.Record(a.Bare(), itf.Name, reconcile.Noop())
				continue
			}
			out = append(out, orphan{id: a.ID, key: a.Bare(), name: itf.Name})
		}
		return out, nil
	}
}

func (s *Service) interfaces(snap *registry.Snapshot) func(context.Context, *reconcile.Tally) ([]orphan, error) {
	return func(_ context.Context, t *reconcile.Tally) ([]orphan, error) {
		var out []orphan
		for _, itf := range snap.InterfaceList {
			ext := itf.ExternalID()
			if ext == "" {
				continue
			}
			if _, ok := s.inv.Interface(ext); ok {
				t.Record(ext, itf.Name, reconcile.Noop())
				continue
			}
			out = append(out, orphan{id: itf.ID, key: ext, name: itf.Name})
		}
		return out, nil
	}
}

func (s *Service) disks(snap *registry.Snapshot) func(context.Context, *reconcile.Tally) ([]orphan, error) {
	return func(_ context.Context, t *reconcile.Tally) ([]orphan, error) {
		var out []orphan
		for _, d := range snap.DiskList {
			ext := d.ExternalID()
			if ext == "" {
				continue
			}
			if s.inv.HasVolume(ext) {
				t.Record(ext, d.Name, reconcile.Noop())
				continue
			}
			out = append(out, orphan{id: d.ID, key: ext, name: d.Name})
		}
		return out, nil
	}
}

func (s *Service) machines(snap *registry.Snapshot) func(context.Context, *reconcile.Tally) ([]orphan, error) {
	return func(_ context.Context, t *reconcile.Tally) ([]orphan, error) {
		live := s.inv.LiveIDs()
		var out []orphan
		for _, vm := range snap.VMList {
			ext := vm.ExternalID()
			if ext == "" {
				continue
			}
			if _, ok := live[ext]; ok {
				t.Record(ext, vm.Name, reconcile.Noop())
				continue
			}
			out = append(out, orphan{id: vm.ID, key: ext, name: vm.Name})
		}
		return out, nil
	}
}

// prefixes finds empty private prefixes. Global prefixes may be used outside
// the managed scope and are kept.
func (s *Service) prefixes(snap *registry.Snapshot) func(context.Context, *reconcile.Tally) ([]orphan, error) {
	return func(ctx context.Context, t *reconcile.Tally) ([]orphan, error) {
		var out []orphan
		for _, p := range snap.PrefixList {
			ext := p.ExternalID()
			if ext == "" || p.VRF == nil {
				continue
			}
			count, err := s.reg.CountIPAddresses(ctx, p.Prefix, p.VRF.ID)
			if err != nil {
				return nil, fmt.Errorf("count addresses in %s: %w", p.Prefix, err)
			}
			if count > 0 {
				t.Record(ext, p.Prefix, reconcile.Noop())
				continue
			}
			out = append(out, orphan{id: p.ID, key: ext, name: p.Prefix})
		}
		return out, nil
	}
}

func (s *Service) vrfs(snap *registry.Snapshot) func(context.Context, *reconcile.Tally) ([]orphan, error) {
	return func(_ context.Context, t *reconcile.Tally) ([]orphan, error) {
		var out []orphan
		for _, v := range snap.VRFList {
			ext := v.ExternalID()
			if ext == "" {
				continue
			}
			if v.IPAddressCount > 0 || v.PrefixCount > 0 {
				t.Record(ext, v.Name, reconcile.Noop())
				continue
			}
			out = append(out, orphan{id: v.ID, key: ext, name: v.Name})
		}
		return out, nil
	}
}

// Delay reports the wait before each batch.
func (s *Service) Delay() time.Duration {
	if s.opts.DryRun {
		return 0
	}
	return s.opts.CleanupDelay
}
