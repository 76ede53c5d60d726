package sync

import (
	"context"
	"errors"
	"fmt"

	"netbox-sync/core/reconcile"
	"netbox-sync/feature/registry"

	"go.uber.org/zap"
)

func (d *Driver) machines(ctx context.Context) (map[string]registry.VirtualMachine, []registry.VirtualMachine, error) {
	list, err := d.reg.VirtualMachines(ctx, d.cfg.Cluster)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch virtual machines: %w", err)
	}
	byID := make(map[string]registry.VirtualMachine, len(list))
	for _, vm := range list {
		if id := vm.ExternalID(); id != "" {
			byID[id] = vm
		}
	}
	return byID, list, nil
}

// RefreshStatus updates only the status of machines whose instance changed state.
func (d *Driver) RefreshStatus(ctx context.Context, summary *reconcile.Summary) (err error) {
	defer func() { summary.Finish(err) }()

	vms, _, err := d.machines(ctx)
	if err != nil {
		return err
	}
	t := reconcile.NewTally(StageStatus, d.logger, d.opts.UnchangedLogEvery, d.observer)
	defer func() { summary.Add(t.Finish()) }()

	for _, inst := range d.inv.Instances {
		vm, ok := vms[inst.ID]
		if !ok {
			t.Record(inst.ID, inst.Name, reconcile.Skip("virtual machine "+reconcile.ErrNotFound.Error()))
			continue
		}
		var diff reconcile.Diff
		reconcile.Field(&diff, FieldStatus, string(inst.Status), vm.Status.Value)
		dec := diff.Decision()
		if dec.Mutates() {
			if err := d.update(ctx, registry.KindVirtualMachine, vm.ID, registry.VirtualMachinePayload{Status: string(inst.Status)}); err != nil {
				return fmt.Errorf("instance %s: %w", inst.ID, err)
			}
		}
		t.Record(inst.ID, inst.Name, dec)
	}
	return nil
}

// AssociateHypervisors points each machine at the device its hypervisor label
// maps to. Machines without a mapped or resolvable device are skipped.
func (d *Driver) AssociateHypervisors(ctx context.Context, nodeMap map[string]string, summary *reconcile.Summary) (err error) {
	defer func() { summary.Finish(err) }()

	_, list, err := d.machines(ctx)
	if err != nil {
		return err
	}
	devices := reconcile.NewLookupCache(0, func(ctx context.Context, name string) (int, error) {
		return d.reg.Lookup(ctx, registry.LookupDevice, name)
	})
	t := reconcile.NewTally(StageHypervisor, d.logger, d.opts.UnchangedLogEvery, d.observer)
	defer func() { summary.Add(t.Finish()) }()

	for _, vm := range list {
		label := vm.CustomFields.String(registry.FieldHypervisor)
		if label == "" {
			continue
		}
		device, ok := nodeMap[label]
		if !ok {
			t.Record(vm.ExternalID(), vm.Name, reconcile.Skip("no device mapped for hypervisor "+label))
			continue
		}
		deviceID, err := devices.Get(ctx, device)
		if errors.Is(err, reconcile.ErrNotFound) {
			t.Record(vm.ExternalID(), vm.Name, reconcile.Skip("device "+device+" "+reconcile.ErrNotFound.Error()))
			continue
		}
		if err != nil {
			return fmt.Errorf("device %s: %w", device, err)
		}

		var diff reconcile.Diff
		reconcile.Field(&diff, FieldDevice, deviceID, registry.RefID(vm.Device))
		dec := diff.Decision()
		if dec.Mutates() {
			if err := d.update(ctx, registry.KindVirtualMachine, vm.ID, registry.VirtualMachinePayload{Device: registry.IntPtr(deviceID)}); err != nil {
				return fmt.Errorf("machine %s: %w", vm.Name, err)
			}
		}
		d.logger.Debug("Hypervisor resolved",
			zap.String("name", vm.Name),
			zap.String("hypervisor", label),
			zap.Int("device_id", deviceID))
		t.Record(vm.ExternalID(), vm.Name, dec)
	}
	return nil
}
