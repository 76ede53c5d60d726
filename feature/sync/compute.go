package sync

import (
	"context"
	"fmt"

	"netbox-sync/core/reconcile"
	"netbox-sync/feature/registry"
	"netbox-sync/feature/source"

	"go.uber.org/zap"
)

func (d *Driver) recordSkipped(t *reconcile.Tally, kind string) {
	for _, s := range d.inv.Skipped {
		if s.Kind == kind {
			t.Record(s.ID, "", reconcile.Skip(s.Reason))
		}
	}
}

// matchInstance finds the registry machine of inst. A machine recorded under
// another external ID is reused when it carries the same name and tenant and
// its recorded ID is gone from the source: the instance was replaced.
func (d *Driver) matchInstance(inst source.Instance, live map[string]struct{}) *registry.VirtualMachine {
	if vm, ok := d.snap.VMs[inst.ID]; ok {
		return &vm
	}
	for _, name := range []string{inst.Name, inst.CustomName} {
		vm, ok := d.snap.VMsByName[name]
		if !ok {
			continue
		}
		if _, stillLive := live[vm.ExternalID()]; stillLive {
			continue
		}
		if vm.CustomFields.String(registry.FieldTenant) != inst.Tenant {
			d.logger.Info("Name taken by a machine of another tenant",
				zap.String("external_id", inst.ID),
				zap.String("name", name),
				zap.String("recorded_id", vm.ExternalID()))
			continue
		}
		d.logger.Info("Instance replaced, reusing machine",
			zap.String("external_id", inst.ID),
			zap.String("recorded_id", vm.ExternalID()),
			zap.Int("id", vm.ID))
		return &vm
	}
	return nil
}

// writeMachine creates or updates a machine, retrying once with the custom name.
func (d *Driver) writeMachine(ctx context.Context, have *registry.VirtualMachine, name, custom string, payload registry.VirtualMachinePayload) error {
	current := ""
	if have != nil {
		current = have.Name
	}
	primary, fallback := names(current, name, custom)
	_, err := reconcile.WithNameFallback(ctx, primary, fallback, func(ctx context.Context, n string) error {
		p := payload
		p.Name = n
		if have == nil {
			_, err := d.create(ctx, registry.KindVirtualMachine, p)
			return err
		}
		return d.update(ctx, registry.KindVirtualMachine, have.ID, p)
	})
	return err
}

func (d *Driver) syncInstances(ctx context.Context, t *reconcile.Tally) error {
	d.recordSkipped(t, "instance")
	live := d.inv.LiveIDs()
	for _, inst := range d.inv.Instances {
		have := d.matchInstance(inst, live)
		dec := DecideInstance(inst, have)
		if dec.Mutates() {
			hostname := inst.Hostname
			if have != nil {
				hostname = EffectiveHostname(inst.Hostname, have.CustomFields.String(registry.FieldHostname))
			}
			payload := d.instancePayload(inst, hostname, have == nil)
			if err := d.writeMachine(ctx, have, inst.Name, inst.CustomName, payload); err != nil {
				return fmt.Errorf("instance %s: %w", inst.ID, err)
			}
		}
		t.Record(inst.ID, inst.Name, dec)
	}
	return nil
}

func (d *Driver) syncRouters(ctx context.Context, t *reconcile.Tally) error {
	for _, r := range d.inv.Routers {
		var have *registry.VirtualMachine
		if vm, ok := d.snap.VMs[r.ID]; ok {
			have = &vm
		}
		dec := DecideRouter(r, have)
		if dec.Mutates() {
			if err := d.writeMachine(ctx, have, r.Name, r.CustomName, d.routerPayload(r)); err != nil {
				return fmt.Errorf("router %s: %w", r.ID, err)
			}
		}
		t.Record(r.ID, r.Name, dec)
	}
	return nil
}

func (d *Driver) syncAgents(ctx context.Context, t *reconcile.Tally) error {
	for _, a := range d.inv.Agents {
		var have *registry.VirtualMachine
		if vm, ok := d.snap.VMs[a.ID]; ok {
			have = &vm
		}
		dec := DecideAgent(a, have)
		if dec.Mutates() {
			if err := d.writeMachine(ctx, have, a.Name, a.CustomName, d.agentPayload(a)); err != nil {
				return fmt.Errorf("dhcp agent %s: %w", a.ID, err)
			}
		}
		t.Record(a.ID, a.Name, dec)
	}
	return nil
}

func (d *Driver) syncDisks(ctx context.Context, t *reconcile.Tally) error {
	for _, v := range d.inv.Volumes {
		vm, ok := d.snap.VMs[v.ServerID]
		if !ok {
			t.Record(v.ID, v.Name, reconcile.Skip("virtual machine "+v.ServerID+" "+reconcile.ErrNotFound.Error()))
			continue
		}
		var have *registry.VirtualDisk
		current := ""
		if disk, ok := d.snap.Disks[v.ID]; ok {
			have = &disk
			current = disk.Name
		}
		dec := DecideDisk(v, vm.ID, have)
		if dec.Mutates() {
			payload := d.diskPayload(v, vm.ID)
			primary, fallback := names(current, v.Name, v.CustomName)
			_, err := reconcile.WithNameFallback(ctx, primary, fallback, func(ctx context.Context, n string) error {
				p := payload
				p.Name = n
				if have == nil {
					_, err := d.create(ctx, registry.KindVirtualDisk, p)
					return err
				}
				return d.update(ctx, registry.KindVirtualDisk, have.ID, p)
			})
			if err != nil {
				return fmt.Errorf("volume %s: %w", v.ID, err)
			}
		}
		t.Record(v.ID, v.Name, dec)
	}
	return nil
}
