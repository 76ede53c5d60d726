package sync

import (
	"context"
	"errors"
	"fmt"

	"netbox-sync/core/reconcile"
	"netbox-sync/feature/registry"
	"netbox-sync/feature/source"

	"go.uber.org/zap"
)

func (d *Driver) syncInterfaces(ctx context.Context, t *reconcile.Tally) error {
	d.recordSkipped(t, "interface")
	for _, itf := range d.inv.Interfaces {
		vm, ok := d.snap.VMs[itf.DeviceID]
		if !ok {
			t.Record(itf.ID, itf.Name, reconcile.Skip("virtual machine "+itf.DeviceID+" "+reconcile.ErrNotFound.Error()))
			continue
		}
		var have *registry.VMInterface
		current := ""
		if existing, ok := d.snap.Interfaces[itf.ID]; ok {
			have = &existing
			current = existing.Name
		}
		dec := DecideInterface(itf, vm.ID, have)
		if dec.Mutates() {
			payload := d.interfacePayload(itf, vm.ID)
			primary, fallback := names(current, itf.Name, itf.CustomName)
			_, err := reconcile.WithNameFallback(ctx, primary, fallback, func(ctx context.Context, n string) error {
				p := payload
				p.Name = n
				if have == nil {
					_, err := d.create(ctx, registry.KindInterface, p)
					return err
				}
				return d.update(ctx, registry.KindInterface, have.ID, p)
			})
			if err != nil {
				return fmt.Errorf("interface %s: %w", itf.ID, err)
			}
		}
		t.Record(itf.ID, itf.Name, dec)
	}
	return nil
}

// syncMACs binds each interface MAC and makes one binding primary. Binding
// failures are logged and skipped.
func (d *Driver) syncMACs(ctx context.Context, t *reconcile.Tally) error {
	for _, itf := range d.inv.Interfaces {
		if itf.MAC == "" {
			continue
		}
		have, ok := d.snap.Interfaces[itf.ID]
		if !ok {
			t.Record(itf.ID, itf.Name, reconcile.Skip("interface "+reconcile.ErrNotFound.Error()))
			continue
		}
		if len(have.MACAddresses) > 0 && have.PrimaryMAC != nil {
			t.Record(itf.ID, itf.Name, reconcile.Noop())
			continue
		}
		if err := d.arm(ctx); err != nil {
			return err
		}

		dec := reconcile.Update(FieldPrimaryMAC)
		var macID int
		if len(have.MACAddresses) > 0 {
			macID = have.MACAddresses[0].ID
		} else {
			id, err := d.create(ctx, registry.KindMACAddress, registry.MACPayload{
				MACAddress:         itf.MAC,
				AssignedObjectType: registry.AssignedInterface,
				AssignedObjectID:   have.ID,
				Tags:               d.tags(),
			})
			if err != nil {
				d.logger.Warn("Failed to create MAC address",
					zap.String("external_id", itf.ID),
					zap.String("mac", itf.MAC),
					zap.Error(err))
				t.Record(itf.ID, itf.Name, reconcile.Skip("mac create failed: "+err.Error()))
				continue
			}
			macID = id
			dec = reconcile.Create()
		}

		if err := d.update(ctx, registry.KindInterface, have.ID, registry.InterfacePayload{PrimaryMAC: registry.IntPtr(macID)}); err != nil {
			d.logger.Warn("Failed to set primary MAC address",
				zap.String("external_id", itf.ID),
				zap.Int("mac_id", macID),
				zap.Error(err))
			t.Record(itf.ID, itf.Name, reconcile.Skip("primary mac failed: "+err.Error()))
			continue
		}
		t.Record(itf.ID, itf.Name, dec)
	}
	return nil
}

func (d *Driver) syncVRFs(ctx context.Context, t *reconcile.Tally) error {
	for _, n := range d.inv.PrivateNetworks {
		name := VRFName(d.cfg.Cluster, n)
		var have *registry.VRF
		if vrf, ok := d.snap.VRFs[n.ID]; ok {
			have = &vrf
		}
		dec := DecideVRF(name, d.cfg.Cluster, have)
		var err error
		switch dec.Op {
		case reconcile.OpCreate:
			_, err = d.create(ctx, registry.KindVRF, registry.VRFPayload{
				Name:         name,
				Tags:         d.tags(),
				CustomFields: registry.CustomFields{registry.FieldNetworkID: n.ID},
			})
		case reconcile.OpUpdate:
			err = d.update(ctx, registry.KindVRF, have.ID, registry.VRFPayload{Name: name})
		}
		if err != nil {
			return fmt.Errorf("vrf for network %s: %w", n.ID, err)
		}
		t.Record(n.ID, name, dec)
	}
	return nil
}

func (d *Driver) syncSubnets(ctx context.Context, t *reconcile.Tally) error {
	for _, sn := range d.inv.UsedSubnets() {
		dec, err := d.syncSubnet(ctx, sn)
		if err != nil {
			return fmt.Errorf("subnet %s (%s): %w", sn.ID, sn.CIDR, err)
		}
		t.Record(sn.ID, sn.CIDR, dec)
	}
	return nil
}

// syncSubnet resolves one subnet. A known subnet is matched by ID. A global one
// may already exist by CIDR and is then enriched with the ID. A private one is
// created inside the VRF of its network.
func (d *Driver) syncSubnet(ctx context.Context, sn source.Subnet) (reconcile.Decision, error) {
	if have, ok := d.snap.Prefixes[sn.ID]; ok {
		dec := DecideSubnet(sn, &have)
		if dec.Mutates() {
			if err := d.update(ctx, registry.KindPrefix, have.ID, registry.PrefixPayload{Prefix: sn.CIDR}); err != nil {
				return dec, err
			}
		}
		return dec, nil
	}

	switch sn.Class {
	case source.ClassGlobal:
		found, err := d.reg.FindPrefix(ctx, sn.CIDR, 0)
		if errors.Is(err, reconcile.ErrNotFound) {
			_, err = d.create(ctx, registry.KindPrefix, registry.PrefixPayload{
				Prefix:       sn.CIDR,
				Status:       string(source.StatusActive),
				Tags:         d.tags(),
				CustomFields: registry.CustomFields{registry.FieldSubnetID: sn.ID},
			})
			return reconcile.Create(), err
		}
		if err != nil {
			return reconcile.Decision{}, err
		}
		switch found.ExternalID() {
		case "":
			err := d.update(ctx, registry.KindPrefix, found.ID, registry.PrefixPayload{
				CustomFields: registry.CustomFields{registry.FieldSubnetID: sn.ID},
			})
			return reconcile.Update(FieldExternalID), err
		case sn.ID:
			return reconcile.Noop(), nil
		default:
			return reconcile.Skip("global prefix is recorded for subnet " + found.ExternalID()), nil
		}

	case source.ClassPrivate:
		vrf, ok := d.snap.VRFs[sn.NetworkID]
		if !ok {
			return reconcile.Decision{}, fmt.Errorf("no vrf for network %s: %w", sn.NetworkID, reconcile.ErrDataInconsistency)
		}
		_, err := d.create(ctx, registry.KindPrefix, registry.PrefixPayload{
			Prefix:       sn.CIDR,
			Status:       string(source.StatusActive),
			VRF:          registry.IntPtr(vrf.ID),
			Tags:         d.tags(),
			CustomFields: registry.CustomFields{registry.FieldSubnetID: sn.ID},
		})
		if errors.Is(err, reconcile.ErrUniquenessConflict) {
			d.logger.Warn("Prefix already exists in vrf",
				zap.String("external_id", sn.ID),
				zap.String("prefix", sn.CIDR),
				zap.String("vrf", vrf.Name))
			return reconcile.Skip("prefix already exists in vrf " + vrf.Name), nil
		}
		return reconcile.Create(), err

	default:
		return reconcile.Decision{}, fmt.Errorf("%s address space: %w", sn.Class, reconcile.ErrDataInconsistency)
	}
}
