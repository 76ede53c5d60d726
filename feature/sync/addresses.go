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

// addressTarget is one address to place on a registry interface.
type addressTarget struct {
	bare      string
	value     string
	status    source.AddressStatus
	class     source.AddressClass
	networkID string
	itf       registry.VMInterface
}

func (d *Driver) syncAddresses(ctx context.Context, t *reconcile.Tally) error {
	for _, itf := range d.inv.Interfaces {
		have, ok := d.snap.Interfaces[itf.ID]
		for _, a := range itf.Addresses {
			bare := a.IP.String()
			switch {
			case !ok:
				t.Record(bare, itf.Name, reconcile.Skip("interface "+itf.ID+" "+reconcile.ErrNotFound.Error()))
				continue
			case a.Value == "":
				t.Record(bare, itf.Name, reconcile.Skip("subnet "+a.SubnetID+" "+reconcile.ErrNotFound.Error()))
				continue
			}
			dec, err := d.syncAddress(ctx, addressTarget{
				bare:      bare,
				value:     a.Value,
				status:    a.Status,
				class:     a.Class,
				networkID: itf.NetworkID,
				itf:       have,
			})
			if err != nil {
				return fmt.Errorf("address %s on interface %s: %w", a.Value, itf.ID, err)
			}
			t.Record(bare, itf.Name, dec)
		}
	}
	return nil
}

func (d *Driver) syncFloating(ctx context.Context, t *reconcile.Tally) error {
	for _, f := range d.inv.FloatingIPs {
		bare := f.IP.String()
		have, ok := d.snap.Interfaces[f.InterfaceID]
		if !ok {
			t.Record(bare, f.ID, reconcile.Skip("interface "+f.InterfaceID+" "+reconcile.ErrNotFound.Error()))
			continue
		}
		dec, err := d.syncAddress(ctx, addressTarget{
			bare:      bare,
			value:     f.Value,
			status:    source.AddressActive,
			class:     f.Class,
			networkID: f.NetworkID,
			itf:       have,
		})
		if err != nil {
			return fmt.Errorf("floating ip %s: %w", f.ID, err)
		}
		t.Record(bare, f.ID, dec)
	}
	return nil
}

func (d *Driver) syncAddress(ctx context.Context, a addressTarget) (reconcile.Decision, error) {
	var (
		have  *registry.IPAddress
		vrfID int
	)
	switch a.class {
	case source.ClassGlobal:
		if existing, ok := d.snap.WAN[a.bare]; ok {
			have = &existing
		}
	case source.ClassPrivate:
		vrf, ok := d.snap.VRFs[a.networkID]
		if !ok {
			return reconcile.Decision{}, fmt.Errorf("no vrf for network %s: %w", a.networkID, reconcile.ErrDataInconsistency)
		}
		vrfID = vrf.ID
		var err error
		if have, err = d.findPrivate(ctx, a.bare, vrf); err != nil {
			return reconcile.Decision{}, err
		}
	default:
		return reconcile.Skip(a.class.String() + " address space is not managed"), nil
	}

	dec := DecideAddress(a.status, a.itf.ID, have)
	var err error
	switch dec.Op {
	case reconcile.OpCreate:
		_, err = d.create(ctx, registry.KindIPAddress, d.addressPayload(a.value, a.status, vrfID, a.itf.ID))
	case reconcile.OpUpdate:
		err = d.update(ctx, registry.KindIPAddress, have.ID, registry.IPAddressPayload{
			Status:             string(a.status),
			AssignedObjectType: registry.AssignedInterface,
			AssignedObjectID:   registry.IntPtr(a.itf.ID),
		})
	}
	return dec, err
}

// findPrivate resolves a private address by (address, vrf). The address alone
// is not an identity: the same value may live in several VRFs. An address
// recorded only in other VRFs is created anew in vrf and never moved.
func (d *Driver) findPrivate(ctx context.Context, bare string, vrf registry.VRF) (*registry.IPAddress, error) {
	candidates := d.snap.LAN[bare]
	if len(candidates) == 0 {
		return nil, nil
	}
	for _, c := range candidates {
		if registry.RefID(c.VRF) == vrf.ID {
			return &c, nil
		}
	}
	found, err := d.reg.FindIPAddress(ctx, bare, vrf.ID)
	if errors.Is(err, reconcile.ErrNotFound) {
		others := make([]string, 0, len(candidates))
		for _, c := range candidates {
			if c.VRF != nil {
				others = append(others, c.VRF.Name)
			}
		}
		d.logger.Warn("Address exists in other VRFs, creating it in the network VRF",
			zap.String("address", bare),
			zap.String("vrf", vrf.Name),
			zap.Strings("other_vrfs", others))
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return found, nil
}
