package sync

import (
	"netbox-sync/feature/registry"
	"netbox-sync/feature/source"
)

func (d *Driver) tags() []registry.Tag {
	return []registry.Tag{{Slug: d.cfg.Tag}}
}

func (d *Driver) instancePayload(inst source.Instance, hostname string, create bool) registry.VirtualMachinePayload {
	p := registry.VirtualMachinePayload{
		Status:  string(inst.Status),
		Cluster: d.clusterID,
		VCPUs:   inst.Flavor.VCPUs,
		Memory:  inst.Flavor.RAM,
		Tags:    d.tags(),
		CustomFields: registry.CustomFields{
			registry.FieldID:         inst.ID,
			registry.FieldTenant:     inst.Tenant,
			registry.FieldHypervisor: inst.Hypervisor,
			registry.FieldHostname:   hostname,
			registry.FieldFlavor:     inst.Flavor.Name,
			registry.FieldSwap:       inst.Flavor.Swap,
			registry.FieldEphemeral:  inst.Flavor.Ephemeral,
		},
	}
	if create {
		p.Comments = "Created by netbox-sync for cluster " + d.cfg.Cluster
	}
	return p
}

func (d *Driver) routerPayload(r source.Router) registry.VirtualMachinePayload {
	return registry.VirtualMachinePayload{
		Status:  string(r.Status),
		Cluster: d.clusterID,
		Tags:    d.tags(),
		CustomFields: registry.CustomFields{
			registry.FieldID:     r.ID,
			registry.FieldTenant: r.Tenant,
		},
	}
}

func (d *Driver) agentPayload(a source.Agent) registry.VirtualMachinePayload {
	return registry.VirtualMachinePayload{
		Status:       string(source.StatusActive),
		Cluster:      d.clusterID,
		Tags:         d.tags(),
		CustomFields: registry.CustomFields{registry.FieldID: a.ID},
	}
}

func (d *Driver) diskPayload(v source.Volume, machineID int) registry.DiskPayload {
	return registry.DiskPayload{
		VirtualMachine: machineID,
		Size:           v.SizeMB,
		Tags:           d.tags(),
		CustomFields:   registry.CustomFields{registry.FieldVolumeID: v.ID},
	}
}

func (d *Driver) interfacePayload(itf source.Interface, machineID int) registry.InterfacePayload {
	return registry.InterfacePayload{
		VirtualMachine: machineID,
		Tags:           d.tags(),
		CustomFields:   registry.CustomFields{registry.FieldInterfaceID: itf.ID},
	}
}

func (d *Driver) addressPayload(value string, status source.AddressStatus, vrfID, interfaceID int) registry.IPAddressPayload {
	p := registry.IPAddressPayload{
		Address:            value,
		Status:             string(status),
		AssignedObjectType: registry.AssignedInterface,
		AssignedObjectID:   registry.IntPtr(interfaceID),
		Tags:               d.tags(),
	}
	if vrfID != 0 {
		p.VRF = registry.IntPtr(vrfID)
	}
	return p
}
