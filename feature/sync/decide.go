package sync

import (
	"strings"

	"netbox-sync/core/reconcile"
	"netbox-sync/feature/registry"
	"netbox-sync/feature/source"
)

// Field names reported in update decisions.
const (
	FieldName       = "name"
	FieldExternalID = "external_id"
	FieldTenant     = "tenant"
	FieldStatus     = "status"
	FieldHypervisor = "hypervisor"
	FieldHostname   = "hostname"
	FieldFlavor     = "flavor"
	FieldVCPUs      = "vcpus"
	FieldMemory     = "memory"
	FieldSwap       = "swap"
	FieldEphemeral  = "ephemeral"
	FieldSize       = "size"
	FieldMachine    = "virtual_machine"
	FieldPrefix     = "prefix"
	FieldInterface  = "interface"
	FieldPrimaryMAC = "primary_mac_address"
	FieldDevice     = "device"
)

// EffectiveHostname returns the hostname to record. A recorded hostname is
// never replaced by the unknown sentinel.
func EffectiveHostname(observed, recorded string) string {
	if observed == source.Unknown && recorded != "" && recorded != source.Unknown {
		return recorded
	}
	return observed
}

// DecideInstance compares a compute instance with its registry machine. Disk
// size is owned by the disk stage and not compared here.
func DecideInstance(want source.Instance, have *registry.VirtualMachine) reconcile.Decision {
	if have == nil {
		return reconcile.Create()
	}
	cf := have.CustomFields
	var d reconcile.Diff
	d.Check(FieldName, reconcile.NameMatches(have.Name, want.Name, want.CustomName))
	reconcile.Field(&d, FieldExternalID, want.ID, have.ExternalID())
	reconcile.Field(&d, FieldTenant, want.Tenant, cf.String(registry.FieldTenant))
	reconcile.Field(&d, FieldStatus, string(want.Status), have.Status.Value)
	reconcile.Field(&d, FieldHypervisor, want.Hypervisor, cf.String(registry.FieldHypervisor))
	recorded := cf.String(registry.FieldHostname)
	reconcile.Field(&d, FieldHostname, EffectiveHostname(want.Hostname, recorded), recorded)
	reconcile.Field(&d, FieldFlavor, want.Flavor.Name, cf.String(registry.FieldFlavor))
	reconcile.Field(&d, FieldVCPUs, want.Flavor.VCPUs, int(have.VCPUs))
	reconcile.Field(&d, FieldMemory, want.Flavor.RAM, have.Memory)
	reconcile.Field(&d, FieldSwap, want.Flavor.Swap, cf.Int(registry.FieldSwap))
	reconcile.Field(&d, FieldEphemeral, want.Flavor.Ephemeral, cf.Int(registry.FieldEphemeral))
	return d.Decision()
}

// DecideRouter compares name and status.
func DecideRouter(want source.Router, have *registry.VirtualMachine) reconcile.Decision {
	if have == nil {
		return reconcile.Create()
	}
	var d reconcile.Diff
	d.Check(FieldName, reconcile.NameMatches(have.Name, want.Name, want.CustomName))
	reconcile.Field(&d, FieldStatus, string(want.Status), have.Status.Value)
	return d.Decision()
}

// DecideAgent compares the name only.
func DecideAgent(want source.Agent, have *registry.VirtualMachine) reconcile.Decision {
	if have == nil {
		return reconcile.Create()
	}
	var d reconcile.Diff
	d.Check(FieldName, reconcile.NameMatches(have.Name, want.Name, want.CustomName))
	return d.Decision()
}

// DecideDisk compares size, name and owning machine.
func DecideDisk(want source.Volume, machineID int, have *registry.VirtualDisk) reconcile.Decision {
	if have == nil {
		return reconcile.Create()
	}
	var d reconcile.Diff
	reconcile.Field(&d, FieldSize, want.SizeMB, have.Size)
	d.Check(FieldName, reconcile.NameMatches(have.Name, want.Name, want.CustomName))
	reconcile.Field(&d, FieldMachine, machineID, have.VirtualMachine.ID)
	return d.Decision()
}

// DecideInterface compares name and owning machine.
func DecideInterface(want source.Interface, machineID int, have *registry.VMInterface) reconcile.Decision {
	if have == nil {
		return reconcile.Create()
	}
	var d reconcile.Diff
	d.Check(FieldName, reconcile.NameMatches(have.Name, want.Name, want.CustomName))
	reconcile.Field(&d, FieldMachine, machineID, have.VirtualMachine.ID)
	return d.Decision()
}

// DecideAddress compares status and the assigned interface. Address and
// prefix length never change once created.
func DecideAddress(status source.AddressStatus, interfaceID int, have *registry.IPAddress) reconcile.Decision {
	if have == nil {
		return reconcile.Create()
	}
	var d reconcile.Diff
	reconcile.Field(&d, FieldStatus, string(status), have.Status.Value)
	reconcile.Field(&d, FieldInterface, interfaceID, have.InterfaceID())
	return d.Decision()
}

// DecideSubnet compares the CIDR only.
func DecideSubnet(want source.Subnet, have *registry.Prefix) reconcile.Decision {
	if have == nil {
		return reconcile.Create()
	}
	var d reconcile.Diff
	reconcile.Field(&d, FieldPrefix, want.CIDR, have.Prefix)
	return d.Decision()
}

// VRFName derives the display name of the VRF of a private network.
func VRFName(cluster string, network source.Network) string {
	return reconcile.Truncate(vrfPattern(cluster)+network.Name, reconcile.MaxNameLen)
}

func vrfPattern(cluster string) string {
	return "OpenStack_" + cluster + "_"
}

// DecideVRF keeps a name an operator gave the VRF. Only a name that still
// follows the derived pattern is brought back to the derived name.
func DecideVRF(want, cluster string, have *registry.VRF) reconcile.Decision {
	switch {
	case have == nil:
		return reconcile.Create()
	case have.Name == want:
		return reconcile.Noop()
	case !strings.Contains(have.Name, vrfPattern(cluster)):
		return reconcile.Noop()
	default:
		return reconcile.Update(FieldName)
	}
}
