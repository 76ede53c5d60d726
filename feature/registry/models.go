package registry

import (
	"strings"

	"netbox-sync/core/utils"
)

// Kind is a registry object endpoint, relative to /api/.
type Kind string

const (
	KindVirtualMachine Kind = "virtualization/virtual-machines"
	KindVirtualDisk    Kind = "virtualization/virtual-disks"
	KindInterface      Kind = "virtualization/interfaces"
	KindMACAddress     Kind = "dcim/mac-addresses"
	KindVRF            Kind = "ipam/vrfs"
	KindPrefix         Kind = "ipam/prefixes"
	KindIPAddress      Kind = "ipam/ip-addresses"
)

// LookupKind is a reference object resolved by name.
type LookupKind string

const (
	LookupClusterType LookupKind = "virtualization/cluster-types"
	LookupCluster     LookupKind = "virtualization/clusters"
	LookupTag         LookupKind = "extras/tags"
	LookupCustomField LookupKind = "extras/custom-fields"
	LookupDevice      LookupKind = "dcim/devices"
)

// Custom field names carried by managed objects.
const (
	FieldID          = "openstack_id"
	FieldHypervisor  = "openstack_hypervisor"
	FieldTenant      = "openstack_tenant"
	FieldFlavor      = "openstack_flavor"
	FieldSwap        = "openstack_swap"
	FieldEphemeral   = "openstack_ephemeral"
	FieldHostname    = "openstack_hostname"
	FieldInterfaceID = "openstack_interfaceid"
	FieldNetworkID   = "openstack_networkid"
	FieldVolumeID    = "openstack_volumeid"
	FieldSubnetID    = "openstack_subnetid"
)

// CustomFieldNames lists every custom field the sync writes.
var CustomFieldNames = []string{
	FieldID, FieldHypervisor, FieldTenant, FieldFlavor, FieldSwap, FieldEphemeral,
	FieldInterfaceID, FieldNetworkID, FieldVolumeID, FieldSubnetID, FieldHostname,
}

// AssignedInterface is the object type of an address or MAC bound to a VM interface.
const AssignedInterface = "virtualization.vminterface"

// Ref is a nested reference to another object.
type Ref struct {
	ID   int    `json:"id"`
	Name string `json:"name,omitempty"`
}

// RefID returns the referenced ID, or 0 for a nil reference.
func RefID(r *Ref) int {
	if r == nil {
		return 0
	}
	return r.ID
}

// Choice is an enumerated field as the registry renders it.
type Choice struct {
	Value string `json:"value"`
	Label string `json:"label,omitempty"`
}

// Tag is a provenance tag.
type Tag struct {
	ID   int    `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
	Slug string `json:"slug"`
}

// Tags is an object's tag list.
type Tags []Tag

// Has reports whether slug is present.
func (t Tags) Has(slug string) bool {
	for _, tag := range t {
		if tag.Slug == slug {
			return true
		}
	}
	return false
}

// CustomFields are the free-form custom field values of an object.
type CustomFields map[string]any

// String returns the value of key as a string, "" when unset.
func (c CustomFields) String(key string) string {
	return utils.ToString(c[key])
}

// Int returns the value of key as an int, 0 when unset.
func (c CustomFields) Int(key string) int {
	return utils.ToInt(c[key])
}

// VirtualMachine is an instance-shaped object: compute instance, router or DHCP agent.
type VirtualMachine struct {
	ID           int          `json:"id"`
	Name         string       `json:"name"`
	Status       Choice       `json:"status"`
	Cluster      *Ref         `json:"cluster"`
	Device       *Ref         `json:"device"`
	VCPUs        float64      `json:"vcpus"`
	Memory       int          `json:"memory"`
	Comments     string       `json:"comments"`
	Tags         Tags         `json:"tags"`
	CustomFields CustomFields `json:"custom_fields"`
}

// ExternalID is the source identity recorded on the object.
func (v VirtualMachine) ExternalID() string { return v.CustomFields.String(FieldID) }

// VirtualDisk is a disk attached to a virtual machine.
type VirtualDisk struct {
	ID             int          `json:"id"`
	Name           string       `json:"name"`
	Size           int          `json:"size"`
	VirtualMachine Ref          `json:"virtual_machine"`
	Tags           Tags         `json:"tags"`
	CustomFields   CustomFields `json:"custom_fields"`
}

// ExternalID is the source volume identity.
func (d VirtualDisk) ExternalID() string { return d.CustomFields.String(FieldVolumeID) }

// MACRef is a nested MAC address object.
type MACRef struct {
	ID         int    `json:"id"`
	MACAddress string `json:"mac_address"`
}

// VMInterface is a virtual machine interface.
type VMInterface struct {
	ID             int          `json:"id"`
	Name           string       `json:"name"`
	VirtualMachine Ref          `json:"virtual_machine"`
	MACAddress     *string      `json:"mac_address"`
	PrimaryMAC     *MACRef      `json:"primary_mac_address"`
	MACAddresses   []MACRef     `json:"mac_addresses"`
	Tags           Tags         `json:"tags"`
	CustomFields   CustomFields `json:"custom_fields"`
}

// ExternalID is the source port identity.
func (i VMInterface) ExternalID() string { return i.CustomFields.String(FieldInterfaceID) }

// MACAddress is a MAC binding object.
type MACAddress struct {
	ID                 int    `json:"id"`
	MACAddress         string `json:"mac_address"`
	AssignedObjectType string `json:"assigned_object_type"`
	AssignedObjectID   *int   `json:"assigned_object_id"`
	Tags               Tags   `json:"tags"`
}

// VRF is a private routing domain.
type VRF struct {
	ID             int          `json:"id"`
	Name           string       `json:"name"`
	Tags           Tags         `json:"tags"`
	CustomFields   CustomFields `json:"custom_fields"`
	IPAddressCount int          `json:"ipaddress_count"`
	PrefixCount    int          `json:"prefix_count"`
}

// ExternalID is the source network identity.
func (v VRF) ExternalID() string { return v.CustomFields.String(FieldNetworkID) }

// Prefix is a subnet.
type Prefix struct {
	ID           int          `json:"id"`
	Prefix       string       `json:"prefix"`
	Status       Choice       `json:"status"`
	VRF          *Ref         `json:"vrf"`
	Tags         Tags         `json:"tags"`
	CustomFields CustomFields `json:"custom_fields"`
}

// ExternalID is the source subnet identity.
func (p Prefix) ExternalID() string { return p.CustomFields.String(FieldSubnetID) }

// IPAddress is an address with its prefix length.
type IPAddress struct {
	ID                 int    `json:"id"`
	Address            string `json:"address"`
	Status             Choice `json:"status"`
	VRF                *Ref   `json:"vrf"`
	AssignedObjectType string `json:"assigned_object_type"`
	AssignedObjectID   *int   `json:"assigned_object_id"`
	Tags               Tags   `json:"tags"`
}

// Bare returns the address without its prefix length.
func (a IPAddress) Bare() string { return BareAddress(a.Address) }

// InterfaceID returns the assigned interface ID, or 0.
func (a IPAddress) InterfaceID() int {
	if a.AssignedObjectID == nil || a.AssignedObjectType != AssignedInterface {
		return 0
	}
	return *a.AssignedObjectID
}

// BareAddress strips a "/len" suffix.
func BareAddress(s string) string {
	if i := strings.IndexByte(s, '/'); i >= 0 {
		return s[:i]
	}
	return s
}
