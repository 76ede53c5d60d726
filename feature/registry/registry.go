package registry

import "context"

// Reader is the read side of the registry. List methods return only objects
// carrying the provenance tag.
type Reader interface {
	// VirtualMachines lists tagged virtual machines in cluster.
	VirtualMachines(ctx context.Context, cluster string) ([]VirtualMachine, error)
	VirtualDisks(ctx context.Context) ([]VirtualDisk, error)
	// Interfaces lists tagged interfaces of virtual machines in cluster.
	Interfaces(ctx context.Context, cluster string) ([]VMInterface, error)
	VRFs(ctx context.Context) ([]VRF, error)
	Prefixes(ctx context.Context) ([]Prefix, error)
	IPAddresses(ctx context.Context) ([]IPAddress, error)

	// FindPrefix looks up a prefix by CIDR regardless of tag. vrfID 0 means
	// the global table. It returns ErrNotFound when absent.
	FindPrefix(ctx context.Context, cidr string, vrfID int) (*Prefix, error)
	// FindIPAddress looks up a tagged address within one VRF (0 for global).
	FindIPAddress(ctx context.Context, address string, vrfID int) (*IPAddress, error)
	// CountIPAddresses counts every address inside parent within one VRF.
	CountIPAddresses(ctx context.Context, parent string, vrfID int) (int, error)
	// Lookup resolves a reference object by name and returns its ID.
	Lookup(ctx context.Context, kind LookupKind, name string) (int, error)
}

// Writer issues mutations. Payloads are the *Payload types of this package;
// Update applies only the non-zero fields of the payload.
type Writer interface {
	Create(ctx context.Context, kind Kind, payload any) (int, error)
	Update(ctx context.Context, kind Kind, id int, payload any) error
	// Delete removes all ids in one request, or none of them.
	Delete(ctx context.Context, kind Kind, ids []int) error
}

// Registry is a full read/write registry.
type Registry interface {
	Reader
	Writer
}

// VirtualMachinePayload creates or updates a virtual machine.
type VirtualMachinePayload struct {
	Name         string       `json:"name,omitempty"`
	Status       string       `json:"status,omitempty"`
	Cluster      int          `json:"cluster,omitempty"`
	Device       *int         `json:"device,omitempty"`
	VCPUs        int          `json:"vcpus,omitempty"`
	Memory       int          `json:"memory,omitempty"`
	Comments     string       `json:"comments,omitempty"`
	Tags         []Tag        `json:"tags,omitempty"`
	CustomFields CustomFields `json:"custom_fields,omitempty"`
}

// DiskPayload creates or updates a virtual disk. Size is MB.
type DiskPayload struct {
	VirtualMachine int          `json:"virtual_machine,omitempty"`
	Name           string       `json:"name,omitempty"`
	Size           int          `json:"size,omitempty"`
	Tags           []Tag        `json:"tags,omitempty"`
	CustomFields   CustomFields `json:"custom_fields,omitempty"`
}

// InterfacePayload creates or updates a virtual machine interface.
type InterfacePayload struct {
	VirtualMachine int          `json:"virtual_machine,omitempty"`
	Name           string       `json:"name,omitempty"`
	PrimaryMAC     *int         `json:"primary_mac_address,omitempty"`
	Tags           []Tag        `json:"tags,omitempty"`
	CustomFields   CustomFields `json:"custom_fields,omitempty"`
}

// MACPayload creates a MAC binding on an interface.
type MACPayload struct {
	MACAddress         string `json:"mac_address"`
	AssignedObjectType string `json:"assigned_object_type"`
	AssignedObjectID   int    `json:"assigned_object_id"`
	Tags               []Tag  `json:"tags,omitempty"`
}

// VRFPayload creates or updates a VRF.
type VRFPayload struct {
	Name         string       `json:"name,omitempty"`
	Tags         []Tag        `json:"tags,omitempty"`
	CustomFields CustomFields `json:"custom_fields,omitempty"`
}

// PrefixPayload creates or updates a prefix. A nil VRF is the global table.
type PrefixPayload struct {
	Prefix       string       `json:"prefix,omitempty"`
	Status       string       `json:"status,omitempty"`
	VRF          *int         `json:"vrf,omitempty"`
	Tags         []Tag        `json:"tags,omitempty"`
	CustomFields CustomFields `json:"custom_fields,omitempty"`
}

// IPAddressPayload creates or updates an address. A nil VRF is the global table.
type IPAddressPayload struct {
	Address            string `json:"address,omitempty"`
	Status             string `json:"status,omitempty"`
	VRF                *int   `json:"vrf,omitempty"`
	AssignedObjectType string `json:"assigned_object_type,omitempty"`
	AssignedObjectID   *int   `json:"assigned_object_id,omitempty"`
	Tags               []Tag  `json:"tags,omitempty"`
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int { return &v }
