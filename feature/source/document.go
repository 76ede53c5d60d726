package source

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Document is the raw source snapshot as exported from the platform APIs.
type Document struct {
	Servers     []Server          `json:"servers" yaml:"servers"`
	Flavors     []Flavor          `json:"flavors" yaml:"flavors"`
	Tenants     Tenants           `json:"tenants" yaml:"tenants"`
	Volumes     []VolumeRecord    `json:"volumes" yaml:"volumes"`
	Ports       []Port            `json:"ports" yaml:"ports"`
	Networks    []NetworkRecord   `json:"networks" yaml:"networks"`
	Subnets     []SubnetRecord    `json:"subnets" yaml:"subnets"`
	FloatingIPs []FloatingIP      `json:"floating_ips" yaml:"floating_ips"`
	Routers     []RouterRecord    `json:"routers" yaml:"routers"`
	DHCPAgents  []AgentRecord     `json:"dhcp_agents" yaml:"dhcp_agents"`
	Console     map[string]string `json:"console" yaml:"console"`
}

// Server is a compute instance.
type Server struct {
	ID       string  `json:"id" yaml:"id"`
	Name     string  `json:"name" yaml:"name"`
	Status   string  `json:"status" yaml:"status"`
	TenantID string  `json:"tenant_id" yaml:"tenant_id"`
	Flavor   IDRef   `json:"flavor" yaml:"flavor"`
	Host     *string `json:"OS-EXT-SRV-ATTR:host" yaml:"OS-EXT-SRV-ATTR:host"`
}

// IDRef is a nested {"id": ...} reference.
type IDRef struct {
	ID string `json:"id" yaml:"id"`
}

// Flavor is a resource profile. Swap is "" when unset.
type Flavor struct {
	ID        string `json:"id" yaml:"id"`
	Name      string `json:"name" yaml:"name"`
	VCPUs     int    `json:"vcpus" yaml:"vcpus"`
	RAM       int    `json:"ram" yaml:"ram"`
	Disk      int    `json:"disk" yaml:"disk"`
	Swap      any    `json:"swap" yaml:"swap"`
	Ephemeral int    `json:"OS-FLV-EXT-DATA:ephemeral" yaml:"OS-FLV-EXT-DATA:ephemeral"`
}

// Tenant is a project.
type Tenant struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// Tenants is either a project list or the "none" sentinel, which the exporter
// writes when it lacked permission to list projects.
type Tenants struct {
	Unavailable bool
	List        []Tenant
}

// UnmarshalJSON accepts a list or the string "none".
func (t *Tenants) UnmarshalJSON(data []byte) error {
	if string(bytes.TrimSpace(data)) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s != "none" {
			return fmt.Errorf("tenants: unexpected string %q", s)
		}
		t.Unavailable = true
		return nil
	}
	return json.Unmarshal(data, &t.List)
}

// UnmarshalYAML accepts a sequence or the scalar "none".
func (t *Tenants) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		if node.Value != "none" {
			return fmt.Errorf("tenants: unexpected scalar %q", node.Value)
		}
		t.Unavailable = true
		return nil
	}
	return node.Decode(&t.List)
}

// VolumeRecord is a block storage volume. Size is in GiB.
type VolumeRecord struct {
	ID          string       `json:"id" yaml:"id"`
	Name        string       `json:"name" yaml:"name"`
	Size        float64      `json:"size" yaml:"size"`
	Attachments []Attachment `json:"attachments" yaml:"attachments"`
}

// Attachment binds a volume to a server.
type Attachment struct {
	ServerID string `json:"server_id" yaml:"server_id"`
}

// Port is a network port.
type Port struct {
	ID          string    `json:"id" yaml:"id"`
	Name        string    `json:"name" yaml:"name"`
	Status      string    `json:"status" yaml:"status"`
	MACAddress  string    `json:"mac_address" yaml:"mac_address"`
	NetworkID   string    `json:"network_id" yaml:"network_id"`
	DeviceID    string    `json:"device_id" yaml:"device_id"`
	DeviceOwner string    `json:"device_owner" yaml:"device_owner"`
	HostID      string    `json:"binding:host_id" yaml:"binding:host_id"`
	FixedIPs    []FixedIP `json:"fixed_ips" yaml:"fixed_ips"`
}

// FixedIP is one address of a port.
type FixedIP struct {
	IPAddress string `json:"ip_address" yaml:"ip_address"`
	SubnetID  string `json:"subnet_id" yaml:"subnet_id"`
}

// NetworkRecord is an L2 network.
type NetworkRecord struct {
	ID      string   `json:"id" yaml:"id"`
	Name    string   `json:"name" yaml:"name"`
	Subnets []string `json:"subnets" yaml:"subnets"`
}

// SubnetRecord is an L3 range of a network.
type SubnetRecord struct {
	ID        string `json:"id" yaml:"id"`
	Name      string `json:"name" yaml:"name"`
	NetworkID string `json:"network_id" yaml:"network_id"`
	CIDR      string `json:"cidr" yaml:"cidr"`
}

// FloatingIP is a routable address bound to a port.
type FloatingIP struct {
	ID                string       `json:"id" yaml:"id"`
	FloatingIPAddress string       `json:"floating_ip_address" yaml:"floating_ip_address"`
	FixedIPAddress    *string      `json:"fixed_ip_address" yaml:"fixed_ip_address"`
	PortID            *string      `json:"port_id" yaml:"port_id"`
	PortDetails       *PortDetails `json:"port_details" yaml:"port_details"`
}

// PortDetails describes the port a floating IP is bound to.
type PortDetails struct {
	DeviceID    string `json:"device_id" yaml:"device_id"`
	DeviceOwner string `json:"device_owner" yaml:"device_owner"`
	NetworkID   string `json:"network_id" yaml:"network_id"`
}

// RouterRecord is a network router.
type RouterRecord struct {
	ID       string `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	Status   string `json:"status" yaml:"status"`
	TenantID string `json:"tenant_id" yaml:"tenant_id"`
}

// AgentRecord is a network agent. Only DHCP agents are used.
type AgentRecord struct {
	ID        string `json:"id" yaml:"id"`
	AgentType string `json:"agent_type" yaml:"agent_type"`
	Host      string `json:"host" yaml:"host"`
}
