package source

import (
	"fmt"
	"math"
	"net/netip"
	"regexp"
	"strings"

	"netbox-sync/core/reconcile"
	"netbox-sync/core/utils"

	"go.uber.org/zap"
)

const (
	// Unknown is the sentinel for an unobservable hostname or hypervisor.
	Unknown = "unknown"
	// UnknownHypervisor is recorded when the platform does not report a host.
	UnknownHypervisor = "Unknown"
	// NoTenant is recorded for an instance whose tenant cannot be resolved.
	NoTenant = "Not associated with a Tenant"
	// UnknownTenant is recorded for a router whose tenant cannot be resolved.
	UnknownTenant = "Unknown"

	OwnerCompute       = "compute:nova"
	OwnerRouterGateway = "network:router_gateway"
	OwnerHARouter      = "network:ha_router_replicated_interface"
	OwnerRouterHA      = "network:router_ha_interface"
	OwnerDHCP          = "network:dhcp"

	dhcpAgentType = "DHCP agent"
	// 1 GiB in MB, as the exporter rounds it.
	mbPerGiB = 1073.742
)

var (
	allowedOwners = map[string]bool{
		OwnerCompute:       true,
		OwnerRouterGateway: true,
		OwnerHARouter:      true,
		OwnerRouterHA:      true,
		OwnerDHCP:          true,
	}
	loginLine   = regexp.MustCompile(`(.*)\s\blogin:\s`)
	loginSuffix = regexp.MustCompile(`\s\blogin:\s`)
)

// AddressStatus is the registry status of an IP address.
type AddressStatus string

const (
	AddressActive   AddressStatus = "active"
	AddressReserved AddressStatus = "reserved"
	AddressDHCP     AddressStatus = "dhcp"
)

// Instance is the canonical view of a compute instance.
type Instance struct {
	ID         string
	Name       string
	CustomName string
	Tenant     string
	Status     Status
	Hypervisor string
	Hostname   string
	Flavor     Profile
}

// Profile is an instance's resource profile. RAM and swap are MB, disks GB.
type Profile struct {
	Name      string
	VCPUs     int
	RAM       int
	Swap      int
	Disk      int
	Ephemeral int
}

// Router is the canonical view of a network router.
type Router struct {
	ID         string
	Name       string
	CustomName string
	Tenant     string
	Status     Status
}

// Agent is the canonical view of a DHCP agent.
type Agent struct {
	ID         string
	Host       string
	Name       string
	CustomName string
}

// Volume is the canonical view of an attached volume.
type Volume struct {
	ID         string
	Name       string
	CustomName string
	SizeMB     int
	ServerID   string
}

// Interface is the canonical view of a kept port.
type Interface struct {
	ID          string
	Name        string
	CustomName  string
	MAC         string
	DeviceID    string
	DeviceOwner string
	NetworkID   string
	Addresses   []Address
}

// Address is one fixed IP of an interface.
type Address struct {
	IP       netip.Addr
	Value    string
	SubnetID string
	Status   AddressStatus
	Class    AddressClass
}

// Subnet is the canonical view of a subnet.
type Subnet struct {
	ID        string
	Name      string
	NetworkID string
	CIDR      string
	Prefix    netip.Prefix
	Class     AddressClass
}

// Floating is a floating IP bound to an instance interface.
type Floating struct {
	ID          string
	IP          netip.Addr
	Value       string
	InterfaceID string
	InstanceID  string
	NetworkID   string
	Class       AddressClass
}

// Network is a network that carries private addresses and therefore maps to a VRF.
type Network struct {
	ID   string
	Name string
}

// Skipped records a source record dropped during normalization.
type Skipped struct {
	Kind   string
	ID     string
	Reason string
}

// Inventory is the normalized source snapshot.
type Inventory struct {
	Instances       []Instance
	Routers         []Router
	Agents          []Agent
	Volumes         []Volume
	Interfaces      []Interface
	Subnets         map[string]Subnet
	FloatingIPs     []Floating
	PrivateNetworks []Network
	Skipped         []Skipped

	serverIDs   []string
	interfaces  map[string]int
	volumes     map[string]struct{}
	instanceIdx map[string]int
}

// Build normalizes a raw document. An unmapped status or an unparsable address
// is fatal; records missing a required association are skipped and listed.
func Build(doc *Document, cluster string, log *zap.Logger) (*Inventory, error) {
	if log == nil {
		log = zap.NewNop()
	}
	inv := &Inventory{
		Subnets:     make(map[string]Subnet),
		interfaces:  make(map[string]int),
		volumes:     make(map[string]struct{}),
		instanceIdx: make(map[string]int),
	}

	tenants := make(map[string]string, len(doc.Tenants.List))
	for _, t := range doc.Tenants.List {
		tenants[t.ID] = t.Name
	}
	if doc.Tenants.Unavailable {
		log.Warn("Tenant names unavailable, instances are recorded without tenant")
	}

	if err := inv.buildInstances(doc, tenants, log); err != nil {
		return nil, err
	}
	if err := inv.buildRouters(doc, tenants); err != nil {
		return nil, err
	}
	inv.buildAgents(doc)
	inv.buildVolumes(doc)
	if err := inv.buildSubnets(doc); err != nil {
		return nil, err
	}
	if err := inv.buildInterfaces(doc, log); err != nil {
		return nil, err
	}
	inv.buildNetworks(doc)
	if err := inv.buildFloating(doc); err != nil {
		return nil, err
	}
	return inv, nil
}

func (inv *Inventory) skip(kind, id, reason string) {
	inv.Skipped = append(inv.Skipped, Skipped{Kind: kind, ID: id, Reason: reason})
}

func (inv *Inventory) buildInstances(doc *Document, tenants map[string]string, log *zap.Logger) error {
	flavors := make(map[string]Flavor, len(doc.Flavors))
	for _, f := range doc.Flavors {
		flavors[f.ID] = f
	}

	for _, s := range doc.Servers {
		inv.serverIDs = append(inv.serverIDs, s.ID)

		status, err := NormalizeStatus(s.Status)
		if err != nil {
			return fmt.Errorf("instance %s: %w", s.ID, err)
		}

		flavor, ok := flavors[s.Flavor.ID]
		if !ok {
			inv.skip("instance", s.ID, fmt.Sprintf("flavor %s %s", s.Flavor.ID, reconcile.ErrNotFound))
			continue
		}

		tenant, ok := tenants[s.TenantID]
		if !ok {
			if !doc.Tenants.Unavailable {
				log.Warn("Instance tenant not found", zap.String("external_id", s.ID), zap.String("tenant_id", s.TenantID))
			}
			tenant = NoTenant
		}

		hypervisor := UnknownHypervisor
		if s.Host != nil && *s.Host != "" {
			hypervisor = *s.Host
		}

		hostname := Unknown
		if strings.EqualFold(s.Status, "active") {
			hostname = ParseHostname(doc.Console[s.ID])
		}

		inv.instanceIdx[s.ID] = len(inv.Instances)
		inv.Instances = append(inv.Instances, Instance{
			ID:         s.ID,
			Name:       reconcile.Truncate(s.Name, reconcile.MaxNameLen),
			CustomName: reconcile.Disambiguate(s.Name, s.ID),
			Tenant:     tenant,
			Status:     status,
			Hypervisor: hypervisor,
			Hostname:   hostname,
			Flavor: Profile{
				Name:      flavor.Name,
				VCPUs:     flavor.VCPUs,
				RAM:       flavor.RAM,
				Swap:      utils.ToInt(flavor.Swap),
				Disk:      flavor.Disk,
				Ephemeral: flavor.Ephemeral,
			},
		})
	}
	return nil
}

// ParseHostname extracts the login prompt host from console output.
// It returns Unknown when there is no prompt.
func ParseHostname(console string) string {
	match := loginLine.FindString(console)
	if match == "" {
		return Unknown
	}
	host := strings.TrimSpace(loginSuffix.ReplaceAllString(match, ""))
	if host == "" {
		return Unknown
	}
	return host
}

func (inv *Inventory) buildRouters(doc *Document, tenants map[string]string) error {
	for _, r := range doc.Routers {
		status, err := NormalizeStatus(r.Status)
		if err != nil {
			return fmt.Errorf("router %s: %w", r.ID, err)
		}
		label := r.Name
		if label == "" {
			label = r.ID
		}
		name := reconcile.Truncate("Router_"+label, reconcile.MaxNameLen)
		tenant, ok := tenants[r.TenantID]
		if !ok {
			tenant = UnknownTenant
		}
		inv.Routers = append(inv.Routers, Router{
			ID:         r.ID,
			Name:       name,
			CustomName: reconcile.Disambiguate(name, r.ID),
			Tenant:     tenant,
			Status:     status,
		})
	}
	return nil
}

func (inv *Inventory) buildAgents(doc *Document) {
	for _, a := range doc.DHCPAgents {
		if a.AgentType != dhcpAgentType {
			continue
		}
		name := reconcile.Truncate("Neutronserver_"+a.Host, reconcile.MaxNameLen)
		inv.Agents = append(inv.Agents, Agent{
			ID:         a.ID,
			Host:       a.Host,
			Name:       name,
			CustomName: reconcile.Disambiguate(name, a.ID),
		})
	}
}

func (inv *Inventory) buildVolumes(doc *Document) {
	for _, v := range doc.Volumes {
		if len(v.Attachments) == 0 {
			continue
		}
		name := v.Name
		if name == "" {
			name = v.ID
		}
		name = reconcile.Truncate(name, reconcile.MaxNameLen)
		inv.volumes[v.ID] = struct{}{}
		inv.Volumes = append(inv.Volumes, Volume{
			ID:         v.ID,
			Name:       name,
			CustomName: reconcile.Suffix(name, reconcile.Truncate(v.ID, 8), 52),
			SizeMB:     int(math.Round(v.Size * mbPerGiB)),
			ServerID:   v.Attachments[0].ServerID,
		})
	}
}

func (inv *Inventory) buildSubnets(doc *Document) error {
	for _, s := range doc.Subnets {
		prefix, err := netip.ParsePrefix(s.CIDR)
		if err != nil {
			return fmt.Errorf("subnet %s cidr %q: %w", s.ID, s.CIDR, reconcile.ErrDataInconsistency)
		}
		name := s.Name
		if name == "" {
			name = s.ID
		}
		inv.Subnets[s.ID] = Subnet{
			ID:        s.ID,
			Name:      name,
			NetworkID: s.NetworkID,
			CIDR:      s.CIDR,
			Prefix:    prefix,
			Class:     ClassifyPrefix(prefix),
		}
	}
	return nil
}

func (inv *Inventory) buildInterfaces(doc *Document, log *zap.Logger) error {
	agentByHost := make(map[string]string, len(inv.Agents))
	for _, a := range inv.Agents {
		agentByHost[a.Host] = a.ID
	}

	for _, p := range doc.Ports {
		if p.DeviceOwner == "" || p.DeviceID == "" || !allowedOwners[p.DeviceOwner] {
			continue
		}
		if len(p.FixedIPs) == 0 {
			log.Debug("Port without addresses ignored", zap.String("external_id", p.ID))
			continue
		}

		first, err := netip.ParseAddr(p.FixedIPs[0].IPAddress)
		if err != nil {
			return fmt.Errorf("port %s address %q: %w", p.ID, p.FixedIPs[0].IPAddress, reconcile.ErrDataInconsistency)
		}
		if IsLoopbackOrLinkLocal(first) {
			continue
		}
		switch Classify(first) {
		case ClassGlobal:
		case ClassPrivate:
			if p.DeviceOwner != OwnerCompute && p.DeviceOwner != OwnerRouterGateway {
				continue
			}
		default:
			continue
		}

		deviceID := p.DeviceID
		if p.DeviceOwner == OwnerDHCP {
			agentID, ok := agentByHost[p.HostID]
			if !ok {
				inv.skip("interface", p.ID, "no DHCP agent on host "+p.HostID)
				continue
			}
			deviceID = agentID
		}

		status := AddressActive
		switch {
		case p.DeviceOwner == OwnerDHCP:
			status = AddressDHCP
		case p.Status == "DOWN":
			status = AddressReserved
		}

		addrs := make([]Address, 0, len(p.FixedIPs))
		for _, fip := range p.FixedIPs {
			ip, err := netip.ParseAddr(fip.IPAddress)
			if err != nil {
				return fmt.Errorf("port %s address %q: %w", p.ID, fip.IPAddress, reconcile.ErrDataInconsistency)
			}
			a := Address{IP: ip, SubnetID: fip.SubnetID, Status: status, Class: Classify(ip)}
			if sn, ok := inv.Subnets[fip.SubnetID]; ok {
				a.Value = WithPrefixLen(ip, sn.Prefix)
			}
			addrs = append(addrs, a)
		}

		name := p.Name
		if name == "" {
			name = p.ID
		}
		name = reconcile.Truncate(name, reconcile.MaxNameLen)
		mac := strings.ToUpper(p.MACAddress)

		inv.interfaces[p.ID] = len(inv.Interfaces)
		inv.Interfaces = append(inv.Interfaces, Interface{
			ID:          p.ID,
			Name:        name,
			CustomName:  reconcile.Suffix(name, mac, 44),
			MAC:         mac,
			DeviceID:    deviceID,
			DeviceOwner: p.DeviceOwner,
			NetworkID:   p.NetworkID,
			Addresses:   addrs,
		})
	}
	return nil
}

func (inv *Inventory) buildNetworks(doc *Document) {
	names := make(map[string]string, len(doc.Networks))
	for _, n := range doc.Networks {
		name := n.Name
		if name == "" {
			name = n.ID
		}
		names[n.ID] = name
	}

	seen := make(map[string]bool)
	for _, itf := range inv.Interfaces {
		for _, a := range itf.Addresses {
			if a.Class != ClassPrivate || seen[itf.NetworkID] {
				continue
			}
			seen[itf.NetworkID] = true
			name, ok := names[itf.NetworkID]
			if !ok {
				name = itf.NetworkID
			}
			inv.PrivateNetworks = append(inv.PrivateNetworks, Network{ID: itf.NetworkID, Name: name})
		}
	}
}

func (inv *Inventory) buildFloating(doc *Document) error {
	for _, f := range doc.FloatingIPs {
		if f.PortID == nil || *f.PortID == "" || f.FixedIPAddress == nil || f.PortDetails == nil ||
			f.PortDetails.DeviceOwner != OwnerCompute {
			continue
		}
		ip, err := netip.ParseAddr(f.FloatingIPAddress)
		if err != nil {
			return fmt.Errorf("floating ip %s address %q: %w", f.ID, f.FloatingIPAddress, reconcile.ErrDataInconsistency)
		}
		inv.FloatingIPs = append(inv.FloatingIPs, Floating{
			ID:          f.ID,
			IP:          ip,
			Value:       HostPrefix(ip),
			InterfaceID: *f.PortID,
			InstanceID:  f.PortDetails.DeviceID,
			NetworkID:   f.PortDetails.NetworkID,
			Class:       Classify(ip),
		})
	}
	return nil
}

// Instance returns the normalized instance with external ID id.
func (inv *Inventory) Instance(id string) (Instance, bool) {
	i, ok := inv.instanceIdx[id]
	if !ok {
		return Instance{}, false
	}
	return inv.Instances[i], true
}

// Interface returns the kept interface with external ID id.
func (inv *Inventory) Interface(id string) (Interface, bool) {
	i, ok := inv.interfaces[id]
	if !ok {
		return Interface{}, false
	}
	return inv.Interfaces[i], true
}

// HasVolume reports whether an attached volume with external ID id exists.
func (inv *Inventory) HasVolume(id string) bool {
	_, ok := inv.volumes[id]
	return ok
}

// LiveIDs is every external ID an instance-shaped registry object may carry:
// all servers (including skipped ones), routers and DHCP agents.
func (inv *Inventory) LiveIDs() map[string]struct{} {
	ids := make(map[string]struct{}, len(inv.serverIDs)+len(inv.Routers)+len(inv.Agents))
	for _, id := range inv.serverIDs {
		ids[id] = struct{}{}
	}
	for _, r := range inv.Routers {
		ids[r.ID] = struct{}{}
	}
	for _, a := range inv.Agents {
		ids[a.ID] = struct{}{}
	}
	return ids
}

// LiveAddresses indexes, per interface external ID, the bare addresses the source
// still carries: its fixed IPs plus floating IPs bound to it.
func (inv *Inventory) LiveAddresses() map[string]map[string]struct{} {
	idx := make(map[string]map[string]struct{}, len(inv.Interfaces))
	add := func(itf, ip string) {
		set, ok := idx[itf]
		if !ok {
			set = make(map[string]struct{})
			idx[itf] = set
		}
		set[ip] = struct{}{}
	}
	for _, itf := range inv.Interfaces {
		for _, a := range itf.Addresses {
			add(itf.ID, a.IP.String())
		}
	}
	for _, f := range inv.FloatingIPs {
		add(f.InterfaceID, f.IP.String())
	}
	return idx
}

// UsedSubnets returns the subnets referenced by kept interface addresses,
// in first-seen order.
func (inv *Inventory) UsedSubnets() []Subnet {
	seen := make(map[string]bool)
	var out []Subnet
	for _, itf := range inv.Interfaces {
		for _, a := range itf.Addresses {
			sn, ok := inv.Subnets[a.SubnetID]
			if !ok || seen[sn.ID] {
				continue
			}
			seen[sn.ID] = true
			out = append(out, sn)
		}
	}
	return out
}
