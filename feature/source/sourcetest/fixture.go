// Package sourcetest provides a small but complete inventory document for tests.
package sourcetest

import "netbox-sync/feature/source"

func ptr(s string) *string { return &s }

// Document returns a fresh fixture covering every normalization path:
//
//   - s1 web-01: active, private port p1 with a floating IP, one volume
//   - s2 db-01: shut off, unknown tenant, no host, global port p2 that is DOWN
//   - s3 orphan: references a missing flavor and is skipped
//   - r1 edge: router with a global gateway port p3
//   - a1: DHCP agent on net-1 bound by port p4; p7 has no agent and is skipped
func Document() *source.Document {
	return &source.Document{
		Flavors: []source.Flavor{
			{ID: "f1", Name: "m1.small", VCPUs: 2, RAM: 2048, Disk: 20, Swap: "", Ephemeral: 0},
		},
		Tenants: source.Tenants{List: []source.Tenant{{ID: "t1", Name: "tenant-a"}}},
		Servers: []source.Server{
			{ID: "s1-0000-aaaa", Name: "web-01", Status: "ACTIVE", TenantID: "t1", Flavor: source.IDRef{ID: "f1"}, Host: ptr("cmp-1")},
			{ID: "s2-0000-bbbb", Name: "db-01", Status: "SHUTOFF", TenantID: "t-gone", Flavor: source.IDRef{ID: "f1"}},
			{ID: "s3-0000-cccc", Name: "orphan", Status: "ACTIVE", TenantID: "t1", Flavor: source.IDRef{ID: "f-gone"}, Host: ptr("cmp-1")},
		},
		Console: map[string]string{
			"s1-0000-aaaa": "Ubuntu 22.04 LTS\nweb-01 login: ",
			"s2-0000-bbbb": "db-01 login: ",
		},
		Volumes: []source.VolumeRecord{
			{ID: "v1-0000-dddd", Name: "data", Size: 10, Attachments: []source.Attachment{{ServerID: "s1-0000-aaaa"}}},
			{ID: "v2-0000-eeee", Name: "spare", Size: 5},
		},
		Networks: []source.NetworkRecord{
			{ID: "n-priv", Name: "private-net", Subnets: []string{"sn-priv"}},
			{ID: "n-pub", Name: "public", Subnets: []string{"sn-pub"}},
		},
		Subnets: []source.SubnetRecord{
			{ID: "sn-priv", Name: "private-subnet", NetworkID: "n-priv", CIDR: "10.0.0.0/24"},
			{ID: "sn-pub", Name: "", NetworkID: "n-pub", CIDR: "185.10.0.0/24"},
		},
		Ports: []source.Port{
			{ID: "p1", Name: "", Status: "ACTIVE", MACAddress: "fa:16:3e:00:00:01", NetworkID: "n-priv",
				DeviceID: "s1-0000-aaaa", DeviceOwner: source.OwnerCompute,
				FixedIPs: []source.FixedIP{{IPAddress: "10.0.0.5", SubnetID: "sn-priv"}}},
			{ID: "p2", Name: "db-port", Status: "DOWN", MACAddress: "fa:16:3e:00:00:02", NetworkID: "n-pub",
				DeviceID: "s2-0000-bbbb", DeviceOwner: source.OwnerCompute,
				FixedIPs: []source.FixedIP{{IPAddress: "185.10.0.7", SubnetID: "sn-pub"}}},
			{ID: "p3", Status: "ACTIVE", MACAddress: "fa:16:3e:00:00:03", NetworkID: "n-pub",
				DeviceID: "r1-0000-ffff", DeviceOwner: source.OwnerRouterGateway,
				FixedIPs: []source.FixedIP{{IPAddress: "185.10.0.1", SubnetID: "sn-pub"}}},
			{ID: "p4", Status: "ACTIVE", MACAddress: "fa:16:3e:00:00:04", NetworkID: "n-pub",
				DeviceID: "dhcp-net-1", DeviceOwner: source.OwnerDHCP, HostID: "net-1",
				FixedIPs: []source.FixedIP{{IPAddress: "185.10.0.2", SubnetID: "sn-pub"}}},
			{ID: "p5", Status: "ACTIVE", MACAddress: "fa:16:3e:00:00:05", NetworkID: "n-priv",
				DeviceID: "r1-0000-ffff", DeviceOwner: "network:router_interface",
				FixedIPs: []source.FixedIP{{IPAddress: "10.0.0.1", SubnetID: "sn-priv"}}},
			{ID: "p6", Status: "ACTIVE", MACAddress: "fa:16:3e:00:00:06", NetworkID: "n-priv",
				DeviceID: "s1-0000-aaaa", DeviceOwner: source.OwnerCompute,
				FixedIPs: []source.FixedIP{{IPAddress: "169.254.1.1", SubnetID: "sn-priv"}}},
			{ID: "p7", Status: "ACTIVE", MACAddress: "fa:16:3e:00:00:07", NetworkID: "n-pub",
				DeviceID: "dhcp-net-9", DeviceOwner: source.OwnerDHCP, HostID: "net-9",
				FixedIPs: []source.FixedIP{{IPAddress: "185.10.0.3", SubnetID: "sn-pub"}}},
		},
		FloatingIPs: []source.FloatingIP{
			{ID: "fip1", FloatingIPAddress: "185.10.0.50", FixedIPAddress: ptr("10.0.0.5"), PortID: ptr("p1"),
				PortDetails: &source.PortDetails{DeviceID: "s1-0000-aaaa", DeviceOwner: source.OwnerCompute, NetworkID: "n-priv"}},
			{ID: "fip2", FloatingIPAddress: "185.10.0.51"},
		},
		Routers: []source.RouterRecord{
			{ID: "r1-0000-ffff", Name: "edge", Status: "ACTIVE", TenantID: "t1"},
		},
		DHCPAgents: []source.AgentRecord{
			{ID: "a1-0000-9999", AgentType: "DHCP agent", Host: "net-1"},
			{ID: "a2-0000-8888", AgentType: "Open vSwitch agent", Host: "net-1"},
		},
	}
}
