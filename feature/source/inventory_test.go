package source_test

import (
	"testing"

	"netbox-sync/core/reconcile"
	"netbox-sync/feature/source"
	"netbox-sync/feature/source/sourcetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestBuild_Instances(t *testing.T) {
	inv, err := source.Build(sourcetest.Document(), "cl1", zap.NewNop())
	require.NoError(t, err)
	require.Len(t, inv.Instances, 2)

	web, ok := inv.Instance("s1-0000-aaaa")
	require.True(t, ok)
	assert.Equal(t, "web-01", web.Name)
	assert.Equal(t, "web-01_[s1-0000-]", web.CustomName)
	assert.Equal(t, "tenant-a", web.Tenant)
	assert.Equal(t, source.StatusActive, web.Status)
	assert.Equal(t, "cmp-1", web.Hypervisor)
	assert.Equal(t, "web-01", web.Hostname)
	assert.Equal(t, source.Profile{Name: "m1.small", VCPUs: 2, RAM: 2048, Disk: 20}, web.Flavor)

	db, ok := inv.Instance("s2-0000-bbbb")
	require.True(t, ok)
	assert.Equal(t, source.NoTenant, db.Tenant)
	assert.Equal(t, source.UnknownHypervisor, db.Hypervisor)
	assert.Equal(t, source.Unknown, db.Hostname, "hostname is only read for active instances")
	assert.Equal(t, source.StatusOffline, db.Status)

	_, ok = inv.Instance("s3-0000-cccc")
	assert.False(t, ok)
	assert.Contains(t, inv.Skipped, source.Skipped{Kind: "instance", ID: "s3-0000-cccc", Reason: "flavor f-gone not found"})
}

func TestBuild_RoutersAgentsVolumes(t *testing.T) {
	inv, err := source.Build(sourcetest.Document(), "cl1", nil)
	require.NoError(t, err)

	require.Len(t, inv.Routers, 1)
	assert.Equal(t, "Router_edge", inv.Routers[0].Name)
	assert.Equal(t, "Router_edge_[r1-0000-]", inv.Routers[0].CustomName)
	assert.Equal(t, "tenant-a", inv.Routers[0].Tenant)

	require.Len(t, inv.Agents, 1)
	assert.Equal(t, "Neutronserver_net-1", inv.Agents[0].Name)

	require.Len(t, inv.Volumes, 1, "unattached volumes are ignored")
	assert.Equal(t, 10737, inv.Volumes[0].SizeMB)
	assert.Equal(t, "data_[v1-0000-]", inv.Volumes[0].CustomName)
	assert.Equal(t, "s1-0000-aaaa", inv.Volumes[0].ServerID)
	assert.True(t, inv.HasVolume("v1-0000-dddd"))
	assert.False(t, inv.HasVolume("v2-0000-eeee"))
}

func TestBuild_Interfaces(t *testing.T) {
	inv, err := source.Build(sourcetest.Document(), "cl1", nil)
	require.NoError(t, err)

	var ids []string
	for _, itf := range inv.Interfaces {
		ids = append(ids, itf.ID)
	}
	assert.Equal(t, []string{"p1", "p2", "p3", "p4"}, ids)

	p1, _ := inv.Interface("p1")
	assert.Equal(t, "p1", p1.Name)
	assert.Equal(t, "FA:16:3E:00:00:01", p1.MAC)
	assert.Equal(t, "p1_[FA:16:3E:00:00:01]", p1.CustomName)
	require.Len(t, p1.Addresses, 1)
	assert.Equal(t, "10.0.0.5/24", p1.Addresses[0].Value)
	assert.Equal(t, source.AddressActive, p1.Addresses[0].Status)
	assert.Equal(t, source.ClassPrivate, p1.Addresses[0].Class)

	p2, _ := inv.Interface("p2")
	assert.Equal(t, source.AddressReserved, p2.Addresses[0].Status)

	p4, _ := inv.Interface("p4")
	assert.Equal(t, "a1-0000-9999", p4.DeviceID, "DHCP ports bind to the agent on their host")
	assert.Equal(t, source.AddressDHCP, p4.Addresses[0].Status)

	_, ok := inv.Interface("p5")
	assert.False(t, ok, "owner outside the allow list")
	_, ok = inv.Interface("p6")
	assert.False(t, ok, "link-local first address")
	assert.Contains(t, inv.Skipped, source.Skipped{Kind: "interface", ID: "p7", Reason: "no DHCP agent on host net-9"})
}

func TestBuild_NetworksSubnetsFloating(t *testing.T) {
	inv, err := source.Build(sourcetest.Document(), "cl1", nil)
	require.NoError(t, err)

	assert.Equal(t, []source.Network{{ID: "n-priv", Name: "private-net"}}, inv.PrivateNetworks)

	used := inv.UsedSubnets()
	require.Len(t, used, 2)
	assert.Equal(t, "sn-priv", used[0].ID)
	assert.Equal(t, source.ClassPrivate, used[0].Class)
	assert.Equal(t, "sn-pub", used[1].Name, "unnamed subnets fall back to their ID")
	assert.Equal(t, source.ClassGlobal, used[1].Class)

	require.Len(t, inv.FloatingIPs, 1)
	f := inv.FloatingIPs[0]
	assert.Equal(t, "185.10.0.50/32", f.Value)
	assert.Equal(t, "p1", f.InterfaceID)
	assert.Equal(t, "s1-0000-aaaa", f.InstanceID)
	assert.Equal(t, "n-priv", f.NetworkID)
}

func TestBuild_LiveSets(t *testing.T) {
	inv, err := source.Build(sourcetest.Document(), "cl1", nil)
	require.NoError(t, err)

	ids := inv.LiveIDs()
	assert.Len(t, ids, 5)
	assert.Contains(t, ids, "s3-0000-cccc", "skipped instances still count as live")
	assert.Contains(t, ids, "r1-0000-ffff")
	assert.Contains(t, ids, "a1-0000-9999")

	live := inv.LiveAddresses()
	assert.Equal(t, map[string]struct{}{"10.0.0.5": {}, "185.10.0.50": {}}, live["p1"])
	assert.NotContains(t, live, "p7")
}

func TestBuild_UnavailableTenants(t *testing.T) {
	doc := sourcetest.Document()
	doc.Tenants = source.Tenants{Unavailable: true}

	inv, err := source.Build(doc, "cl1", nil)
	require.NoError(t, err)
	for _, i := range inv.Instances {
		assert.Equal(t, source.NoTenant, i.Tenant)
	}
	assert.Equal(t, source.UnknownTenant, inv.Routers[0].Tenant)
}

func TestBuild_Fatal(t *testing.T) {
	t.Run("UnmappedStatus", func(t *testing.T) {
		doc := sourcetest.Document()
		doc.Servers[0].Status = "HIBERNATING"
		_, err := source.Build(doc, "cl1", nil)
		assert.ErrorIs(t, err, reconcile.ErrUnmappedStatus)
	})

	t.Run("BadAddress", func(t *testing.T) {
		doc := sourcetest.Document()
		doc.Ports[0].FixedIPs[0].IPAddress = "10.0.0"
		_, err := source.Build(doc, "cl1", nil)
		assert.ErrorIs(t, err, reconcile.ErrDataInconsistency)
	})
}

func TestParseHostname(t *testing.T) {
	assert.Equal(t, "web-01", source.ParseHostname("Ubuntu 22.04 LTS\nweb-01 login: "))
	assert.Equal(t, "db", source.ParseHostname("db login: \n"))
	assert.Equal(t, source.Unknown, source.ParseHostname(""))
	assert.Equal(t, source.Unknown, source.ParseHostname("booting..."))
}

func TestNameTruncation(t *testing.T) {
	doc := sourcetest.Document()
	long := "an-instance-name-that-is-far-too-long-for-the-registry-limit-of-64"
	doc.Servers[0].Name = long

	inv, err := source.Build(doc, "cl1", nil)
	require.NoError(t, err)
	web, _ := inv.Instance("s1-0000-aaaa")
	assert.Equal(t, long[:64], web.Name)
	assert.Equal(t, long[:53]+"_[s1-0000-]", web.CustomName)
	assert.LessOrEqual(t, len(web.CustomName), reconcile.MaxNameLen)
}
