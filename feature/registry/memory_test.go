package registry_test

import (
	"context"
	"testing"

	"netbox-sync/core/reconcile"
	"netbox-sync/feature/registry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tag = "openstack-api-script"

var tags = []registry.Tag{{Slug: tag}}

func newMemory(t *testing.T) *registry.Memory {
	t.Helper()
	m := registry.NewMemory(tag)
	m.AddLookup(registry.LookupCluster, "cl1", 1)
	m.AddLookup(registry.LookupCluster, "cl2", 2)
	return m
}

func createVM(t *testing.T, m *registry.Memory, name, extID string, cluster int) int {
	t.Helper()
	id, err := m.Create(context.Background(), registry.KindVirtualMachine, registry.VirtualMachinePayload{
		Name: name, Status: "active", Cluster: cluster, Tags: tags,
		CustomFields: registry.CustomFields{registry.FieldID: extID},
	})
	require.NoError(t, err)
	return id
}

func TestMemory_VirtualMachineUniqueness(t *testing.T) {
	m := newMemory(t)
	ctx := context.Background()
	createVM(t, m, "web", "s1", 1)

	_, err := m.Create(ctx, registry.KindVirtualMachine, registry.VirtualMachinePayload{Name: "web", Cluster: 1, Tags: tags})
	assert.ErrorIs(t, err, reconcile.ErrUniquenessConflict)
	assert.ErrorContains(t, err, "unique per cluster")

	createVM(t, m, "web", "s9", 2)

	vms, err := m.VirtualMachines(ctx, "cl1")
	require.NoError(t, err)
	require.Len(t, vms, 1)
	assert.Equal(t, "s1", vms[0].ExternalID())
	assert.Equal(t, "cl1", vms[0].Cluster.Name)
}

func TestMemory_UpdateMergesFields(t *testing.T) {
	m := newMemory(t)
	ctx := context.Background()
	id := createVM(t, m, "web", "s1", 1)

	require.NoError(t, m.Update(ctx, registry.KindVirtualMachine, id, registry.VirtualMachinePayload{
		Status:       "offline",
		CustomFields: registry.CustomFields{registry.FieldHostname: "web01"},
	}))
	vms, _ := m.VirtualMachines(ctx, "cl1")
	assert.Equal(t, "offline", vms[0].Status.Value)
	assert.Equal(t, "web", vms[0].Name)
	assert.Equal(t, "s1", vms[0].ExternalID())
	assert.Equal(t, "web01", vms[0].CustomFields.String(registry.FieldHostname))

	err := m.Update(ctx, registry.KindVirtualMachine, 999, registry.VirtualMachinePayload{Status: "active"})
	assert.ErrorIs(t, err, reconcile.ErrNotFound)

	_, err = m.Create(ctx, registry.KindVirtualMachine, registry.VRFPayload{Name: "x"})
	assert.ErrorIs(t, err, reconcile.ErrDataInconsistency)
}

func TestMemory_InterfaceMACs(t *testing.T) {
	m := newMemory(t)
	ctx := context.Background()
	vm := createVM(t, m, "web", "s1", 1)

	itf, err := m.Create(ctx, registry.KindInterface, registry.InterfacePayload{
		VirtualMachine: vm, Name: "eth0", Tags: tags,
		CustomFields: registry.CustomFields{registry.FieldInterfaceID: "p1"},
	})
	require.NoError(t, err)

	_, err = m.Create(ctx, registry.KindInterface, registry.InterfacePayload{VirtualMachine: vm, Name: "eth0", Tags: tags})
	assert.ErrorIs(t, err, reconcile.ErrUniquenessConflict)

	mac, err := m.Create(ctx, registry.KindMACAddress, registry.MACPayload{
		MACAddress: "FA:16:3E:00:00:01", AssignedObjectType: registry.AssignedInterface, AssignedObjectID: itf, Tags: tags,
	})
	require.NoError(t, err)

	list, _ := m.Interfaces(ctx, "cl1")
	require.Len(t, list, 1)
	assert.Len(t, list[0].MACAddresses, 1)
	assert.Nil(t, list[0].PrimaryMAC)
	assert.Nil(t, list[0].MACAddress)

	require.NoError(t, m.Update(ctx, registry.KindInterface, itf, registry.InterfacePayload{PrimaryMAC: registry.IntPtr(mac)}))
	list, _ = m.Interfaces(ctx, "cl1")
	require.NotNil(t, list[0].PrimaryMAC)
	assert.Equal(t, "FA:16:3E:00:00:01", *list[0].MACAddress)

	err = m.Update(ctx, registry.KindInterface, itf, registry.InterfacePayload{PrimaryMAC: registry.IntPtr(12345)})
	assert.ErrorIs(t, err, reconcile.ErrTransport)
}

func TestMemory_VRFCountsAndDelete(t *testing.T) {
	m := newMemory(t)
	ctx := context.Background()

	vrf, err := m.Create(ctx, registry.KindVRF, registry.VRFPayload{Name: "OpenStack_cl1_net", Tags: tags,
		CustomFields: registry.CustomFields{registry.FieldNetworkID: "n1"}})
	require.NoError(t, err)
	pfx, err := m.Create(ctx, registry.KindPrefix, registry.PrefixPayload{Prefix: "10.0.0.0/24", Status: "active", VRF: registry.IntPtr(vrf), Tags: tags})
	require.NoError(t, err)
	_, err = m.Create(ctx, registry.KindPrefix, registry.PrefixPayload{Prefix: "10.0.0.0/24", VRF: registry.IntPtr(vrf), Tags: tags})
	assert.ErrorIs(t, err, reconcile.ErrUniquenessConflict)
	ip, err := m.Create(ctx, registry.KindIPAddress, registry.IPAddressPayload{Address: "10.0.0.5/24", Status: "active", VRF: registry.IntPtr(vrf), Tags: tags})
	require.NoError(t, err)

	vrfs, _ := m.VRFs(ctx)
	require.Len(t, vrfs, 1)
	assert.Equal(t, 1, vrfs[0].IPAddressCount)
	assert.Equal(t, 1, vrfs[0].PrefixCount)

	n, err := m.CountIPAddresses(ctx, "10.0.0.0/24", vrf)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, _ = m.CountIPAddresses(ctx, "10.0.0.0/24", 0)
	assert.Equal(t, 0, n)

	found, err := m.FindIPAddress(ctx, "10.0.0.5", vrf)
	require.NoError(t, err)
	assert.Equal(t, ip, found.ID)
	_, err = m.FindIPAddress(ctx, "10.0.0.5", 0)
	assert.ErrorIs(t, err, reconcile.ErrNotFound)

	assert.ErrorIs(t, m.Delete(ctx, registry.KindVRF, []int{vrf}), reconcile.ErrTransport, "populated VRFs are protected")

	require.NoError(t, m.Delete(ctx, registry.KindIPAddress, []int{ip}))
	require.NoError(t, m.Delete(ctx, registry.KindPrefix, []int{pfx}))
	require.NoError(t, m.Delete(ctx, registry.KindVRF, []int{vrf}))
}

func TestMemory_DeleteIsAtomicAndCascades(t *testing.T) {
	m := newMemory(t)
	ctx := context.Background()
	vm := createVM(t, m, "web", "s1", 1)
	other := createVM(t, m, "db", "s2", 1)

	itf, err := m.Create(ctx, registry.KindInterface, registry.InterfacePayload{VirtualMachine: vm, Name: "eth0", Tags: tags})
	require.NoError(t, err)
	_, err = m.Create(ctx, registry.KindVirtualDisk, registry.DiskPayload{VirtualMachine: vm, Name: "data", Size: 10240, Tags: tags})
	require.NoError(t, err)
	_, err = m.Create(ctx, registry.KindIPAddress, registry.IPAddressPayload{Address: "185.10.0.7/24", Status: "active",
		AssignedObjectID: registry.IntPtr(itf), Tags: tags})
	require.NoError(t, err)

	err = m.Delete(ctx, registry.KindVirtualMachine, []int{other, 999})
	assert.ErrorIs(t, err, reconcile.ErrNotFound)
	vms, _ := m.VirtualMachines(ctx, "cl1")
	assert.Len(t, vms, 2, "nothing is deleted when one id is missing")

	require.NoError(t, m.Delete(ctx, registry.KindVirtualMachine, []int{vm}))
	disks, _ := m.VirtualDisks(ctx)
	itfs, _ := m.Interfaces(ctx, "cl1")
	ips, _ := m.IPAddresses(ctx)
	assert.Empty(t, disks)
	assert.Empty(t, itfs)
	assert.Empty(t, ips)

	muts := m.Mutations()
	last := muts[len(muts)-1]
	assert.Equal(t, registry.Mutation{Op: reconcile.OpDelete, Kind: registry.KindVirtualMachine, ID: vm}, last)
}

func TestMemory_SeedFromFallsBack(t *testing.T) {
	live := newMemory(t)
	live.AddLookup(registry.LookupTag, tag, 8)
	ctx := context.Background()
	vm := createVM(t, live, "web", "s1", 1)
	_, err := live.Create(ctx, registry.KindPrefix, registry.PrefixPayload{Prefix: "185.10.0.0/24", Status: "active"})
	require.NoError(t, err)

	dry := registry.NewMemory(tag)
	require.NoError(t, dry.SeedFrom(ctx, live, "cl1"))

	vms, _ := dry.VirtualMachines(ctx, "cl1")
	require.Len(t, vms, 1)
	assert.Equal(t, vm, vms[0].ID)

	id, err := dry.Lookup(ctx, registry.LookupTag, tag)
	require.NoError(t, err)
	assert.Equal(t, 8, id)

	p, err := dry.FindPrefix(ctx, "185.10.0.0/24", 0)
	require.NoError(t, err, "untagged prefixes are found through the live registry")
	require.NoError(t, dry.Update(ctx, registry.KindPrefix, p.ID, registry.PrefixPayload{
		CustomFields: registry.CustomFields{registry.FieldSubnetID: "sn"},
	}))

	id, err = dry.Create(ctx, registry.KindVirtualMachine, registry.VirtualMachinePayload{Name: "new", Cluster: 1, Tags: tags})
	require.NoError(t, err)
	assert.Greater(t, id, vm)

	assert.Len(t, live.Mutations(), 2, "dry writes never reach the live registry")
}

func TestMemory_Seed(t *testing.T) {
	m := registry.NewMemory(tag)
	err := m.Seed(
		registry.VirtualMachine{ID: 10, Name: "web", Cluster: &registry.Ref{ID: 1, Name: "cl1"}, Tags: tags},
		registry.VMInterface{ID: 11, Name: "eth0", VirtualMachine: registry.Ref{ID: 10}, Tags: tags,
			MACAddresses: []registry.MACRef{{ID: 12, MACAddress: "AA:BB:CC:DD:EE:FF"}},
			PrimaryMAC:   &registry.MACRef{ID: 12, MACAddress: "AA:BB:CC:DD:EE:FF"}},
	)
	require.NoError(t, err)
	itfs, _ := m.Interfaces(context.Background(), "cl1")
	require.Len(t, itfs, 1)
	assert.Equal(t, "AA:BB:CC:DD:EE:FF", *itfs[0].MACAddress)

	assert.Error(t, m.Seed("not an object"))
}
