package sync_test

import (
	"context"
	"testing"

	"netbox-sync/core/reconcile"
	"netbox-sync/feature/registry"
	"netbox-sync/feature/source/sourcetest"
	netboxsync "netbox-sync/feature/sync"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefreshStatus(t *testing.T) {
	reg := newRegistry(t)
	run(t, reg, sourcetest.Document(), nil)
	writes := len(reg.Mutations())

	doc := sourcetest.Document()
	doc.Servers[0].Status = "PAUSED"
	doc.Servers = append(doc.Servers, doc.Servers[0])
	doc.Servers[3].ID = "s4-new"
	doc.Servers[3].Name = "not-synced-yet"

	obs := newRecorder()
	summary := reconcile.NewSummary("status", cluster, false)
	d := netboxsync.NewDriver(reg, build(t, doc), cfg, reconcile.Options{}, nil, obs)
	require.NoError(t, d.RefreshStatus(context.Background(), summary))

	require.Len(t, summary.Stages, 1)
	st := summary.Stages[0]
	assert.Equal(t, netboxsync.StageStatus, st.Stage)
	assert.Equal(t, 1, st.Updated)
	assert.Equal(t, 1, st.Unchanged)
	assert.Equal(t, 1, st.Skipped)
	assert.Equal(t, reconcile.Update(netboxsync.FieldStatus), obs.decisions[netboxsync.StageStatus]["s1-0000-aaaa"])

	web := vmByName(t, reg, "web-01")
	assert.Equal(t, "staged", web.Status.Value)
	assert.Equal(t, "web-01", web.CustomFields.String(registry.FieldHostname), "only status is written")
	assert.Len(t, reg.Mutations(), writes+1)
}

func TestAssociateHypervisors(t *testing.T) {
	reg := newRegistry(t)
	doc := sourcetest.Document()
	run(t, reg, doc, nil)
	reg.AddLookup(registry.LookupDevice, "rack1-node1", 77)

	nodeMap, err := netboxsync.ParseNodeMap("cmp-1=rack1-node1, Unknown=rack9-missing")
	require.NoError(t, err)

	obs := newRecorder()
	d := netboxsync.NewDriver(reg, build(t, doc), cfg, reconcile.Options{}, nil, obs)
	summary := reconcile.NewSummary("hypervisor", cluster, false)
	require.NoError(t, d.AssociateHypervisors(context.Background(), nodeMap, summary))

	st := summary.Stages[0]
	assert.Equal(t, 1, st.Updated, "web-01 runs on cmp-1")
	assert.Equal(t, 1, st.Skipped, "db-01 maps to a device the registry lacks")
	assert.Equal(t, reconcile.Update(netboxsync.FieldDevice), obs.decisions[netboxsync.StageHypervisor]["s1-0000-aaaa"])
	assert.Equal(t, 77, registry.RefID(vmByName(t, reg, "web-01").Device))

	again := reconcile.NewSummary("hypervisor", cluster, false)
	require.NoError(t, d.AssociateHypervisors(context.Background(), nodeMap, again))
	assert.Zero(t, again.Totals().Mutations())
}

func TestAssociateHypervisors_UnmappedLabel(t *testing.T) {
	reg := newRegistry(t)
	run(t, reg, webDocument(), nil)

	summary := reconcile.NewSummary("hypervisor", cluster, false)
	d := netboxsync.NewDriver(reg, build(t, webDocument()), cfg, reconcile.Options{}, nil, nil)
	require.NoError(t, d.AssociateHypervisors(context.Background(), map[string]string{}, summary))
	assert.Equal(t, 1, summary.Stages[0].Skipped)
	assert.Nil(t, vmByName(t, reg, "web1").Device)
}
