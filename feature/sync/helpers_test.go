package sync_test

import (
	"context"
	"testing"

	"netbox-sync/core/reconcile"
	"netbox-sync/feature/registry"
	"netbox-sync/feature/source"
	netboxsync "netbox-sync/feature/sync"

	"github.com/stretchr/testify/require"
)

const (
	tag       = "openstack-api-script"
	cluster   = "cl1"
	clusterID = 2
)

var cfg = registry.Config{Cluster: cluster, ClusterType: "OpenStack", Tag: tag}

func newRegistry(t *testing.T) *registry.Memory {
	t.Helper()
	m := registry.NewMemory(tag)
	m.AddLookup(registry.LookupClusterType, "OpenStack", 1)
	m.AddLookup(registry.LookupCluster, cluster, clusterID)
	m.AddLookup(registry.LookupTag, tag, 3)
	for i, f := range registry.CustomFieldNames {
		m.AddLookup(registry.LookupCustomField, f, 10+i)
	}
	return m
}

// recorder keeps the last decision per stage and key.
type recorder struct {
	decisions map[string]map[string]reconcile.Decision
	stages    []string
}

func newRecorder() *recorder {
	return &recorder{decisions: make(map[string]map[string]reconcile.Decision)}
}

func (r *recorder) Observe(stage, key, _ string, d reconcile.Decision) {
	if r.decisions[stage] == nil {
		r.decisions[stage] = make(map[string]reconcile.Decision)
	}
	r.decisions[stage][key] = d
}

func (r *recorder) StageDone(s reconcile.StageSummary) {
	r.stages = append(r.stages, s.Stage)
}

func build(t *testing.T, doc *source.Document) *source.Inventory {
	t.Helper()
	inv, err := source.Build(doc, cluster, nil)
	require.NoError(t, err)
	return inv
}

func run(t *testing.T, reg registry.Registry, doc *source.Document, obs reconcile.Observer) *reconcile.Summary {
	t.Helper()
	summary := reconcile.NewSummary("sync", cluster, false)
	d := netboxsync.NewDriver(reg, build(t, doc), cfg, reconcile.Options{}, nil, obs)
	require.NoError(t, d.Run(context.Background(), summary))
	return summary
}

func stageOf(t *testing.T, s *reconcile.Summary, name string) reconcile.StageSummary {
	t.Helper()
	for _, st := range s.Stages {
		if st.Stage == name {
			return st
		}
	}
	t.Fatalf("stage %s not in summary", name)
	return reconcile.StageSummary{}
}

func vmByName(t *testing.T, reg registry.Reader, name string) registry.VirtualMachine {
	t.Helper()
	vms, err := reg.VirtualMachines(context.Background(), cluster)
	require.NoError(t, err)
	for _, vm := range vms {
		if vm.Name == name {
			return vm
		}
	}
	t.Fatalf("virtual machine %s not found", name)
	return registry.VirtualMachine{}
}

func ptr(s string) *string { return &s }

// webDocument is a source with one active instance and nothing else.
func webDocument() *source.Document {
	return &source.Document{
		Flavors: []source.Flavor{{ID: "f1", Name: "m1.small", VCPUs: 2, RAM: 2048, Disk: 20}},
		Tenants: source.Tenants{List: []source.Tenant{{ID: "t-acme", Name: "acme"}}},
		Servers: []source.Server{
			{ID: "i-1", Name: "web1", Status: "ACTIVE", TenantID: "t-acme", Flavor: source.IDRef{ID: "f1"}, Host: ptr("cmp-1")},
		},
		Console: map[string]string{"i-1": "web1 login: "},
	}
}
