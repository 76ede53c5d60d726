package registry

import (
	"context"
	"fmt"
	"maps"
	"net/netip"
	"slices"
	"sort"
	"sync"

	"netbox-sync/core/reconcile"
)

// Mutation is one write accepted by a Memory registry.
type Mutation struct {
	Op   reconcile.Op
	Kind Kind
	ID   int
}

// Memory is an in-process registry. It backs dry runs, seeded from the live
// registry, and tests. It enforces the same uniqueness rules as the remote
// registry and cascades deletes from machines to their disks, interfaces,
// addresses and MAC bindings.
type Memory struct {
	mu         sync.Mutex
	tag        string
	nextID     int
	vms        map[int]VirtualMachine
	disks      map[int]VirtualDisk
	interfaces map[int]VMInterface
	primaryMAC map[int]int
	macs       map[int]MACAddress
	vrfs       map[int]VRF
	prefixes   map[int]Prefix
	ips        map[int]IPAddress
	lookups    map[LookupKind]map[string]int
	fallback   Reader
	log        []Mutation
}

// NewMemory returns an empty registry that scopes list reads to tag.
func NewMemory(tag string) *Memory {
	return &Memory{
		tag:        tag,
		nextID:     1,
		vms:        make(map[int]VirtualMachine),
		disks:      make(map[int]VirtualDisk),
		interfaces: make(map[int]VMInterface),
		primaryMAC: make(map[int]int),
		macs:       make(map[int]MACAddress),
		vrfs:       make(map[int]VRF),
		prefixes:   make(map[int]Prefix),
		ips:        make(map[int]IPAddress),
		lookups:    make(map[LookupKind]map[string]int),
	}
}

// AddLookup registers a reference object for Lookup.
func (m *Memory) AddLookup(kind LookupKind, name string, id int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.addLookup(kind, name, id)
}

func (m *Memory) addLookup(kind LookupKind, name string, id int) {
	if m.lookups[kind] == nil {
		m.lookups[kind] = make(map[string]int)
	}
	m.lookups[kind][name] = id
	m.bump(id)
}

// Seed stores existing objects as-is. It accepts the object types of this package.
func (m *Memory) Seed(objs ...any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, obj := range objs {
		switch o := obj.(type) {
		case VirtualMachine:
			o.CustomFields = maps.Clone(o.CustomFields)
			if o.Cluster != nil && o.Cluster.Name != "" {
				m.addLookup(LookupCluster, o.Cluster.Name, o.Cluster.ID)
			}
			m.vms[o.ID] = o
			m.bump(o.ID)
		case VirtualDisk:
			o.CustomFields = maps.Clone(o.CustomFields)
			m.disks[o.ID] = o
			m.bump(o.ID)
		case VMInterface:
			o.CustomFields = maps.Clone(o.CustomFields)
			for _, mac := range o.MACAddresses {
				id := o.ID
				m.macs[mac.ID] = MACAddress{ID: mac.ID, MACAddress: mac.MACAddress, AssignedObjectType: AssignedInterface, AssignedObjectID: &id}
				m.bump(mac.ID)
			}
			if o.PrimaryMAC != nil {
				m.primaryMAC[o.ID] = o.PrimaryMAC.ID
			}
			m.interfaces[o.ID] = o
			m.bump(o.ID)
		case VRF:
			o.CustomFields = maps.Clone(o.CustomFields)
			m.vrfs[o.ID] = o
			m.bump(o.ID)
		case Prefix:
			o.CustomFields = maps.Clone(o.CustomFields)
			m.prefixes[o.ID] = o
			m.bump(o.ID)
		case IPAddress:
			m.ips[o.ID] = o
			m.bump(o.ID)
		default:
			return fmt.Errorf("cannot seed %T", obj)
		}
	}
	return nil
}

// SeedFrom copies every tagged object of cluster from r and falls back to r
// for lookups and objects outside the tagged scope.
func (m *Memory) SeedFrom(ctx context.Context, r Reader, cluster string) error {
	snap, err := Fetch(ctx, r, cluster)
	if err != nil {
		return err
	}
	var objs []any
	for _, v := range snap.VMs {
		objs = append(objs, v)
	}
	for _, d := range snap.Disks {
		objs = append(objs, d)
	}
	for _, i := range snap.Interfaces {
		objs = append(objs, i)
	}
	for _, v := range snap.VRFs {
		objs = append(objs, v)
	}
	for _, p := range snap.Prefixes {
		objs = append(objs, p)
	}
	for _, a := range snap.Addresses {
		objs = append(objs, a)
	}
	if err := m.Seed(objs...); err != nil {
		return err
	}
	if id, err := r.Lookup(ctx, LookupCluster, cluster); err == nil {
		m.AddLookup(LookupCluster, cluster, id)
	}
	m.mu.Lock()
	m.fallback = r
	m.mu.Unlock()
	return nil
}

// Mutations returns the writes accepted so far.
func (m *Memory) Mutations() []Mutation {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.log)
}

func (m *Memory) bump(id int) {
	if id >= m.nextID {
		m.nextID = id + 1
	}
}

func (m *Memory) record(op reconcile.Op, kind Kind, id int) {
	m.log = append(m.log, Mutation{Op: op, Kind: kind, ID: id})
}

func (m *Memory) clusterName(id int) string {
	for name, cid := range m.lookups[LookupCluster] {
		if cid == id {
			return name
		}
	}
	return ""
}

func sortedValues[T any](src map[int]T, keep func(T) bool) []T {
	ids := slices.Collect(maps.Keys(src))
	sort.Ints(ids)
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		if keep(src[id]) {
			out = append(out, src[id])
		}
	}
	return out
}

// VirtualMachines implements Reader.
func (m *Memory) VirtualMachines(_ context.Context, cluster string) ([]VirtualMachine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return sortedValues(m.vms, func(v VirtualMachine) bool {
		return v.Tags.Has(m.tag) && v.Cluster != nil && v.Cluster.Name == cluster
	}), nil
}

// VirtualDisks implements Reader.
func (m *Memory) VirtualDisks(_ context.Context) ([]VirtualDisk, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return sortedValues(m.disks, func(d VirtualDisk) bool { return d.Tags.Has(m.tag) }), nil
}

// Interfaces implements Reader.
func (m *Memory) Interfaces(_ context.Context, cluster string) ([]VMInterface, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := sortedValues(m.interfaces, func(i VMInterface) bool {
		vm, ok := m.vms[i.VirtualMachine.ID]
		return i.Tags.Has(m.tag) && ok && vm.Cluster != nil && vm.Cluster.Name == cluster
	})
	for k := range out {
		out[k] = m.interfaceView(out[k])
	}
	return out, nil
}

func (m *Memory) interfaceView(i VMInterface) VMInterface {
	i.MACAddresses = nil
	i.PrimaryMAC = nil
	i.MACAddress = nil
	for _, mac := range sortedValues(m.macs, func(a MACAddress) bool {
		return a.AssignedObjectID != nil && *a.AssignedObjectID == i.ID
	}) {
		ref := MACRef{ID: mac.ID, MACAddress: mac.MACAddress}
		i.MACAddresses = append(i.MACAddresses, ref)
		if m.primaryMAC[i.ID] == mac.ID {
			i.PrimaryMAC = &ref
			value := mac.MACAddress
			i.MACAddress = &value
		}
	}
	i.CustomFields = maps.Clone(i.CustomFields)
	return i
}

// VRFs implements Reader.
func (m *Memory) VRFs(_ context.Context) ([]VRF, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := sortedValues(m.vrfs, func(v VRF) bool { return v.Tags.Has(m.tag) })
	for k := range out {
		out[k].IPAddressCount, out[k].PrefixCount = m.vrfCounts(out[k].ID)
	}
	return out, nil
}

func (m *Memory) vrfCounts(id int) (ips, prefixes int) {
	for _, a := range m.ips {
		if RefID(a.VRF) == id {
			ips++
		}
	}
	for _, p := range m.prefixes {
		if RefID(p.VRF) == id {
			prefixes++
		}
	}
	return ips, prefixes
}

// Prefixes implements Reader.
func (m *Memory) Prefixes(_ context.Context) ([]Prefix, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return sortedValues(m.prefixes, func(p Prefix) bool { return p.Tags.Has(m.tag) }), nil
}

// IPAddresses implements Reader.
func (m *Memory) IPAddresses(_ context.Context) ([]IPAddress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return sortedValues(m.ips, func(a IPAddress) bool { return a.Tags.Has(m.tag) }), nil
}

// FindPrefix implements Reader.
func (m *Memory) FindPrefix(ctx context.Context, cidr string, vrfID int) (*Prefix, error) {
	m.mu.Lock()
	found := sortedValues(m.prefixes, func(p Prefix) bool { return p.Prefix == cidr && RefID(p.VRF) == vrfID })
	fallback := m.fallback
	m.mu.Unlock()
	if len(found) > 0 {
		return &found[0], nil
	}
	if fallback != nil {
		return fallback.FindPrefix(ctx, cidr, vrfID)
	}
	return nil, fmt.Errorf("prefix %s in vrf %d: %w", cidr, vrfID, reconcile.ErrNotFound)
}

// FindIPAddress implements Reader.
func (m *Memory) FindIPAddress(ctx context.Context, address string, vrfID int) (*IPAddress, error) {
	bare := BareAddress(address)
	m.mu.Lock()
	found := sortedValues(m.ips, func(a IPAddress) bool {
		return a.Tags.Has(m.tag) && a.Bare() == bare && RefID(a.VRF) == vrfID
	})
	fallback := m.fallback
	m.mu.Unlock()
	if len(found) > 0 {
		return &found[0], nil
	}
	if fallback != nil {
		return fallback.FindIPAddress(ctx, address, vrfID)
	}
	return nil, fmt.Errorf("address %s in vrf %d: %w", address, vrfID, reconcile.ErrNotFound)
}

// CountIPAddresses implements Reader. When seeded from a live registry the
// live count is authoritative, since untagged addresses are never copied.
func (m *Memory) CountIPAddresses(ctx context.Context, parent string, vrfID int) (int, error) {
	m.mu.Lock()
	fallback := m.fallback
	m.mu.Unlock()
	if fallback != nil {
		return fallback.CountIPAddresses(ctx, parent, vrfID)
	}

	p, err := netip.ParsePrefix(parent)
	if err != nil {
		return 0, fmt.Errorf("parent %q: %w", parent, reconcile.ErrDataInconsistency)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, a := range m.ips {
		addr, err := netip.ParseAddr(a.Bare())
		if err == nil && RefID(a.VRF) == vrfID && p.Contains(addr) {
			n++
		}
	}
	return n, nil
}

// Lookup implements Reader.
func (m *Memory) Lookup(ctx context.Context, kind LookupKind, name string) (int, error) {
	m.mu.Lock()
	id, ok := m.lookups[kind][name]
	fallback := m.fallback
	m.mu.Unlock()
	if ok {
		return id, nil
	}
	if fallback != nil {
		return fallback.Lookup(ctx, kind, name)
	}
	return 0, fmt.Errorf("%s %q: %w", kind, name, reconcile.ErrNotFound)
}

// Create implements Writer.
func (m *Memory) Create(_ context.Context, kind Kind, payload any) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	if err := m.apply(kind, id, payload, true); err != nil {
		return 0, err
	}
	m.nextID++
	m.record(reconcile.OpCreate, kind, id)
	return id, nil
}

// Update implements Writer. An update of an object that exists only behind
// the fallback is recorded but not materialized.
func (m *Memory) Update(_ context.Context, kind Kind, id int, payload any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.exists(kind, id) {
		if m.fallback == nil {
			return fmt.Errorf("%s %d: %w", kind, id, reconcile.ErrNotFound)
		}
		m.record(reconcile.OpUpdate, kind, id)
		return nil
	}
	if err := m.apply(kind, id, payload, false); err != nil {
		return err
	}
	m.record(reconcile.OpUpdate, kind, id)
	return nil
}

func (m *Memory) exists(kind Kind, id int) bool {
	var ok bool
	switch kind {
	case KindVirtualMachine:
		_, ok = m.vms[id]
	case KindVirtualDisk:
		_, ok = m.disks[id]
	case KindInterface:
		_, ok = m.interfaces[id]
	case KindMACAddress:
		_, ok = m.macs[id]
	case KindVRF:
		_, ok = m.vrfs[id]
	case KindPrefix:
		_, ok = m.prefixes[id]
	case KindIPAddress:
		_, ok = m.ips[id]
	}
	return ok
}

// Delete implements Writer. Either every id is removed or none is.
func (m *Memory) Delete(_ context.Context, kind Kind, ids []int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		if !m.exists(kind, id) {
			return fmt.Errorf("%s %d: %w", kind, id, reconcile.ErrNotFound)
		}
		if kind == KindVRF {
			if ips, prefixes := m.vrfCounts(id); ips+prefixes > 0 {
				return fmt.Errorf("%s %d is still referenced by %d addresses and %d prefixes: %w", kind, id, ips, prefixes, reconcile.ErrTransport)
			}
		}
	}
	for _, id := range ids {
		m.remove(kind, id)
		m.record(reconcile.OpDelete, kind, id)
	}
	return nil
}

func (m *Memory) remove(kind Kind, id int) {
	switch kind {
	case KindVirtualMachine:
		delete(m.vms, id)
		for did, d := range m.disks {
			if d.VirtualMachine.ID == id {
				delete(m.disks, did)
			}
		}
		for iid, i := range m.interfaces {
			if i.VirtualMachine.ID == id {
				m.remove(KindInterface, iid)
			}
		}
	case KindVirtualDisk:
		delete(m.disks, id)
	case KindInterface:
		delete(m.interfaces, id)
		delete(m.primaryMAC, id)
		for aid, a := range m.ips {
			if a.InterfaceID() == id {
				delete(m.ips, aid)
			}
		}
		for mid, mac := range m.macs {
			if mac.AssignedObjectID != nil && *mac.AssignedObjectID == id {
				delete(m.macs, mid)
			}
		}
	case KindMACAddress:
		delete(m.macs, id)
		for iid, mid := range m.primaryMAC {
			if mid == id {
				delete(m.primaryMAC, iid)
			}
		}
	case KindVRF:
		delete(m.vrfs, id)
	case KindPrefix:
		delete(m.prefixes, id)
	case KindIPAddress:
		delete(m.ips, id)
	}
}

func uniqueness(msg string) error {
	return fmt.Errorf("%s: %w", msg, reconcile.ErrUniquenessConflict)
}

func tagsOf(tags []Tag) Tags {
	if tags == nil {
		return nil
	}
	return slices.Clone(Tags(tags))
}

func mergeFields(dst, src CustomFields) CustomFields {
	if dst == nil {
		dst = CustomFields{}
	}
	maps.Copy(dst, src)
	return dst
}

// apply writes payload onto object id of kind. create selects insert semantics.
func (m *Memory) apply(kind Kind, id int, payload any, create bool) error {
	switch p := payload.(type) {
	case VirtualMachinePayload:
		if kind != KindVirtualMachine {
			break
		}
		v := m.vms[id]
		v.ID = id
		v.CustomFields = maps.Clone(v.CustomFields)
		if p.Name != "" {
			v.Name = p.Name
		}
		if p.Status != "" {
			v.Status = Choice{Value: p.Status}
		}
		if p.Cluster != 0 {
			v.Cluster = &Ref{ID: p.Cluster, Name: m.clusterName(p.Cluster)}
		}
		if p.Device != nil {
			v.Device = &Ref{ID: *p.Device}
		}
		if p.VCPUs != 0 {
			v.VCPUs = float64(p.VCPUs)
		}
		if p.Memory != 0 {
			v.Memory = p.Memory
		}
		if p.Comments != "" {
			v.Comments = p.Comments
		}
		if p.Tags != nil {
			v.Tags = tagsOf(p.Tags)
		}
		v.CustomFields = mergeFields(v.CustomFields, p.CustomFields)
		for _, other := range m.vms {
			if other.ID != id && other.Name == v.Name && RefID(other.Cluster) == RefID(v.Cluster) {
				return uniqueness("Virtual machine name must be unique per cluster.")
			}
		}
		m.vms[id] = v
		return nil

	case DiskPayload:
		if kind != KindVirtualDisk {
			break
		}
		d := m.disks[id]
		d.ID = id
		d.CustomFields = maps.Clone(d.CustomFields)
		if p.VirtualMachine != 0 {
			vm, ok := m.vms[p.VirtualMachine]
			if !ok {
				return fmt.Errorf("virtual machine %d: %w", p.VirtualMachine, reconcile.ErrNotFound)
			}
			d.VirtualMachine = Ref{ID: vm.ID, Name: vm.Name}
		}
		if p.Name != "" {
			d.Name = p.Name
		}
		if p.Size != 0 {
			d.Size = p.Size
		}
		if p.Tags != nil {
			d.Tags = tagsOf(p.Tags)
		}
		d.CustomFields = mergeFields(d.CustomFields, p.CustomFields)
		for _, other := range m.disks {
			if other.ID != id && other.Name == d.Name && other.VirtualMachine.ID == d.VirtualMachine.ID {
				return uniqueness("Virtual disk with this Virtual machine and Name already exists.")
			}
		}
		m.disks[id] = d
		return nil

	case InterfacePayload:
		if kind != KindInterface {
			break
		}
		i := m.interfaces[id]
		i.ID = id
		i.CustomFields = maps.Clone(i.CustomFields)
		if p.VirtualMachine != 0 {
			vm, ok := m.vms[p.VirtualMachine]
			if !ok {
				return fmt.Errorf("virtual machine %d: %w", p.VirtualMachine, reconcile.ErrNotFound)
			}
			i.VirtualMachine = Ref{ID: vm.ID, Name: vm.Name}
		}
		if p.Name != "" {
			i.Name = p.Name
		}
		if p.PrimaryMAC != nil {
			mac, ok := m.macs[*p.PrimaryMAC]
			if !ok || mac.AssignedObjectID == nil || *mac.AssignedObjectID != id {
				return fmt.Errorf("MAC %d is not assigned to interface %d: %w", *p.PrimaryMAC, id, reconcile.ErrTransport)
			}
			m.primaryMAC[id] = *p.PrimaryMAC
		}
		if p.Tags != nil {
			i.Tags = tagsOf(p.Tags)
		}
		i.CustomFields = mergeFields(i.CustomFields, p.CustomFields)
		for _, other := range m.interfaces {
			if other.ID != id && other.Name == i.Name && other.VirtualMachine.ID == i.VirtualMachine.ID {
				return uniqueness("Interface with this Virtual machine and Name already exists.")
			}
		}
		m.interfaces[id] = i
		return nil

	case MACPayload:
		if kind != KindMACAddress || !create {
			break
		}
		if _, ok := m.interfaces[p.AssignedObjectID]; !ok {
			return fmt.Errorf("interface %d: %w", p.AssignedObjectID, reconcile.ErrNotFound)
		}
		owner := p.AssignedObjectID
		m.macs[id] = MACAddress{
			ID:                 id,
			MACAddress:         p.MACAddress,
			AssignedObjectType: p.AssignedObjectType,
			AssignedObjectID:   &owner,
			Tags:               tagsOf(p.Tags),
		}
		return nil

	case VRFPayload:
		if kind != KindVRF {
			break
		}
		v := m.vrfs[id]
		v.ID = id
		v.CustomFields = maps.Clone(v.CustomFields)
		if p.Name != "" {
			v.Name = p.Name
		}
		if p.Tags != nil {
			v.Tags = tagsOf(p.Tags)
		}
		v.CustomFields = mergeFields(v.CustomFields, p.CustomFields)
		m.vrfs[id] = v
		return nil

	case PrefixPayload:
		if kind != KindPrefix {
			break
		}
		pf := m.prefixes[id]
		pf.ID = id
		pf.CustomFields = maps.Clone(pf.CustomFields)
		if p.Prefix != "" {
			pf.Prefix = p.Prefix
		}
		if p.Status != "" {
			pf.Status = Choice{Value: p.Status}
		}
		if p.VRF != nil {
			vrf, ok := m.vrfs[*p.VRF]
			if !ok {
				return fmt.Errorf("vrf %d: %w", *p.VRF, reconcile.ErrNotFound)
			}
			pf.VRF = &Ref{ID: vrf.ID, Name: vrf.Name}
		}
		if p.Tags != nil {
			pf.Tags = tagsOf(p.Tags)
		}
		pf.CustomFields = mergeFields(pf.CustomFields, p.CustomFields)
		for _, other := range m.prefixes {
			if other.ID != id && other.Prefix == pf.Prefix && RefID(other.VRF) == RefID(pf.VRF) {
				return uniqueness("Duplicate prefix found in VRF " + pf.Prefix)
			}
		}
		m.prefixes[id] = pf
		return nil

	case IPAddressPayload:
		if kind != KindIPAddress {
			break
		}
		a := m.ips[id]
		a.ID = id
		if p.Address != "" {
			a.Address = p.Address
		}
		if p.Status != "" {
			a.Status = Choice{Value: p.Status}
		}
		if p.VRF != nil {
			vrf, ok := m.vrfs[*p.VRF]
			if !ok {
				return fmt.Errorf("vrf %d: %w", *p.VRF, reconcile.ErrNotFound)
			}
			a.VRF = &Ref{ID: vrf.ID, Name: vrf.Name}
		}
		if p.AssignedObjectID != nil {
			if _, ok := m.interfaces[*p.AssignedObjectID]; !ok {
				return fmt.Errorf("interface %d: %w", *p.AssignedObjectID, reconcile.ErrNotFound)
			}
			owner := *p.AssignedObjectID
			a.AssignedObjectID = &owner
			a.AssignedObjectType = AssignedInterface
		}
		if p.Tags != nil {
			a.Tags = tagsOf(p.Tags)
		}
		m.ips[id] = a
		return nil
	}
	return fmt.Errorf("payload %T does not apply to %s: %w", payload, kind, reconcile.ErrDataInconsistency)
}
