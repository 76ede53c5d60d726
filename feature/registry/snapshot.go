package registry

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Snapshot is a read of every tagged object the sync manages in one cluster,
// indexed by the source identity each kind carries.
type Snapshot struct {
	Cluster string

	VMList        []VirtualMachine
	DiskList      []VirtualDisk
	InterfaceList []VMInterface
	VRFList       []VRF
	PrefixList    []Prefix
	Addresses     []IPAddress

	VMs        map[string]VirtualMachine
	VMsByName  map[string]VirtualMachine
	VMsByID    map[int]VirtualMachine
	Disks      map[string]VirtualDisk
	Interfaces map[string]VMInterface
	VRFs       map[string]VRF
	Prefixes   map[string]Prefix
	// InterfacesByID holds every listed interface, tagged with a source
	// identity or not, keyed by registry ID.
	InterfacesByID map[int]VMInterface
	// LAN holds addresses inside a VRF, keyed by bare address. An address may
	// exist in several VRFs.
	LAN map[string][]IPAddress
	// WAN holds addresses in the global table, keyed by bare address.
	WAN map[string]IPAddress
}

// Fetch reads a full snapshot. The per-kind reads run concurrently.
func Fetch(ctx context.Context, r Reader, cluster string) (*Snapshot, error) {
	s := &Snapshot{Cluster: cluster}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		s.VMList, err = r.VirtualMachines(gctx, cluster)
		return wrapFetch("virtual machines", err)
	})
	g.Go(func() (err error) {
		s.DiskList, err = r.VirtualDisks(gctx)
		return wrapFetch("virtual disks", err)
	})
	g.Go(func() (err error) {
		s.InterfaceList, err = r.Interfaces(gctx, cluster)
		return wrapFetch("interfaces", err)
	})
	g.Go(func() (err error) {
		s.VRFList, err = r.VRFs(gctx)
		return wrapFetch("vrfs", err)
	})
	g.Go(func() (err error) {
		s.PrefixList, err = r.Prefixes(gctx)
		return wrapFetch("prefixes", err)
	})
	g.Go(func() (err error) {
		s.Addresses, err = r.IPAddresses(gctx)
		return wrapFetch("ip addresses", err)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	s.indexVMs()
	s.indexInterfaces()
	s.indexVRFs()
	s.indexPrefixes()
	s.indexAddresses()
	return s, nil
}

func wrapFetch(what string, err error) error {
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", what, err)
	}
	return nil
}

// RefreshVMs re-reads virtual machines and disks.
func (s *Snapshot) RefreshVMs(ctx context.Context, r Reader) error {
	vms, err := r.VirtualMachines(ctx, s.Cluster)
	if err != nil {
		return wrapFetch("virtual machines", err)
	}
	disks, err := r.VirtualDisks(ctx)
	if err != nil {
		return wrapFetch("virtual disks", err)
	}
	s.VMList, s.DiskList = vms, disks
	s.indexVMs()
	return nil
}

// RefreshInterfaces re-reads interfaces.
func (s *Snapshot) RefreshInterfaces(ctx context.Context, r Reader) error {
	list, err := r.Interfaces(ctx, s.Cluster)
	if err != nil {
		return wrapFetch("interfaces", err)
	}
	s.InterfaceList = list
	s.indexInterfaces()
	return nil
}

// RefreshVRFs re-reads VRFs.
func (s *Snapshot) RefreshVRFs(ctx context.Context, r Reader) error {
	list, err := r.VRFs(ctx)
	if err != nil {
		return wrapFetch("vrfs", err)
	}
	s.VRFList = list
	s.indexVRFs()
	return nil
}

// RefreshPrefixes re-reads prefixes.
func (s *Snapshot) RefreshPrefixes(ctx context.Context, r Reader) error {
	list, err := r.Prefixes(ctx)
	if err != nil {
		return wrapFetch("prefixes", err)
	}
	s.PrefixList = list
	s.indexPrefixes()
	return nil
}

// RefreshAddresses re-reads IP addresses.
func (s *Snapshot) RefreshAddresses(ctx context.Context, r Reader) error {
	list, err := r.IPAddresses(ctx)
	if err != nil {
		return wrapFetch("ip addresses", err)
	}
	s.Addresses = list
	s.indexAddresses()
	return nil
}

func (s *Snapshot) indexVMs() {
	s.VMs = make(map[string]VirtualMachine, len(s.VMList))
	s.VMsByName = make(map[string]VirtualMachine, len(s.VMList))
	s.VMsByID = make(map[int]VirtualMachine, len(s.VMList))
	for _, vm := range s.VMList {
		if id := vm.ExternalID(); id != "" {
			s.VMs[id] = vm
		}
		s.VMsByName[vm.Name] = vm
		s.VMsByID[vm.ID] = vm
	}

	// Disks are only in scope when their machine is.
	scoped := s.DiskList[:0:0]
	s.Disks = make(map[string]VirtualDisk, len(s.DiskList))
	for _, d := range s.DiskList {
		if _, ok := s.VMsByID[d.VirtualMachine.ID]; !ok {
			continue
		}
		scoped = append(scoped, d)
		if id := d.ExternalID(); id != "" {
			s.Disks[id] = d
		}
	}
	s.DiskList = scoped
}

func (s *Snapshot) indexInterfaces() {
	s.Interfaces = make(map[string]VMInterface, len(s.InterfaceList))
	s.InterfacesByID = make(map[int]VMInterface, len(s.InterfaceList))
	for _, i := range s.InterfaceList {
		s.InterfacesByID[i.ID] = i
		if id := i.ExternalID(); id != "" {
			s.Interfaces[id] = i
		}
	}
}

func (s *Snapshot) indexVRFs() {
	s.VRFs = make(map[string]VRF, len(s.VRFList))
	for _, v := range s.VRFList {
		if id := v.ExternalID(); id != "" {
			s.VRFs[id] = v
		}
	}
}

func (s *Snapshot) indexPrefixes() {
	s.Prefixes = make(map[string]Prefix, len(s.PrefixList))
	for _, p := range s.PrefixList {
		if id := p.ExternalID(); id != "" {
			s.Prefixes[id] = p
		}
	}
}

func (s *Snapshot) indexAddresses() {
	s.LAN = make(map[string][]IPAddress)
	s.WAN = make(map[string]IPAddress)
	for _, a := range s.Addresses {
		if a.VRF == nil {
			s.WAN[a.Bare()] = a
			continue
		}
		s.LAN[a.Bare()] = append(s.LAN[a.Bare()], a)
	}
}

// InterfaceByID returns the interface with registry ID id.
func (s *Snapshot) InterfaceByID(id int) (VMInterface, bool) {
	i, ok := s.InterfacesByID[id]
	return i, ok
}
