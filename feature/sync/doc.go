// Package sync reconciles a normalized source inventory into the registry.
//
// # Stages
//
// Driver.Run executes the stages in dependency order, re-reading the registry
// where a later stage needs the objects an earlier one wrote:
//
//   - instances, routers, dhcp_agents (then machines are re-read)
//   - disks, interfaces (then interfaces are re-read)
//   - mac_addresses, vrfs (then VRFs are re-read)
//   - subnets (then prefixes and addresses are re-read)
//   - ip_addresses (then addresses are re-read), floating_ips
//
// Each entity gets a Decide* verdict: create, update with the changed fields,
// no-op, or skip when a required association is missing. The first fatal
// error ends the run.
//
// # Tools
//
//   - RefreshStatus: updates only machine status.
//   - AssociateHypervisors: links machines to the devices their hypervisor maps to.
//   - Preflight: checks the cluster, tag and custom fields exist.
package sync
