package network

import (
	"context"
	"fmt"

	"github.com/portsync-network/portsync/pkg/sot"
	"github.com/portsync-network/portsync/pkg/spec"
)

// Interface represents a single interface on a Device. It carries the
// topology definition (role, intended VLAN) and reads its live state from
// the source of truth through its parent references.
type Interface struct {
	device   *Device // Parent reference
	name     string
	topology *spec.TopologyInterface
}

// Name returns the interface name.
func (i *Interface) Name() string {
	return i.name
}

// Device returns the parent Device.
func (i *Interface) Device() *Device {
	return i.device
}

// Role returns the topology role (socket, uplink, passthrough).
func (i *Interface) Role() string {
	return i.topology.Role
}

// IsSocket returns true for customer-facing socket interfaces.
func (i *Interface) IsSocket() bool {
	return i.topology.Role == spec.RoleSocket
}

// IsPassthrough returns true for patch-panel passthrough interfaces.
func (i *Interface) IsPassthrough() bool {
	return i.topology.Role == spec.RolePassthrough
}

// Endpoint returns this interface as a "device:interface" endpoint string.
func (i *Interface) Endpoint() string {
	return spec.JoinEndpoint(i.device.name, i.name)
}

// Entry reads the interface's current source-of-truth entry.
func (i *Interface) Entry(ctx context.Context) (*sot.InterfaceEntry, error) {
	entry, err := i.device.network.store.GetInterface(ctx, i.device.name, i.name)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", i.Endpoint(), err)
	}
	return entry, nil
}

// UntaggedVLAN reads the interface's current untagged VLAN from the source
// of truth. Returns 0 if no VLAN is bound.
func (i *Interface) UntaggedVLAN(ctx context.Context) (int, error) {
	entry, err := i.Entry(ctx)
	if err != nil {
		return 0, err
	}
	return entry.UntaggedVLAN, nil
}

// Peer resolves this interface's cabled peer through the topology links,
// walking through at most one passthrough hop.
func (i *Interface) Peer() (*Interface, error) {
	return i.device.network.ResolvePeer(i.device.name, i.name)
}
