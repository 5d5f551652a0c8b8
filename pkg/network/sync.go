// sync.go implements untagged-VLAN synchronization between a socket
// interface and its cabled switch port.
//
// The rule is copy-on-change: when either side of a socket/uplink pair
// changes its untagged VLAN, the changed side's VLAN is copied to the other
// side so the pair stays equal. Pairs that are not exactly one socket and
// one non-socket are left alone.
package network

import (
	"context"
	"fmt"

	"github.com/portsync-network/portsync/pkg/spec"
	"github.com/portsync-network/portsync/pkg/util"
)

// Endpoint names one interface on one device.
type Endpoint struct {
	Device    string `json:"device"`
	Interface string `json:"interface"`
}

func (e Endpoint) String() string {
	return spec.JoinEndpoint(e.Device, e.Interface)
}

// IsZero returns true for the empty endpoint.
func (e Endpoint) IsZero() bool {
	return e.Device == "" && e.Interface == ""
}

// SyncResult describes the outcome of a synchronization pass.
type SyncResult struct {
	// ChangeSet holds the pending source-of-truth writes. Empty when the
	// pair was already in sync or the event was not actionable.
	ChangeSet *ChangeSet
	// Uplink is the switch-side endpoint of the pair, when one was
	// identified. The pipeline runs against this device.
	Uplink Endpoint
	// Changed is true when ChangeSet contains writes to apply.
	Changed bool
}

// SyncUntaggedVLAN reacts to an untagged-VLAN change on deviceName/intfName
// and computes the writes needed to bring its cabled peer to the same VLAN.
// Non-actionable events (no peer, passthrough chains, pairs without exactly
// one socket, unset VLAN) produce an empty result, not an error.
func (n *Network) SyncUntaggedVLAN(ctx context.Context, deviceName, intfName string) (*SyncResult, error) {
	log := util.WithInterface(deviceName, intfName)
	result := &SyncResult{ChangeSet: NewChangeSet(deviceName, "vlan.sync")}

	dev, err := n.GetDevice(deviceName)
	if err != nil {
		return nil, err
	}
	changed, err := dev.GetInterface(intfName)
	if err != nil {
		return nil, err
	}
	if changed.IsPassthrough() {
		log.Info("change on passthrough interface; nothing to synchronize")
		return result, nil
	}

	peer, err := changed.Peer()
	if err != nil {
		return nil, err
	}
	if peer == nil {
		log.Info("no cabled peer; nothing to synchronize")
		return result, nil
	}

	// The pair must be exactly one socket and one non-socket. Anything
	// else is not a customer circuit.
	if changed.IsSocket() == peer.IsSocket() {
		log.Infof("pair %s <-> %s is not a socket/uplink pair; skipping",
			changed.Endpoint(), peer.Endpoint())
		return result, nil
	}

	uplink := changed
	if changed.IsSocket() {
		uplink = peer
	}
	result.Uplink = Endpoint{Device: uplink.Device().Name(), Interface: uplink.Name()}

	sourceVID, err := changed.UntaggedVLAN(ctx)
	if err != nil {
		return nil, err
	}
	if sourceVID == 0 {
		log.Info("changed interface has no untagged VLAN; nothing to copy")
		return result, nil
	}
	if err := util.ValidateVLANID(sourceVID); err != nil {
		return nil, fmt.Errorf("source of truth for %s: %w", changed.Endpoint(), err)
	}

	peerVID, err := peer.UntaggedVLAN(ctx)
	if err != nil {
		return nil, err
	}
	if peerVID == sourceVID {
		log.Debugf("pair already in sync on VLAN %d", sourceVID)
		return result, nil
	}

	result.ChangeSet.AddVLAN(sourceVID, "")
	result.ChangeSet.AddVLANBinding(peer.Device().Name(), peer.Name(), peerVID, sourceVID)
	result.Changed = true

	log.Infof("copying untagged VLAN %d to %s (was %d)", sourceVID, peer.Endpoint(), peerVID)
	return result, nil
}
