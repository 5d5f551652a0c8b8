// topology.go resolves cabled adjacency from the topology link list.
//
// Links are undirected. A patch panel is modelled as one passthrough
// interface per circuit, so a socket reaches its switch port through at
// most one intermediate hop:
//
//	socket ── panel passthrough ── switch uplink
package network

import (
	"fmt"

	"github.com/portsync-network/portsync/pkg/spec"
	"github.com/portsync-network/portsync/pkg/util"
)

// buildPeerMap indexes the undirected link list by endpoint. Passthrough
// interfaces appear twice (one link per side), everything else once.
func buildPeerMap(topology *spec.TopologySpecFile) map[string]string {
	peers := make(map[string]string)
	for _, link := range topology.Links {
		addPeer(peers, link.A, link.Z)
		addPeer(peers, link.Z, link.A)
	}
	return peers
}

// addPeer records a neighbor for an endpoint. A second neighbor is keyed
// with a "+" suffix; only passthrough interfaces legitimately have one.
func addPeer(peers map[string]string, from, to string) {
	if _, ok := peers[from]; !ok {
		peers[from] = to
		return
	}
	if _, ok := peers[from+"+"]; !ok {
		peers[from+"+"] = to
		return
	}
	util.Warnf("topology: endpoint %s has more than two links; ignoring %s", from, to)
}

func (n *Network) neighbors(endpoint string) []string {
	var out []string
	if p, ok := n.peers[endpoint]; ok {
		out = append(out, p)
	}
	if p, ok := n.peers[endpoint+"+"]; ok {
		out = append(out, p)
	}
	return out
}

// ResolvePeer finds the effective peer of an interface: the directly cabled
// neighbor, walking through at most one passthrough interface. Returns
// (nil, nil) when the interface has no link or the walk dead-ends; that is
// an expected condition, not an error.
func (n *Network) ResolvePeer(deviceName, intfName string) (*Interface, error) {
	endpoint := spec.JoinEndpoint(deviceName, intfName)

	next := n.neighbors(endpoint)
	if len(next) == 0 {
		return nil, nil
	}
	if len(next) > 1 {
		return nil, fmt.Errorf("endpoint %s has multiple links; only passthrough interfaces may", endpoint)
	}

	peer, err := n.interfaceAt(next[0])
	if err != nil {
		return nil, err
	}
	if !peer.IsPassthrough() {
		return peer, nil
	}

	// One passthrough hop: continue out the panel's other side.
	for _, candidate := range n.neighbors(peer.Endpoint()) {
		if candidate == endpoint {
			continue
		}
		far, err := n.interfaceAt(candidate)
		if err != nil {
			return nil, err
		}
		if far.IsPassthrough() {
			// Chained panels are out of scope; treat as unresolvable.
			util.Infof("peer of %s resolves to another passthrough %s; giving up", endpoint, candidate)
			return nil, nil
		}
		return far, nil
	}

	util.Infof("passthrough %s has no far side link for %s", peer.Endpoint(), endpoint)
	return nil, nil
}

// interfaceAt turns a "device:interface" endpoint into an Interface handle.
func (n *Network) interfaceAt(endpoint string) (*Interface, error) {
	deviceName, intfName, ok := spec.SplitEndpoint(endpoint)
	if !ok {
		return nil, fmt.Errorf("malformed endpoint '%s'", endpoint)
	}
	dev, err := n.GetDevice(deviceName)
	if err != nil {
		return nil, err
	}
	return dev.GetInterface(intfName)
}
