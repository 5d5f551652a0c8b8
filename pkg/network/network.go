// Package network provides the top-level Network object that owns the spec
// files and the source of truth, and provides hierarchical access:
// Network -> Device -> Interface
//
// Objects carry parent references so an Interface can reach its Device's
// connection and the Network-level topology without extra plumbing.
package network

import (
	"context"
	"fmt"
	"sync"

	"github.com/portsync-network/portsync/pkg/device"
	"github.com/portsync-network/portsync/pkg/sot"
	"github.com/portsync-network/portsync/pkg/spec"
)

// Network is the top-level object representing the managed network. It owns
// the loaded specs, the source-of-truth store, and creates Device instances
// in its context.
type Network struct {
	loader *spec.Loader
	store  *sot.Store

	// Topology-derived link map, built once at construction
	peers map[string]string

	// Devices loaded in this Network's context
	devices map[string]*Device

	mu sync.RWMutex
}

// NewNetwork creates a Network by loading the spec files from specDir and
// attaching the given source-of-truth store.
func NewNetwork(specDir string, store *sot.Store) (*Network, error) {
	loader := spec.NewLoader(specDir)
	if err := loader.Load(); err != nil {
		return nil, fmt.Errorf("loading specs: %w", err)
	}
	return NewNetworkFromLoader(loader, store), nil
}

// NewNetworkFromLoader creates a Network from an already-loaded spec loader.
func NewNetworkFromLoader(loader *spec.Loader, store *sot.Store) *Network {
	return &Network{
		loader:  loader,
		store:   store,
		peers:   buildPeerMap(loader.GetTopology()),
		devices: make(map[string]*Device),
	}
}

// Loader returns the spec loader.
func (n *Network) Loader() *spec.Loader {
	return n.loader
}

// Store returns the source-of-truth store.
func (n *Network) Store() *sot.Store {
	return n.store
}

// Topology returns the topology spec.
func (n *Network) Topology() *spec.TopologySpecFile {
	return n.loader.GetTopology()
}

// GetTopologyInterface returns the topology definition for an interface.
func (n *Network) GetTopologyInterface(deviceName, intfName string) (*spec.TopologyInterface, error) {
	dev, ok := n.Topology().Devices[deviceName]
	if !ok {
		return nil, fmt.Errorf("device '%s' not found in topology", deviceName)
	}
	ti, ok := dev.Interfaces[intfName]
	if !ok {
		return nil, fmt.Errorf("interface '%s' not found in topology for device '%s'", intfName, deviceName)
	}
	return ti, nil
}

// GetDevice returns an existing device or creates it from its inventory
// profile. The Device is created in this Network's context and reaches the
// store and topology through its parent reference.
func (n *Network) GetDevice(name string) (*Device, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if dev, ok := n.devices[name]; ok {
		return dev, nil
	}

	profile, err := n.loader.ResolveProfile(name)
	if err != nil {
		return nil, fmt.Errorf("resolving profile for %s: %w", name, err)
	}

	dev := &Device{
		network:    n, // Parent reference
		name:       name,
		profile:    profile,
		interfaces: make(map[string]*Interface),
	}
	n.devices[name] = dev
	return dev, nil
}

// ConnectDevice loads a device and establishes its SSH connection.
func (n *Network) ConnectDevice(ctx context.Context, name string) (*Device, error) {
	dev, err := n.GetDevice(name)
	if err != nil {
		return nil, err
	}
	if err := dev.Connect(ctx); err != nil {
		return nil, err
	}
	return dev, nil
}

// ListDevices returns sorted inventory device names.
func (n *Network) ListDevices() []string {
	return n.loader.ListDevices()
}

// Close closes all open device connections.
func (n *Network) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, dev := range n.devices {
		dev.Close()
	}
}

// CheckPlatform verifies a device can be driven over SSH.
func (n *Network) CheckPlatform(name string) error {
	profile, err := n.loader.ResolveProfile(name)
	if err != nil {
		return err
	}
	return device.CheckPlatform(profile)
}
