package network

import (
	"context"
	"fmt"
	"sync"

	"github.com/portsync-network/portsync/pkg/device"
	"github.com/portsync-network/portsync/pkg/sot"
	"github.com/portsync-network/portsync/pkg/spec"
	"github.com/portsync-network/portsync/pkg/util"
)

// Device represents a single managed device within a Network context.
// Holds the resolved profile and, once Connect() is called, the SSH
// connection used for configuration fetch and push.
type Device struct {
	network *Network // Parent reference
	name    string
	profile *spec.ResolvedProfile

	conn       *device.Conn
	interfaces map[string]*Interface
	mu         sync.Mutex
}

// Name returns the device name.
func (d *Device) Name() string {
	return d.name
}

// Profile returns the resolved inventory profile.
func (d *Device) Profile() *spec.ResolvedProfile {
	return d.profile
}

// Network returns the parent Network.
func (d *Device) Network() *Network {
	return d.network
}

// IsConnected returns true if an SSH connection is established.
func (d *Device) IsConnected() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.conn != nil
}

// Connect establishes the SSH connection. Safe to call on an already
// connected device.
func (d *Device) Connect(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.conn != nil {
		return nil
	}
	if err := device.CheckPlatform(d.profile); err != nil {
		return err
	}

	util.Debugf("connecting to %s (%s)", d.name, d.profile.MgmtIP)
	conn, err := device.Dial(d.profile)
	if err != nil {
		return fmt.Errorf("connect %s: %w", d.name, err)
	}
	d.conn = conn
	return nil
}

// Close tears down the SSH connection if one is open.
func (d *Device) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.conn != nil {
		d.conn.Close()
		d.conn = nil
	}
}

func (d *Device) connection() (*device.Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.conn == nil {
		return nil, util.ErrNotConnected
	}
	return d.conn, nil
}

// FetchConfig retrieves the device's running configuration in set format.
func (d *Device) FetchConfig(ctx context.Context) (string, error) {
	conn, err := d.connection()
	if err != nil {
		return "", err
	}
	return conn.FetchConfig(ctx)
}

// PushConfigSet applies set commands on the device and returns the session
// transcript.
func (d *Device) PushConfigSet(ctx context.Context, commands []string) (string, error) {
	conn, err := d.connection()
	if err != nil {
		return "", err
	}
	return conn.PushConfigSet(ctx, commands)
}

// GetInterface returns an Interface handle for a topology-defined interface
// on this device.
func (d *Device) GetInterface(name string) (*Interface, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if intf, ok := d.interfaces[name]; ok {
		return intf, nil
	}

	ti, err := d.network.GetTopologyInterface(d.name, name)
	if err != nil {
		return nil, err
	}

	intf := &Interface{
		device:   d, // Parent reference
		name:     name,
		topology: ti,
	}
	d.interfaces[name] = intf
	return intf, nil
}

// ListInterfaces returns the source-of-truth interface entries for this
// device.
func (d *Device) ListInterfaces(ctx context.Context) (map[string]*sot.InterfaceEntry, error) {
	return d.network.store.ListInterfaces(ctx, d.name)
}
