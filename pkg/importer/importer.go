// Package importer loads VLANs and access-port bindings from a device
// configuration backup into the source of truth. Used to bootstrap the
// store from a brownfield switch.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/portsync-network/portsync/pkg/device"
	"github.com/portsync-network/portsync/pkg/sot"
	"github.com/portsync-network/portsync/pkg/util"
)

// Result counts what an import touched.
type Result struct {
	Device          string `json:"device"`
	VLANsCreated    int    `json:"vlans_created"`
	InterfacesSeen  int    `json:"interfaces_seen"`
	BindingsWritten int    `json:"bindings_written"`
	Skipped         int    `json:"skipped"`
}

// FromFile imports a set-format backup file for deviceName.
func FromFile(ctx context.Context, store *sot.Store, deviceName, path, actor string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening backup: %w", err)
	}
	defer f.Close()
	return FromReader(ctx, store, deviceName, f, actor)
}

// FromReader imports a set-format backup for deviceName. VLAN definitions
// become VLAN entries; access ports become interface entries bound to their
// untagged VLAN. Members that resolve to no known VLAN are skipped with a
// warning.
func FromReader(ctx context.Context, store *sot.Store, deviceName string, r io.Reader, actor string) (*Result, error) {
	cfg, err := device.ParseSetConfig(r)
	if err != nil {
		return nil, err
	}

	result := &Result{Device: deviceName}
	log := util.WithDevice(deviceName)

	for _, name := range cfg.VLANNames() {
		created, err := store.EnsureVLAN(ctx, cfg.VLANs[name], name)
		if err != nil {
			return result, err
		}
		if created {
			result.VLANsCreated++
		}
	}

	for _, ifname := range cfg.InterfaceNames() {
		result.InterfacesSeen++
		member := cfg.AccessPorts[ifname]
		vid, ok := cfg.VLANID(member)
		if !ok {
			log.Warnf("interface %s references unknown VLAN '%s'; skipping", ifname, member)
			result.Skipped++
			continue
		}
		if err := util.ValidateVLANID(vid); err != nil {
			log.Warnf("interface %s: %v; skipping", ifname, err)
			result.Skipped++
			continue
		}

		if err := writeBinding(ctx, store, deviceName, ifname, vid, actor); err != nil {
			return result, err
		}
		result.BindingsWritten++
	}

	log.Infof("imported backup: %d VLANs created, %d bindings written, %d skipped",
		result.VLANsCreated, result.BindingsWritten, result.Skipped)
	return result, nil
}

// writeBinding updates an existing interface entry or creates a new one.
func writeBinding(ctx context.Context, store *sot.Store, deviceName, ifname string, vid int, actor string) error {
	_, err := store.GetInterface(ctx, deviceName, ifname)
	if err == nil {
		return store.SetUntaggedVLAN(ctx, deviceName, ifname, vid, actor)
	}
	if !errors.Is(err, util.ErrNotFound) {
		return err
	}
	return store.PutInterface(ctx, deviceName, ifname, &sot.InterfaceEntry{
		Mode:         "access",
		Enabled:      true,
		UntaggedVLAN: vid,
	})
}
