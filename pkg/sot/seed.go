package sot

import (
	"context"
	"encoding/json"
	"sort"
	"strconv"

	"github.com/portsync-network/portsync/pkg/spec"
	"github.com/portsync-network/portsync/pkg/util"
)

// Seed populates the store from loaded spec files. Existing records are
// overwritten; records absent from the specs are left alone.
func (s *Store) Seed(ctx context.Context, loader *spec.Loader) error {
	inventory := loader.GetInventory()
	topology := loader.GetTopology()

	for name, profile := range inventory.Devices {
		err := s.PutDevice(ctx, name, &DeviceEntry{
			MgmtIP:      profile.MgmtIP,
			Platform:    profile.Platform,
			Site:        profile.Site,
			Description: profile.Description,
		})
		if err != nil {
			return err
		}
		util.WithDevice(name).Debug("seeded device record")
	}

	for deviceName, device := range topology.Devices {
		for ifname, intf := range device.Interfaces {
			entry := seedInterfaceEntry(intf)
			if err := s.PutInterface(ctx, deviceName, ifname, entry); err != nil {
				return err
			}
			if intf.UntaggedVLAN != 0 {
				if _, err := s.EnsureVLAN(ctx, intf.UntaggedVLAN, ""); err != nil {
					return err
				}
			}
		}
	}

	rev, err := s.Revision(ctx)
	if err != nil {
		return err
	}
	util.Infof("seeded source of truth (revision %d)", rev)
	return nil
}

// seedInterfaceEntry builds the initial record for a topology interface.
// Panel passthrough ports carry no switching config, so their mode stays
// empty and they never appear in rendered intent.
func seedInterfaceEntry(intf *spec.TopologyInterface) *InterfaceEntry {
	entry := &InterfaceEntry{
		Role:         intf.Role,
		UntaggedVLAN: intf.UntaggedVLAN,
		Enabled:      true,
		Description:  intf.Description,
	}
	if intf.Role != spec.RolePassthrough {
		entry.Mode = "access"
	}
	return entry
}

// Dump exports every record as table → key → fields, for inspection and
// backup.
func (s *Store) Dump(ctx context.Context) (map[string]map[string]map[string]string, error) {
	dump := map[string]map[string]map[string]string{
		TableDevice:    {},
		TableInterface: {},
		TableVLAN:      {},
	}

	devices, err := s.ListDevices(ctx)
	if err != nil {
		return nil, err
	}
	for _, name := range devices {
		vals, err := s.client.HGetAll(ctx, deviceKey(name)).Result()
		if err != nil {
			return nil, err
		}
		dump[TableDevice][name] = vals

		intfs, err := s.ListInterfaces(ctx, name)
		if err != nil {
			return nil, err
		}
		ifnames := make([]string, 0, len(intfs))
		for ifname := range intfs {
			ifnames = append(ifnames, ifname)
		}
		sort.Strings(ifnames)
		for _, ifname := range ifnames {
			vals, err := s.client.HGetAll(ctx, interfaceKey(name, ifname)).Result()
			if err != nil {
				return nil, err
			}
			dump[TableInterface][name+"|"+ifname] = vals
		}
	}

	vids, err := s.ListVLANs(ctx)
	if err != nil {
		return nil, err
	}
	for _, vid := range vids {
		vals, err := s.client.HGetAll(ctx, vlanKey(vid)).Result()
		if err != nil {
			return nil, err
		}
		dump[TableVLAN][strconv.Itoa(vid)] = vals
	}

	return dump, nil
}

// DumpJSON exports the store contents as indented JSON.
func (s *Store) DumpJSON(ctx context.Context) ([]byte, error) {
	dump, err := s.Dump(ctx)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(dump, "", "  ")
}
