package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/portsync-network/portsync/pkg/cli"
	"github.com/portsync-network/portsync/pkg/network"
)

var listCmd = &cobra.Command{
	Use:   "list [vlans]",
	Short: "List devices, interfaces, or VLANs",
	Long: `List inventory devices, a device's interfaces, or the VLAN table.

Without context flags, lists all devices. With -d, lists that device's
interfaces from the source of truth. "list vlans" lists the VLAN table.

Examples:
  portsync list
  portsync -d sw-access-01 list
  portsync list vlans`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if len(args) == 1 {
			if args[0] != "vlans" {
				return fmt.Errorf("unknown object %q (expected \"vlans\")", args[0])
			}
			return listVLANs(cmd)
		}
		if deviceName != "" {
			return listInterfaces(cmd)
		}

		names := net.ListDevices()
		if jsonOutput {
			return json.NewEncoder(os.Stdout).Encode(names)
		}

		table := cli.NewTable("DEVICE", "MGMT IP", "PLATFORM", "SITE")
		for _, name := range names {
			entry, err := store.GetDevice(ctx, name)
			if err != nil {
				// Inventory device not yet seeded into the SoT
				table.Row(name, "-", "-", "-")
				continue
			}
			table.Row(name, entry.MgmtIP, entry.Platform, entry.Site)
		}
		table.Flush()
		return nil
	},
}

func listInterfaces(cmd *cobra.Command) error {
	ctx := cmd.Context()
	dev, err := requireDevice()
	if err != nil {
		return err
	}

	entries, err := dev.ListInterfaces(ctx)
	if err != nil {
		return err
	}
	if jsonOutput {
		return json.NewEncoder(os.Stdout).Encode(entries)
	}

	table := cli.NewTable("INTERFACE", "ROLE", "MODE", "VLAN", "ENABLED")
	for _, name := range sortedKeys(entries) {
		entry := entries[name]
		vlan := "-"
		if entry.UntaggedVLAN != 0 {
			vlan = strconv.Itoa(entry.UntaggedVLAN)
		}
		table.Row(name, entry.Role, entry.Mode, vlan, strconv.FormatBool(entry.Enabled))
	}
	table.Flush()
	return nil
}

func listVLANs(cmd *cobra.Command) error {
	ctx := cmd.Context()

	vids, err := store.ListVLANs(ctx)
	if err != nil {
		return err
	}
	if jsonOutput {
		return json.NewEncoder(os.Stdout).Encode(vids)
	}

	table := cli.NewTable("VLAN", "NAME", "STATUS")
	for _, vid := range vids {
		entry, err := store.GetVLAN(ctx, vid)
		if err != nil {
			return err
		}
		table.Row(strconv.Itoa(vid), entry.Name, entry.Status)
	}
	table.Flush()
	return nil
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show device or interface details",
	Long: `Show details for the selected object.

With -d, shows the device profile and its interface table. With -d and -i,
shows the interface's role, source-of-truth state, and cabled peer.

Examples:
  portsync -d sw-access-01 show
  portsync -d panel-a -i socket-1 show`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if interfaceName != "" {
			return showInterface(cmd)
		}
		return showDevice(cmd)
	},
}

func showDevice(cmd *cobra.Command) error {
	dev, err := requireDevice()
	if err != nil {
		return err
	}
	profile := dev.Profile()

	if jsonOutput {
		return json.NewEncoder(os.Stdout).Encode(map[string]string{
			"device":   profile.DeviceName,
			"mgmt_ip":  profile.MgmtIP,
			"platform": profile.Platform,
			"site":     profile.Site,
		})
	}

	fmt.Printf("Device:    %s\n", cli.Bold(profile.DeviceName))
	fmt.Printf("Mgmt IP:   %s\n", profile.MgmtIP)
	fmt.Printf("Platform:  %s\n", profile.Platform)
	if profile.Site != "" {
		fmt.Printf("Site:      %s\n", profile.Site)
	}
	fmt.Println()
	return listInterfaces(cmd)
}

func showInterface(cmd *cobra.Command) error {
	ctx := cmd.Context()
	_, intf, err := requireInterface()
	if err != nil {
		return err
	}

	entry, err := intf.Entry(ctx)
	if err != nil {
		return err
	}

	var peer *network.Interface
	peer, err = net.ResolvePeer(deviceName, interfaceName)
	if err != nil {
		return err
	}

	if jsonOutput {
		out := map[string]interface{}{
			"endpoint":      intf.Endpoint(),
			"role":          intf.Role(),
			"mode":          entry.Mode,
			"untagged_vlan": entry.UntaggedVLAN,
			"enabled":       entry.Enabled,
		}
		if peer != nil {
			out["peer"] = peer.Endpoint()
		}
		return json.NewEncoder(os.Stdout).Encode(out)
	}

	fmt.Printf("Interface:      %s\n", cli.Bold(intf.Endpoint()))
	fmt.Printf("Role:           %s\n", intf.Role())
	fmt.Printf("Mode:           %s\n", entry.Mode)
	if entry.UntaggedVLAN != 0 {
		fmt.Printf("Untagged VLAN:  %d\n", entry.UntaggedVLAN)
	} else {
		fmt.Printf("Untagged VLAN:  %s\n", cli.Dim("none"))
	}
	fmt.Printf("Enabled:        %t\n", entry.Enabled)
	if peer != nil {
		fmt.Printf("Cabled peer:    %s (%s)\n", peer.Endpoint(), peer.Role())
	} else {
		fmt.Printf("Cabled peer:    %s\n", cli.Dim("not cabled"))
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
