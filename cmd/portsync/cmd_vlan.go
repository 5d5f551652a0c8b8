package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/portsync-network/portsync/pkg/audit"
	"github.com/portsync-network/portsync/pkg/network"
	"github.com/portsync-network/portsync/pkg/util"
)

var setVlanCmd = &cobra.Command{
	Use:   "set-vlan <vlan-id>",
	Short: "Set an interface's untagged VLAN in the source of truth",
	Long: `Set the untagged VLAN of the selected interface.

This writes the source of truth only; it does not touch the device. The
change event it publishes is what drives synchronization: the daemon (or a
subsequent "sync") copies the VLAN to the interface's cabled peer, and the
pipeline delivers it to the uplink switch.

Examples:
  portsync -d panel-a -i socket-1 set-vlan 300
  portsync -d panel-a -i socket-1 set-vlan 300 -x`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		_, intf, err := requireInterface()
		if err != nil {
			return err
		}

		vid, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid VLAN ID %q", args[0])
		}
		if err := util.ValidateVLANID(vid); err != nil {
			return err
		}

		oldVID, err := intf.UntaggedVLAN(ctx)
		if err != nil {
			return err
		}
		if oldVID == vid {
			fmt.Printf("%s already has untagged VLAN %d.\n", intf.Endpoint(), vid)
			return nil
		}

		cs := network.NewChangeSet(deviceName, audit.OpSetVLAN)
		cs.AddVLAN(vid, "")
		cs.AddVLANBinding(deviceName, interfaceName, oldVID, vid)
		return applyChangeSet(ctx, cs, audit.OpSetVLAN)
	},
}

var syncPipeline bool

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Synchronize an interface's untagged VLAN to its cabled peer",
	Long: `Copy the selected interface's untagged VLAN to the interface cabled
to it, resolving one patch-panel hop if present. Only socket/uplink pairs
are synchronized; anything else is a no-op.

With --pipeline, a successful execute-mode sync also runs the
backup/intended/push pipeline against the uplink switch.

Examples:
  portsync -d panel-a -i socket-1 sync
  portsync -d panel-a -i socket-1 sync -x --pipeline`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if _, _, err := requireInterface(); err != nil {
			return err
		}

		result, err := net.SyncUntaggedVLAN(ctx, deviceName, interfaceName)
		if err != nil {
			audit.Log(audit.NewEvent(actorName, deviceName, audit.OpSync).
				WithInterface(interfaceName).
				WithExecuteMode(executeMode).
				WithError(err))
			return err
		}

		if !result.Changed {
			fmt.Println("Already in sync, nothing to do.")
			return nil
		}

		if err := applyChangeSet(ctx, result.ChangeSet, audit.OpSync); err != nil {
			return err
		}

		if !executeMode || !syncPipeline {
			return nil
		}
		fmt.Printf("\nRunning pipeline for %s...\n", result.Uplink)
		return runPipeline(ctx, result.Uplink.Device, result.Uplink.Interface)
	},
}

func init() {
	syncCmd.Flags().BoolVar(&syncPipeline, "pipeline", false,
		"Run the config pipeline against the uplink after syncing")
}
