package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/portsync-network/portsync/pkg/audit"
	"github.com/portsync-network/portsync/pkg/device"
	"github.com/portsync-network/portsync/pkg/importer"
)

var sotCmd = &cobra.Command{
	Use:   "sot",
	Short: "Manage the source of truth",
	Long: `Inspect and seed the source-of-truth database.

Examples:
  portsync sot load -x
  portsync sot dump`,
}

var sotLoadCmd = &cobra.Command{
	Use:   "load",
	Short: "Seed the source of truth from the specification files",
	Long: `Load devices, interfaces, and VLAN bindings from the inventory and
topology specifications into the source of truth. Existing records are
overwritten. Dry-run reports what would be written.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		loader := net.Loader()
		topology := loader.GetTopology()

		devices := len(loader.ListDevices())
		interfaces := 0
		for _, dev := range topology.Devices {
			interfaces += len(dev.Interfaces)
		}
		fmt.Printf("Specifications: %d devices, %d interfaces\n", devices, interfaces)

		if !executeMode {
			printDryRunNotice()
			return nil
		}

		event := audit.NewEvent(actorName, "", audit.OpSoTLoad).WithExecuteMode(true)
		if err := store.Seed(ctx, loader); err != nil {
			audit.Log(event.WithError(err))
			return err
		}
		audit.Log(event.WithSuccess())

		rev, err := store.Revision(ctx)
		if err != nil {
			return err
		}
		fmt.Println(green("Source of truth seeded.") + fmt.Sprintf(" (revision %d)", rev))
		return nil
	},
}

var sotDumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Dump the source of truth",
	Long:  `Print every record in the source of truth, grouped by table.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if jsonOutput {
			data, err := store.DumpJSON(ctx)
			if err != nil {
				return err
			}
			os.Stdout.Write(data)
			fmt.Println()
			return nil
		}

		tables, err := store.Dump(ctx)
		if err != nil {
			return err
		}
		for _, table := range sortedKeys(tables) {
			fmt.Printf("%s\n", table)
			keys := tables[table]
			for _, key := range sortedKeys(keys) {
				fmt.Printf("  %s\n", key)
				fields := keys[key]
				for _, field := range sortedKeys(fields) {
					fmt.Printf("    %s: %s\n", field, fields[field])
				}
			}
		}
		return nil
	},
}

var importBackupCmd = &cobra.Command{
	Use:   "import-backup <file>",
	Short: "Import VLAN bindings from a device backup",
	Long: `Parse a Junos "display set" backup file and import its access-port
VLAN bindings into the source of truth for the selected device. VLANs the
backup defines are created if missing; ports whose VLAN cannot be resolved
are skipped with a warning.

Examples:
  portsync -d sw-access-01 import-backup backups/sw-access-01.set -x`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		dev, err := requireDevice()
		if err != nil {
			return err
		}
		path := args[0]

		if !executeMode {
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			backup, err := device.ParseSetConfig(bytes.NewReader(data))
			if err != nil {
				return err
			}
			fmt.Printf("%s: %d VLANs, %d access ports\n",
				path, len(backup.VLANNames()), len(backup.InterfaceNames()))
			printDryRunNotice()
			return nil
		}

		event := audit.NewEvent(actorName, dev.Name(), audit.OpImport).WithExecuteMode(true)
		result, err := importer.FromFile(ctx, store, dev.Name(), path, actorName)
		if err != nil {
			audit.Log(event.WithError(err))
			return err
		}
		audit.Log(event.WithSuccess())

		fmt.Printf("Imported %s into %s:\n", path, dev.Name())
		fmt.Printf("  VLANs created:     %d\n", result.VLANsCreated)
		fmt.Printf("  Interfaces seen:   %d\n", result.InterfacesSeen)
		fmt.Printf("  Bindings written:  %d\n", result.BindingsWritten)
		if result.Skipped > 0 {
			fmt.Printf("  Skipped:           %s\n", yellow(fmt.Sprintf("%d", result.Skipped)))
		}
		return nil
	},
}

func init() {
	sotCmd.AddCommand(sotLoadCmd)
	sotCmd.AddCommand(sotDumpCmd)
}
