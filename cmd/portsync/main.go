// Portsync - Socket/Uplink VLAN Synchronization Tool
//
// A CLI tool for keeping customer socket interfaces and their cabled switch
// uplinks on the same untagged VLAN, with:
//   - A Redis-backed source of truth for devices, interfaces, and VLANs
//   - Copy-on-change VLAN synchronization across patch-panel circuits
//   - A backup -> intended -> push pipeline with a git audit trail
//   - Dry-run by default (preview changes, require -x to execute)
//   - Audit logging of all changes
//
// Context flags select the object; commands are methods on that object:
//
//	portsync -d <device> -i <interface> <verb> [args] [-x]
//
// Examples:
//
//	portsync list                                     # Inventory devices
//	portsync -d sw-access-01 show                     # Device + interfaces
//	portsync -d panel-a -i socket-1 set-vlan 300 -x   # Retag a socket
//	portsync -d panel-a -i socket-1 sync -x           # Re-sync its pair
//	portsync -d sw-access-01 pipeline -x              # Backup, render, push
//	portsync sot load -x                              # Seed SoT from specs
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/portsync-network/portsync/pkg/audit"
	"github.com/portsync-network/portsync/pkg/cli"
	"github.com/portsync-network/portsync/pkg/network"
	"github.com/portsync-network/portsync/pkg/settings"
	"github.com/portsync-network/portsync/pkg/sot"
	"github.com/portsync-network/portsync/pkg/util"
	"github.com/portsync-network/portsync/pkg/version"
)

var (
	// Context flags (object selectors)
	deviceName    string // -d, --device
	interfaceName string // -i, --interface

	// Option flags
	specDir     string
	redisAddr   string
	actorName   string
	executeMode bool
	verbose     bool
	jsonOutput  bool

	// Global state
	userSettings *settings.Settings
	net          *network.Network
	store        *sot.Store
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:               "portsync",
	Short:             "Socket/Uplink VLAN Synchronization Tool",
	SilenceUsage:      true,
	SilenceErrors:     true,
	CompletionOptions: cobra.CompletionOptions{HiddenDefaultCmd: true},
	Long: `Portsync keeps customer socket interfaces and their cabled switch
uplinks on the same untagged VLAN.

Context flags select the object; commands are methods on that object.
Write commands preview changes by default; use -x to execute.

  portsync -d <device> -i <interface> <verb> [args] [-x]`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if isSettingsOrHelp(cmd) {
			return nil
		}

		// Load user settings
		var err error
		userSettings, err = settings.Load()
		if err != nil {
			util.Warnf("Could not load settings: %v", err)
			userSettings = &settings.Settings{}
		}

		// Apply defaults from settings
		if specDir == "" {
			specDir = userSettings.GetSpecDir()
		}
		if redisAddr == "" {
			redisAddr = userSettings.GetRedisAddr()
		}
		if actorName == "" {
			actorName = userSettings.Actor
		}
		if actorName == "" {
			actorName = osUser()
		}

		// Set log level: quiet by default, verbose on -v
		if verbose {
			util.SetLogLevel("debug")
		} else {
			util.SetLogLevel("warn")
		}

		store = sot.NewStore(redisAddr, 0)
		net, err = network.NewNetwork(specDir, store)
		if err != nil {
			return fmt.Errorf("initializing network: %w", err)
		}

		// Initialize audit logger
		auditPath := userSettings.AuditLog
		if auditPath == "" {
			auditPath = specDir + "/audit.log"
		}
		auditLogger, err := audit.NewFileLogger(auditPath, audit.RotationConfig{
			MaxSize:    10 * 1024 * 1024, // 10MB
			MaxBackups: 10,
		})
		if err != nil {
			util.Warnf("Could not initialize audit logging: %v", err)
		} else {
			audit.SetDefaultLogger(auditLogger)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if net != nil {
			net.Close()
		}
		if store != nil {
			store.Close()
		}
	},
}

func init() {
	// Context flags (object selectors)
	rootCmd.PersistentFlags().StringVarP(&deviceName, "device", "d", "", "Device name (object selector)")
	rootCmd.PersistentFlags().StringVarP(&interfaceName, "interface", "i", "", "Interface name (object selector)")

	// Option flags (global)
	rootCmd.PersistentFlags().StringVarP(&specDir, "specs", "S", "", "Specification directory")
	rootCmd.PersistentFlags().StringVarP(&redisAddr, "redis", "r", "", "Source of truth address (host:port)")
	rootCmd.PersistentFlags().StringVarP(&actorName, "user", "u", "", "Actor recorded on writes")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")

	// Write flag (-x) on commands that mutate state
	for _, cmd := range []*cobra.Command{
		setVlanCmd, syncCmd, pipelineCmd, backupCmd, pushCmd,
		importBackupCmd, sotLoadCmd,
	} {
		addWriteFlags(cmd)
	}

	// Output flag on commands that produce structured output
	for _, cmd := range []*cobra.Command{
		showCmd, listCmd, intendedCmd, sotDumpCmd, auditListCmd,
	} {
		addOutputFlags(cmd)
	}

	rootCmd.AddGroup(
		&cobra.Group{ID: "query", Title: "Object Operations:"},
		&cobra.Group{ID: "mutate", Title: "Synchronization:"},
		&cobra.Group{ID: "pipeline", Title: "Pipeline Operations:"},
		&cobra.Group{ID: "meta", Title: "Configuration & Meta:"},
	)

	for _, cmd := range []*cobra.Command{showCmd, listCmd} {
		cmd.GroupID = "query"
		rootCmd.AddCommand(cmd)
	}
	for _, cmd := range []*cobra.Command{setVlanCmd, syncCmd, sotCmd, importBackupCmd} {
		cmd.GroupID = "mutate"
		rootCmd.AddCommand(cmd)
	}
	for _, cmd := range []*cobra.Command{pipelineCmd, backupCmd, intendedCmd, pushCmd} {
		cmd.GroupID = "pipeline"
		rootCmd.AddCommand(cmd)
	}
	for _, cmd := range []*cobra.Command{settingsCmd, credentialsCmd, auditCmd, versionCmd} {
		cmd.GroupID = "meta"
		rootCmd.AddCommand(cmd)
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		if version.Version == "dev" {
			fmt.Println("portsync dev build (use 'make build' for version info)")
		} else {
			fmt.Printf("portsync %s (%s)\n", version.Version, version.GitCommit)
		}
	},
}

// ============================================================================
// Context Helpers
// ============================================================================

// requireDevice ensures a device is specified via -d flag.
func requireDevice() (*network.Device, error) {
	if deviceName == "" {
		return nil, fmt.Errorf("device required: use -d <device> flag")
	}
	return net.GetDevice(deviceName)
}

// requireInterface ensures both device and interface are specified.
func requireInterface() (*network.Device, *network.Interface, error) {
	dev, err := requireDevice()
	if err != nil {
		return nil, nil, err
	}
	if interfaceName == "" {
		return nil, nil, fmt.Errorf("interface required: use -i <interface> flag")
	}
	intf, err := dev.GetInterface(interfaceName)
	if err != nil {
		return nil, nil, err
	}
	return dev, intf, nil
}

func osUser() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "portsync"
}

// ============================================================================
// Output Helpers
// ============================================================================

func printDryRunNotice() {
	if !executeMode {
		fmt.Println("\n" + yellow("DRY-RUN: No changes applied. Use -x to execute."))
	}
}

// applyChangeSet previews a changeset and applies it in execute mode. The
// standard flow for all CLI write commands.
func applyChangeSet(ctx context.Context, cs *network.ChangeSet, operation string) error {
	if cs.IsEmpty() {
		fmt.Println("No changes.")
		return nil
	}

	fmt.Println("Changes to be applied:")
	fmt.Print(cs.String())

	event := audit.NewEvent(actorName, cs.Device, operation).
		WithInterface(interfaceName).
		WithChanges(cs.Changes).
		WithExecuteMode(executeMode)

	if !executeMode {
		printDryRunNotice()
		audit.Log(event.WithSuccess())
		return nil
	}

	if err := cs.Apply(ctx, store, actorName); err != nil {
		audit.Log(event.WithError(err))
		return fmt.Errorf("execution failed: %w", err)
	}
	audit.Log(event.WithSuccess())
	fmt.Println("\n" + green("Changes applied successfully."))
	return nil
}

// isSettingsOrHelp checks whether cmd (or any ancestor) is a settings, help,
// or version command.
func isSettingsOrHelp(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		switch c.Name() {
		case "help", "version", "settings":
			return true
		}
	}
	return false
}

// addWriteFlags registers -x/--execute as a local flag.
func addWriteFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	if cmd.HasSubCommands() {
		flags = cmd.PersistentFlags()
	}
	flags.BoolVarP(&executeMode, "execute", "x", false, "Execute changes (default is dry-run)")
}

// addOutputFlags registers --json as a local flag.
func addOutputFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	if cmd.HasSubCommands() {
		flags = cmd.PersistentFlags()
	}
	flags.BoolVar(&jsonOutput, "json", false, "JSON output")
}

// Color helpers delegate to pkg/cli
func green(s string) string  { return cli.Green(s) }
func yellow(s string) string { return cli.Yellow(s) }
func red(s string) string    { return cli.Red(s) }
