package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/portsync-network/portsync/pkg/cli"
	"github.com/portsync-network/portsync/pkg/settings"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage persistent settings",
	Long: `Manage persistent settings stored in ~/.portsync/settings.json.

Settings provide defaults for context flags:
  - spec_dir:   Specification directory (-S flag default)
  - redis_addr: Source-of-truth address (-r flag default)
  - actor:      Actor recorded on writes (-u flag default)
  - audit_log:  Audit log path

Examples:
  portsync settings show
  portsync settings set specs /etc/portsync
  portsync settings set redis localhost:6379
  portsync settings clear`,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := settings.Load()
		if err != nil {
			return fmt.Errorf("loading settings: %w", err)
		}

		fmt.Printf("Settings file: %s\n\n", settings.DefaultSettingsPath())

		t := cli.NewTable("SETTING", "VALUE")

		printSetting := func(name, value string) {
			if value == "" {
				value = "(not set)"
			}
			t.Row(name, value)
		}

		printSetting("spec_dir", s.SpecDir)
		printSetting("redis_addr", s.RedisAddr)
		printSetting("actor", s.Actor)
		printSetting("audit_log", s.AuditLog)

		t.Flush()
		return nil
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <setting> <value>",
	Short: "Set a setting value",
	Long: `Set a persistent setting value.

Available settings:
  specs     - Specification directory (-S flag default)
  redis     - Source-of-truth address (-r flag default)
  actor     - Actor recorded on writes (-u flag default)
  audit_log - Audit log path

Examples:
  portsync settings set specs /etc/portsync
  portsync settings set redis sot.example.net:6379`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		setting := args[0]
		value := args[1]

		s, err := settings.Load()
		if err != nil {
			s = &settings.Settings{}
		}

		switch setting {
		case "specs", "spec_dir":
			s.SpecDir = value
			fmt.Printf("Specification directory set to: %s\n", value)
		case "redis", "redis_addr":
			s.RedisAddr = value
			fmt.Printf("Source-of-truth address set to: %s\n", value)
		case "actor":
			s.Actor = value
			fmt.Printf("Actor set to: %s\n", value)
		case "audit_log":
			s.AuditLog = value
			fmt.Printf("Audit log path set to: %s\n", value)
		default:
			return fmt.Errorf("unknown setting: %s (valid: specs, redis, actor, audit_log)", setting)
		}

		if err := s.Save(); err != nil {
			return fmt.Errorf("saving settings: %w", err)
		}

		return nil
	},
}

var settingsGetCmd = &cobra.Command{
	Use:   "get <setting>",
	Short: "Get a setting value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		setting := args[0]

		s, err := settings.Load()
		if err != nil {
			return fmt.Errorf("loading settings: %w", err)
		}

		var value string
		switch setting {
		case "specs", "spec_dir":
			value = s.SpecDir
		case "redis", "redis_addr":
			value = s.RedisAddr
		case "actor":
			value = s.Actor
		case "audit_log":
			value = s.AuditLog
		default:
			return fmt.Errorf("unknown setting: %s (valid: specs, redis, actor, audit_log)", setting)
		}

		if value == "" {
			fmt.Println("(not set)")
		} else {
			fmt.Println(value)
		}
		return nil
	},
}

var settingsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear all settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		s := &settings.Settings{}
		if err := s.Save(); err != nil {
			return fmt.Errorf("saving settings: %w", err)
		}
		fmt.Println("All settings cleared.")
		return nil
	},
}

var settingsPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show settings file path",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(settings.DefaultSettingsPath())
	},
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsGetCmd)
	settingsCmd.AddCommand(settingsClearCmd)
	settingsCmd.AddCommand(settingsPathCmd)
}
