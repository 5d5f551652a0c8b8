package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/portsync-network/portsync/pkg/spec"
)

var credentialsCmd = &cobra.Command{
	Use:   "credentials",
	Short: "Manage device SSH credentials",
	Long: `Manage SSH credentials stored in the device inventory.

Credentials may also be supplied via the ` + spec.EnvSSHUser + ` and
` + spec.EnvSSHPass + ` environment variables, which take effect when the
inventory leaves them unset.`,
}

var credentialsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Set SSH credentials for a device",
	Long: `Prompt for an SSH username and password and store them in the
inventory for the selected device. The password is read without echo.

Example:
  portsync -d sw-access-01 credentials set`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dev, err := requireDevice()
		if err != nil {
			return err
		}

		inventory := net.Loader().GetInventory()
		profile, ok := inventory.Devices[dev.Name()]
		if !ok {
			return fmt.Errorf("device %s not in inventory", dev.Name())
		}

		fmt.Printf("SSH username for %s: ", dev.Name())
		reader := bufio.NewReader(os.Stdin)
		username, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("reading username: %w", err)
		}
		username = strings.TrimSpace(username)
		if username == "" {
			return fmt.Errorf("username cannot be empty")
		}

		fmt.Print("SSH password: ")
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Println()
		if err != nil {
			return fmt.Errorf("reading password: %w", err)
		}
		if len(password) == 0 {
			return fmt.Errorf("password cannot be empty")
		}

		profile.SSHUser = username
		profile.SSHPass = string(password)

		if err := net.Loader().SaveInventory(inventory); err != nil {
			return fmt.Errorf("saving inventory: %w", err)
		}

		fmt.Println(green("Credentials saved."))
		fmt.Println(yellow("Note: the inventory stores passwords in plaintext; restrict its permissions."))
		return nil
	},
}

var credentialsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove stored SSH credentials for a device",
	RunE: func(cmd *cobra.Command, args []string) error {
		dev, err := requireDevice()
		if err != nil {
			return err
		}

		inventory := net.Loader().GetInventory()
		profile, ok := inventory.Devices[dev.Name()]
		if !ok {
			return fmt.Errorf("device %s not in inventory", dev.Name())
		}

		profile.SSHUser = ""
		profile.SSHPass = ""

		if err := net.Loader().SaveInventory(inventory); err != nil {
			return fmt.Errorf("saving inventory: %w", err)
		}

		fmt.Println("Credentials cleared.")
		return nil
	},
}

func init() {
	credentialsCmd.AddCommand(credentialsSetCmd)
	credentialsCmd.AddCommand(credentialsClearCmd)
}
