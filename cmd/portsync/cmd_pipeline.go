package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/portsync-network/portsync/pkg/audit"
	"github.com/portsync-network/portsync/pkg/pipeline"
)

var pipelineCmd = &cobra.Command{
	Use:   "pipeline",
	Short: "Run the full backup/intended/push pipeline for a device",
	Long: `Run the configuration pipeline against the selected device:

  1. backup    Fetch the running config and commit it to the audit repo
  2. intended  Render the intended config from the source of truth and commit
  3. push      Deliver the rendered commands to the device

Any step failure aborts the remainder. The push step delivers only the
interface named with -i; without -i the push is skipped. Dry-run prints
the intended config without touching the device or the repository.

Examples:
  portsync -d sw-access-01 pipeline
  portsync -d sw-access-01 -i ge-0/0/5 pipeline -x`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dev, err := requireDevice()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		if !executeMode {
			if err := printIntended(ctx, dev.Name()); err != nil {
				return err
			}
			printDryRunNotice()
			return nil
		}
		return runPipeline(ctx, dev.Name(), interfaceName)
	},
}

// runPipeline executes the full pipeline for a device, with audit logging.
// Shared by the pipeline and sync commands. intfName selects what the push
// step delivers; empty skips the push.
func runPipeline(ctx context.Context, device, intfName string) error {
	runner, err := pipeline.NewRunner(net)
	if err != nil {
		return err
	}

	start := time.Now()
	result, err := runner.Run(ctx, device, intfName)
	event := audit.NewEvent(actorName, device, audit.OpPipeline).
		WithInterface(intfName).
		WithExecuteMode(true).
		WithDuration(time.Since(start))
	if err != nil {
		audit.Log(event.WithError(err))
		return err
	}
	audit.Log(event.WithSuccess())

	printPipelineResult(result)
	return nil
}

func printPipelineResult(result *pipeline.Result) {
	if result.BackupCommit != "" {
		fmt.Printf("Backup committed:    %s (%s)\n", result.BackupPath, result.BackupCommit)
	} else if result.BackupPath != "" {
		fmt.Printf("Backup unchanged:    %s\n", result.BackupPath)
	}
	if result.IntendedCommit != "" {
		fmt.Printf("Intended committed:  %s (%s)\n", result.IntendedPath, result.IntendedCommit)
	} else if result.IntendedPath != "" {
		fmt.Printf("Intended unchanged:  %s\n", result.IntendedPath)
	}
	if result.Pushed {
		fmt.Printf("Pushed:              %d commands\n", result.PushedCommands)
	}
	fmt.Println("\n" + green("Pipeline complete."))
}

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Back up a device's running configuration",
	Long: `Fetch the selected device's running configuration and commit it to
the audit repository. Dry-run fetches and prints without committing.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dev, err := requireDevice()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		if !executeMode {
			connected, err := net.ConnectDevice(ctx, dev.Name())
			if err != nil {
				return err
			}
			defer connected.Close()

			config, err := connected.FetchConfig(ctx)
			if err != nil {
				return err
			}
			fmt.Print(config)
			printDryRunNotice()
			return nil
		}

		runner, err := pipeline.NewRunner(net)
		if err != nil {
			return err
		}
		result, err := runner.Backup(ctx, dev.Name())
		if err != nil {
			return err
		}
		printPipelineResult(result)
		return nil
	},
}

var intendedCmd = &cobra.Command{
	Use:   "intended",
	Short: "Render a device's intended configuration",
	Long: `Render the selected device's intended configuration from the source
of truth and print it. Read-only; nothing is written or committed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dev, err := requireDevice()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		if jsonOutput {
			runner, err := pipeline.NewRunner(net)
			if err != nil {
				return err
			}
			intended, err := runner.Intended(ctx, dev.Name())
			if err != nil {
				return err
			}
			return json.NewEncoder(os.Stdout).Encode(map[string]string{
				"device":   dev.Name(),
				"intended": intended,
			})
		}
		return printIntended(ctx, dev.Name())
	},
}

func printIntended(ctx context.Context, device string) error {
	runner, err := pipeline.NewRunner(net)
	if err != nil {
		return err
	}
	intended, err := runner.Intended(ctx, device)
	if err != nil {
		return err
	}
	fmt.Printf("Intended configuration for %s:\n\n", device)
	fmt.Print(intended)
	return nil
}

var pushCmd = &cobra.Command{
	Use:   "push",
	Short: "Push an interface's intended configuration to a device",
	Long: `Render the selected interface's intended configuration and deliver
it over SSH in one exclusive commit. Requires -i; only the named
interface's commands are pushed. Dry-run prints the device's full
intended configuration.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dev, _, err := requireInterface()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		if !executeMode {
			if err := printIntended(ctx, dev.Name()); err != nil {
				return err
			}
			printDryRunNotice()
			return nil
		}

		runner, err := pipeline.NewRunner(net)
		if err != nil {
			return err
		}
		start := time.Now()
		result, err := runner.Push(ctx, dev.Name(), interfaceName)
		event := audit.NewEvent(actorName, dev.Name(), audit.OpPipeline).
			WithInterface(interfaceName).
			WithStep(pipeline.StepPush).
			WithExecuteMode(true).
			WithDuration(time.Since(start))
		if err != nil {
			audit.Log(event.WithError(err))
			return err
		}
		audit.Log(event.WithSuccess())
		printPipelineResult(result)
		return nil
	},
}
