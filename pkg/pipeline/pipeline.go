// Package pipeline runs the backup -> intended -> push sequence for a
// device, committing each artifact to the audit repository. Any step
// failure aborts the remainder of the run.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/portsync-network/portsync/pkg/gitrepo"
	"github.com/portsync-network/portsync/pkg/network"
	"github.com/portsync-network/portsync/pkg/render"
	"github.com/portsync-network/portsync/pkg/spec"
	"github.com/portsync-network/portsync/pkg/util"
)

// Step names, used in logs and StepError.
const (
	StepBackup   = "backup"
	StepIntended = "intended"
	StepPush     = "push"
)

// Result summarizes one pipeline run.
type Result struct {
	Device         string `json:"device"`
	Interface      string `json:"interface,omitempty"`
	BackupPath     string `json:"backup_path"`
	BackupCommit   string `json:"backup_commit,omitempty"`
	IntendedPath   string `json:"intended_path"`
	IntendedCommit string `json:"intended_commit,omitempty"`
	PushedCommands int    `json:"pushed_commands"`
	Pushed         bool   `json:"pushed"`
}

// Runner executes pipelines against one Network using its pipeline spec.
type Runner struct {
	network  *network.Network
	cfg      *spec.PipelineSpecFile
	repo     *gitrepo.Repo
	renderer *render.Renderer
}

// NewRunner builds a Runner from the Network's pipeline spec. Fails when no
// pipeline.json was loaded or the audit repository is missing.
func NewRunner(n *network.Network) (*Runner, error) {
	cfg := n.Loader().GetPipeline()
	if cfg == nil {
		return nil, fmt.Errorf("no pipeline.json in %s: %w",
			n.Loader().SpecDir(), util.ErrDependencyMissing)
	}

	repo, err := gitrepo.Open(cfg.RepoRoot, cfg.GitAuthorName, cfg.GitAuthorEmail)
	if err != nil {
		return nil, err
	}

	templatePath := filepath.Join(cfg.RepoRoot, cfg.Template)
	if _, err := os.Stat(templatePath); os.IsNotExist(err) {
		util.Warnf("template %s not found, using built-in", templatePath)
		templatePath = ""
	}
	renderer, err := render.NewRenderer(templatePath)
	if err != nil {
		return nil, err
	}

	return &Runner{network: n, cfg: cfg, repo: repo, renderer: renderer}, nil
}

// Run executes backup, intended, and push for a device in order. The first
// failing step aborts the run; the error records which step failed.
// intfName is the interface whose change triggered the run; only its
// commands are pushed. An empty intfName skips the push with a warning.
func (r *Runner) Run(ctx context.Context, deviceName, intfName string) (*Result, error) {
	result := &Result{
		Device:       deviceName,
		Interface:    intfName,
		BackupPath:   r.cfg.BackupPathFor(deviceName),
		IntendedPath: r.cfg.IntendedPathFor(deviceName),
	}

	dev, err := r.network.ConnectDevice(ctx, deviceName)
	if err != nil {
		return result, util.NewStepError(StepBackup, deviceName, err)
	}
	defer dev.Close()

	if err := r.runBackup(ctx, dev, result); err != nil {
		return result, util.NewStepError(StepBackup, deviceName, err)
	}
	if err := r.runIntended(ctx, deviceName, result); err != nil {
		return result, util.NewStepError(StepIntended, deviceName, err)
	}
	if err := r.runPush(ctx, dev, intfName, result); err != nil {
		return result, util.NewStepError(StepPush, deviceName, err)
	}

	util.WithField("device", deviceName).Info("pipeline complete")
	return result, nil
}

// runBackup fetches the running configuration and commits it.
func (r *Runner) runBackup(ctx context.Context, dev *network.Device, result *Result) error {
	log := util.WithStep(StepBackup)
	log.Infof("fetching configuration from %s", dev.Name())

	config, err := dev.FetchConfig(ctx)
	if err != nil {
		return err
	}
	if err := r.writeArtifact(result.BackupPath, config); err != nil {
		return err
	}

	hash, err := r.repo.CommitPaths(ctx, "backup: "+dev.Name(), result.BackupPath)
	if err != nil {
		return err
	}
	result.BackupCommit = hash
	if hash == "" {
		log.Info("backup unchanged")
	} else {
		log.Infof("backup committed (%s)", hash)
	}
	return nil
}

// runIntended renders the intended configuration from the source of truth
// and commits it.
func (r *Runner) runIntended(ctx context.Context, deviceName string, result *Result) error {
	log := util.WithStep(StepIntended)

	intended, err := r.Intended(ctx, deviceName)
	if err != nil {
		return err
	}
	if err := r.writeArtifact(result.IntendedPath, intended); err != nil {
		return err
	}

	hash, err := r.repo.CommitPaths(ctx, "intended: "+deviceName, result.IntendedPath)
	if err != nil {
		return err
	}
	result.IntendedCommit = hash
	if hash == "" {
		log.Info("intended config unchanged")
	} else {
		log.Infof("intended config committed (%s)", hash)
	}
	return nil
}

// runPush delivers the changed interface's configuration to the device.
// The full intended config stays in the audit repo; only the triggering
// interface's commands go over the wire.
func (r *Runner) runPush(ctx context.Context, dev *network.Device, intfName string, result *Result) error {
	log := util.WithStep(StepPush)

	if intfName == "" {
		log.Warn("no interface in context, nothing to push")
		return nil
	}

	data, err := render.BuildDeviceData(ctx, r.network.Store(), dev.Name())
	if err != nil {
		return err
	}
	commands, err := r.renderer.RenderInterface(data, intfName)
	if err != nil {
		return err
	}
	if len(commands) == 0 {
		log.Infof("interface %s renders no commands, nothing to push", intfName)
		return nil
	}

	log.Infof("pushing %d commands to %s", len(commands), dev.Name())
	if _, err := dev.PushConfigSet(ctx, commands); err != nil {
		return err
	}
	result.PushedCommands = len(commands)
	result.Pushed = true

	if r.cfg.GitPush {
		if err := r.repo.Push(ctx); err != nil {
			return err
		}
		log.Info("audit repository pushed")
	}
	return nil
}

// Backup runs only the backup step for a device.
func (r *Runner) Backup(ctx context.Context, deviceName string) (*Result, error) {
	result := &Result{
		Device:     deviceName,
		BackupPath: r.cfg.BackupPathFor(deviceName),
	}

	dev, err := r.network.ConnectDevice(ctx, deviceName)
	if err != nil {
		return result, util.NewStepError(StepBackup, deviceName, err)
	}
	defer dev.Close()

	if err := r.runBackup(ctx, dev, result); err != nil {
		return result, util.NewStepError(StepBackup, deviceName, err)
	}
	return result, nil
}

// Push runs only the push step, rendering the given interface's commands
// from the current source of truth.
func (r *Runner) Push(ctx context.Context, deviceName, intfName string) (*Result, error) {
	result := &Result{
		Device:       deviceName,
		Interface:    intfName,
		IntendedPath: r.cfg.IntendedPathFor(deviceName),
	}

	dev, err := r.network.ConnectDevice(ctx, deviceName)
	if err != nil {
		return result, util.NewStepError(StepPush, deviceName, err)
	}
	defer dev.Close()

	if err := r.runPush(ctx, dev, intfName, result); err != nil {
		return result, util.NewStepError(StepPush, deviceName, err)
	}
	return result, nil
}

// Intended renders the intended configuration for a device without writing
// or committing anything. Used for previews.
func (r *Runner) Intended(ctx context.Context, deviceName string) (string, error) {
	data, err := render.BuildDeviceData(ctx, r.network.Store(), deviceName)
	if err != nil {
		return "", err
	}
	return r.renderer.Render(data)
}

// writeArtifact writes a file under the repository root, creating parent
// directories as needed.
func (r *Runner) writeArtifact(relPath, content string) error {
	path := filepath.Join(r.repo.Root(), relPath)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0644)
}
