package main

import (
	"context"
	"time"

	"github.com/portsync-network/portsync/pkg/audit"
	"github.com/portsync-network/portsync/pkg/network"
	"github.com/portsync-network/portsync/pkg/pipeline"
	"github.com/portsync-network/portsync/pkg/sot"
	"github.com/portsync-network/portsync/pkg/util"
)

// Daemon watches the source of truth for untagged-VLAN changes and keeps
// socket/uplink pairs synchronized. Events are handled one at a time, in
// arrival order; a failed event is logged and dropped, never retried.
type Daemon struct {
	cfg    *Config
	net    *network.Network
	store  *sot.Store
	runner *pipeline.Runner
}

// NewDaemon builds a Daemon over an initialized Network. The pipeline
// runner is optional: without a pipeline spec the daemon still syncs the
// source of truth, it just never touches devices.
func NewDaemon(cfg *Config, net *network.Network) *Daemon {
	d := &Daemon{cfg: cfg, net: net, store: net.Store()}

	if cfg.Pipeline {
		runner, err := pipeline.NewRunner(net)
		if err != nil {
			util.Warnf("pipeline disabled: %v", err)
		} else {
			d.runner = runner
		}
	}
	return d
}

// Run subscribes to change events and processes them until ctx is
// cancelled.
func (d *Daemon) Run(ctx context.Context) error {
	events, err := d.store.Watch(ctx)
	if err != nil {
		return err
	}
	util.Infof("watching %s for interface changes", sot.EventChannel)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			d.handleEvent(ctx, ev)
		}
	}
}

// handleEvent reacts to a single change event. Only untagged-VLAN changes
// on interfaces trigger work; everything else is ignored.
func (d *Daemon) handleEvent(ctx context.Context, ev *sot.ChangeEvent) {
	if ev.Actor == d.cfg.Actor {
		// Our own write echoing back
		return
	}
	if ev.Action != sot.ActionUpdate {
		return
	}
	if ev.Object != sot.ObjectInterface || ev.Field != "untagged_vlan" {
		return
	}

	log := util.WithInterface(ev.Device, ev.Interface)
	log.Infof("untagged VLAN changed %s -> %s (rev %d, actor %s)",
		ev.Old, ev.New, ev.Revision, ev.Actor)

	start := time.Now()
	event := audit.NewEvent(d.cfg.Actor, ev.Device, audit.OpSync).
		WithInterface(ev.Interface).
		WithExecuteMode(true)

	result, err := d.net.SyncUntaggedVLAN(ctx, ev.Device, ev.Interface)
	if err != nil {
		log.Errorf("sync failed: %v", err)
		audit.Log(event.WithError(err).WithDuration(time.Since(start)))
		return
	}
	if !result.Changed {
		log.Debug("nothing to sync")
		return
	}

	if err := result.ChangeSet.Apply(ctx, d.store, d.cfg.Actor); err != nil {
		log.Errorf("applying sync changes: %v", err)
		audit.Log(event.WithError(err).WithDuration(time.Since(start)))
		return
	}
	audit.Log(event.WithChanges(result.ChangeSet.Changes).
		WithSuccess().
		WithDuration(time.Since(start)))
	log.Infof("synced untagged VLAN to %s", result.Uplink)

	d.runDevicePipeline(ctx, result.Uplink)
}

// runDevicePipeline runs the config pipeline for the uplink endpoint after
// a successful sync. Failures abort this event's pipeline only.
func (d *Daemon) runDevicePipeline(ctx context.Context, uplink network.Endpoint) {
	if d.runner == nil {
		return
	}
	device := uplink.Device
	log := util.WithDevice(device)

	start := time.Now()
	event := audit.NewEvent(d.cfg.Actor, device, audit.OpPipeline).
		WithInterface(uplink.Interface).
		WithExecuteMode(true)

	result, err := d.runner.Run(ctx, device, uplink.Interface)
	if err != nil {
		log.Errorf("pipeline aborted: %v", err)
		audit.Log(event.WithError(err).WithDuration(time.Since(start)))
		return
	}
	audit.Log(event.WithSuccess().WithDuration(time.Since(start)))

	if result.Pushed {
		log.Infof("pipeline complete, pushed %d commands", result.PushedCommands)
	} else {
		log.Info("pipeline complete, nothing to push")
	}
}
