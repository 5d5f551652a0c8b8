// Portsyncd - Socket/Uplink VLAN Synchronization Daemon
//
// Watches the source of truth for untagged-VLAN changes and keeps
// socket/uplink pairs synchronized, running the backup/intended/push
// pipeline against the affected uplink switch after each sync.
//
// Usage:
//
//	portsyncd -config /etc/portsync/portsyncd.yaml
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/portsync-network/portsync/pkg/audit"
	"github.com/portsync-network/portsync/pkg/network"
	"github.com/portsync-network/portsync/pkg/sot"
	"github.com/portsync-network/portsync/pkg/util"
	"github.com/portsync-network/portsync/pkg/version"
)

func main() {
	configPath := flag.String("config", DefaultConfigPath, "Path to configuration file")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("portsyncd %s\n", version.Info())
		return
	}

	if err := run(*configPath); err != nil && !errors.Is(err, context.Canceled) {
		util.Errorf("portsyncd: %v", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return err
	}

	if cfg.LogJSON {
		util.SetJSONFormat()
	}
	if err := util.SetLogLevel(cfg.LogLevel); err != nil {
		return err
	}
	util.Infof("portsyncd %s starting", version.Version)

	auditLogger, err := audit.NewFileLogger(cfg.AuditLog, audit.RotationConfig{
		MaxSize:    10 * 1024 * 1024, // 10MB
		MaxBackups: 10,
	})
	if err != nil {
		return fmt.Errorf("opening audit log: %w", err)
	}
	defer auditLogger.Close()
	audit.SetDefaultLogger(auditLogger)

	store := sot.NewStore(cfg.RedisAddr, 0)
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := store.Connect(ctx); err != nil {
		return fmt.Errorf("connecting to source of truth at %s: %w", cfg.RedisAddr, err)
	}

	net, err := network.NewNetwork(cfg.SpecDir, store)
	if err != nil {
		return err
	}
	defer net.Close()

	daemon := NewDaemon(cfg, net)

	errc := make(chan error, 1)
	if cfg.Webhook.Listen != "" {
		srv := newWebhookServer(cfg, store)
		go func() {
			if err := runWebhook(ctx, srv); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errc <- err
			}
		}()
	}

	go func() {
		errc <- daemon.Run(ctx)
	}()

	err = <-errc
	util.Info("portsyncd shutting down")
	return err
}
