package main

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"time"

	"github.com/portsync-network/portsync/pkg/sot"
	"github.com/portsync-network/portsync/pkg/util"
)

// secretHeader carries the shared secret on webhook requests.
const secretHeader = "X-Portsync-Secret"

// webhookActor is recorded on events published from webhook requests.
const webhookActor = "webhook"

// triggerRequest is the POST /hooks/interface payload. It names an
// interface whose untagged VLAN should be re-evaluated. Action and field
// are optional; they default to an untagged-VLAN update.
type triggerRequest struct {
	Action    string `json:"action,omitempty"`
	Device    string `json:"device"`
	Interface string `json:"interface"`
	Field     string `json:"field,omitempty"`
}

// newWebhookServer builds the HTTP server that lets external systems
// (provisioning portals, CMDB hooks) nudge the daemon. The handler only
// publishes a change event; the watch loop does the actual work, so
// webhook triggers and CLI writes take the same path.
func newWebhookServer(cfg *Config, store *sot.Store) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/hooks/interface", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		secret := r.Header.Get(secretHeader)
		if subtle.ConstantTimeCompare([]byte(secret), []byte(cfg.Webhook.Secret)) != 1 {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		var req triggerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		if req.Device == "" || req.Interface == "" {
			http.Error(w, "device and interface are required", http.StatusBadRequest)
			return
		}

		if req.Action == "" {
			req.Action = sot.ActionUpdate
		}
		if req.Field == "" {
			req.Field = "untagged_vlan"
		}

		ev := &sot.ChangeEvent{
			Action:    req.Action,
			Object:    sot.ObjectInterface,
			Device:    req.Device,
			Interface: req.Interface,
			Field:     req.Field,
			Actor:     webhookActor,
		}
		if err := store.PublishChange(r.Context(), ev); err != nil {
			util.Errorf("publishing webhook event: %v", err)
			http.Error(w, "publish failed", http.StatusInternalServerError)
			return
		}

		util.WithInterface(req.Device, req.Interface).Info("webhook trigger accepted")
		w.WriteHeader(http.StatusAccepted)
	})

	return &http.Server{
		Addr:         cfg.Webhook.Listen,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}
}

// runWebhook serves the webhook endpoint until ctx is cancelled.
func runWebhook(ctx context.Context, srv *http.Server) error {
	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()
	util.Infof("webhook listening on %s", srv.Addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errc:
		return err
	}
}
