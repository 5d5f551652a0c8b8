package network

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/portsync-network/portsync/internal/testutil"
)

func testNetwork(t *testing.T) *Network {
	t.Helper()
	specDir := testutil.WriteSpecDir(t, t.TempDir())
	n, err := NewNetwork(specDir, nil)
	if err != nil {
		t.Fatalf("NewNetwork failed: %v", err)
	}
	return n
}

func TestGetDevice(t *testing.T) {
	n := testNetwork(t)

	dev, err := n.GetDevice("sw-access-01")
	if err != nil {
		t.Fatalf("GetDevice failed: %v", err)
	}
	if dev.Name() != "sw-access-01" {
		t.Errorf("expected name sw-access-01, got %s", dev.Name())
	}
	if dev.Profile().MgmtIP != "192.0.2.10" {
		t.Errorf("unexpected mgmt IP: %s", dev.Profile().MgmtIP)
	}

	// Same handle on repeat lookup
	again, err := n.GetDevice("sw-access-01")
	if err != nil {
		t.Fatalf("second GetDevice failed: %v", err)
	}
	if dev != again {
		t.Error("expected cached device instance")
	}

	if _, err := n.GetDevice("sw-missing"); err == nil {
		t.Error("expected error for unknown device")
	}
}

func TestGetInterface(t *testing.T) {
	n := testNetwork(t)
	dev, err := n.GetDevice("panel-a")
	if err != nil {
		t.Fatalf("GetDevice failed: %v", err)
	}

	intf, err := dev.GetInterface("socket-1")
	if err != nil {
		t.Fatalf("GetInterface failed: %v", err)
	}
	if !intf.IsSocket() {
		t.Errorf("socket-1 should have socket role, got %s", intf.Role())
	}
	if intf.Endpoint() != "panel-a:socket-1" {
		t.Errorf("unexpected endpoint: %s", intf.Endpoint())
	}

	if _, err := dev.GetInterface("socket-99"); err == nil {
		t.Error("expected error for unknown interface")
	}
}

func TestResolvePeerDirect(t *testing.T) {
	n := testNetwork(t)

	peer, err := n.ResolvePeer("panel-a", "socket-1")
	if err != nil {
		t.Fatalf("ResolvePeer failed: %v", err)
	}
	if peer == nil {
		t.Fatal("expected a peer for socket-1")
	}
	if peer.Endpoint() != "sw-access-01:ge-0/0/5" {
		t.Errorf("expected sw-access-01:ge-0/0/5, got %s", peer.Endpoint())
	}

	// And the reverse direction
	peer, err = n.ResolvePeer("sw-access-01", "ge-0/0/5")
	if err != nil {
		t.Fatalf("reverse ResolvePeer failed: %v", err)
	}
	if peer == nil || peer.Endpoint() != "panel-a:socket-1" {
		t.Errorf("expected panel-a:socket-1, got %v", peer)
	}
}

func TestResolvePeerThroughPassthrough(t *testing.T) {
	n := testNetwork(t)

	peer, err := n.ResolvePeer("panel-a", "socket-2")
	if err != nil {
		t.Fatalf("ResolvePeer failed: %v", err)
	}
	if peer == nil {
		t.Fatal("expected a peer through the patch panel")
	}
	if peer.Endpoint() != "sw-access-01:ge-0/0/6" {
		t.Errorf("expected sw-access-01:ge-0/0/6, got %s", peer.Endpoint())
	}

	peer, err = n.ResolvePeer("sw-access-01", "ge-0/0/6")
	if err != nil {
		t.Fatalf("reverse ResolvePeer failed: %v", err)
	}
	if peer == nil || peer.Endpoint() != "panel-a:socket-2" {
		t.Errorf("expected panel-a:socket-2, got %v", peer)
	}
}

func TestResolvePeerUnlinked(t *testing.T) {
	n := testNetwork(t)

	peer, err := n.ResolvePeer("panel-a", "socket-3")
	if err != nil {
		t.Fatalf("ResolvePeer failed: %v", err)
	}
	if peer != nil {
		t.Errorf("expected no peer for unlinked interface, got %s", peer.Endpoint())
	}
}

func TestSyncSkipsPassthrough(t *testing.T) {
	n := testNetwork(t)

	result, err := n.SyncUntaggedVLAN(context.Background(), "patch-1", "port-1")
	if err != nil {
		t.Fatalf("SyncUntaggedVLAN failed: %v", err)
	}
	if result.Changed {
		t.Error("passthrough change should not produce writes")
	}
	if !result.ChangeSet.IsEmpty() {
		t.Errorf("expected empty change set, got:\n%s", result.ChangeSet)
	}
}

func TestSyncSkipsNonSocketPair(t *testing.T) {
	// Two uplinks cabled together: a trunk between switches, not a
	// customer circuit.
	dir := t.TempDir()
	files := map[string]string{
		"inventory.json": `{
	"version": "1.0",
	"devices": {
		"sw-a": {"mgmt_ip": "192.0.2.1", "platform": "juniper_junos"},
		"sw-b": {"mgmt_ip": "192.0.2.2", "platform": "juniper_junos"}
	}
}`,
		"topology.json": `{
	"version": "1.0",
	"devices": {
		"sw-a": {"interfaces": {"ge-0/0/0": {"role": "uplink", "untagged_vlan": 100}}},
		"sw-b": {"interfaces": {"ge-0/0/0": {"role": "uplink", "untagged_vlan": 200}}}
	},
	"links": [{"a": "sw-a:ge-0/0/0", "z": "sw-b:ge-0/0/0"}]
}`,
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatalf("writing %s: %v", name, err)
		}
	}

	n, err := NewNetwork(dir, nil)
	if err != nil {
		t.Fatalf("NewNetwork failed: %v", err)
	}

	result, err := n.SyncUntaggedVLAN(context.Background(), "sw-a", "ge-0/0/0")
	if err != nil {
		t.Fatalf("SyncUntaggedVLAN failed: %v", err)
	}
	if result.Changed {
		t.Error("uplink/uplink pair should not produce writes")
	}
	if !result.Uplink.IsZero() {
		t.Errorf("rejected pair should not name an uplink, got %s", result.Uplink)
	}
}

func TestSyncNoPeer(t *testing.T) {
	n := testNetwork(t)

	result, err := n.SyncUntaggedVLAN(context.Background(), "panel-a", "socket-3")
	if err != nil {
		t.Fatalf("SyncUntaggedVLAN failed: %v", err)
	}
	if result.Changed {
		t.Error("unlinked interface should not produce writes")
	}
}
