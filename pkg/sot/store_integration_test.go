//go:build integration

package sot

import (
	"errors"
	"testing"
	"time"

	"github.com/portsync-network/portsync/internal/testutil"
	"github.com/portsync-network/portsync/pkg/util"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	testutil.SkipIfNoRedis(t)
	testutil.FlushDB(t, testutil.RedisAddr(), testutil.SoTDB)
	return NewStoreFromClient(testutil.RedisClient(t, testutil.SoTDB))
}

func seededStore(t *testing.T) *Store {
	t.Helper()
	store := testStore(t)
	testutil.SeedTables(t, testutil.RedisAddr(), testutil.SoTDB, testutil.SoTTables())
	return store
}

func TestStore_DeviceRoundTrip(t *testing.T) {
	store := testStore(t)
	ctx := testutil.Context(t)

	entry := &DeviceEntry{MgmtIP: "192.0.2.10", Platform: "juniper_junos", Site: "lab"}
	if err := store.PutDevice(ctx, "sw-access-01", entry); err != nil {
		t.Fatalf("PutDevice: %v", err)
	}

	got, err := store.GetDevice(ctx, "sw-access-01")
	if err != nil {
		t.Fatalf("GetDevice: %v", err)
	}
	if *got != *entry {
		t.Errorf("GetDevice = %+v, want %+v", *got, *entry)
	}

	if _, err := store.GetDevice(ctx, "missing"); !errors.Is(err, util.ErrNotFound) {
		t.Errorf("GetDevice(missing) error = %v, want ErrNotFound", err)
	}

	names, err := store.ListDevices(ctx)
	if err != nil {
		t.Fatalf("ListDevices: %v", err)
	}
	if len(names) != 1 || names[0] != "sw-access-01" {
		t.Errorf("ListDevices = %v", names)
	}
}

func TestStore_InterfaceRoundTrip(t *testing.T) {
	store := testStore(t)
	ctx := testutil.Context(t)

	entry := &InterfaceEntry{Role: "uplink", UntaggedVLAN: 100, Mode: "access", Enabled: true}
	if err := store.PutInterface(ctx, "sw-access-01", "ge-0/0/5", entry); err != nil {
		t.Fatalf("PutInterface: %v", err)
	}

	got, err := store.GetInterface(ctx, "sw-access-01", "ge-0/0/5")
	if err != nil {
		t.Fatalf("GetInterface: %v", err)
	}
	if *got != *entry {
		t.Errorf("GetInterface = %+v, want %+v", *got, *entry)
	}

	// Clearing the VLAN removes the field
	entry.UntaggedVLAN = 0
	if err := store.PutInterface(ctx, "sw-access-01", "ge-0/0/5", entry); err != nil {
		t.Fatalf("PutInterface (clear): %v", err)
	}
	got, err = store.GetInterface(ctx, "sw-access-01", "ge-0/0/5")
	if err != nil {
		t.Fatalf("GetInterface: %v", err)
	}
	if got.UntaggedVLAN != 0 {
		t.Errorf("UntaggedVLAN = %d after clear, want 0", got.UntaggedVLAN)
	}
}

func TestStore_SetUntaggedVLANPublishesEvent(t *testing.T) {
	store := seededStore(t)
	ctx := testutil.Context(t)

	events, err := store.Watch(ctx)
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}

	if err := store.SetUntaggedVLAN(ctx, "panel-a", "socket-1", 300, "test"); err != nil {
		t.Fatalf("SetUntaggedVLAN: %v", err)
	}

	select {
	case ev := <-events:
		if ev.Object != ObjectInterface || ev.Action != ActionUpdate {
			t.Errorf("event = %+v", ev)
		}
		if ev.Device != "panel-a" || ev.Interface != "socket-1" {
			t.Errorf("event target = %s:%s", ev.Device, ev.Interface)
		}
		if ev.Old != "100" || ev.New != "300" {
			t.Errorf("event values = %s -> %s, want 100 -> 300", ev.Old, ev.New)
		}
		if ev.Actor != "test" {
			t.Errorf("event actor = %q", ev.Actor)
		}
		if ev.Revision == 0 {
			t.Error("event revision should be non-zero")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no change event received")
	}

	got, err := store.GetInterface(ctx, "panel-a", "socket-1")
	if err != nil {
		t.Fatalf("GetInterface: %v", err)
	}
	if got.UntaggedVLAN != 300 {
		t.Errorf("UntaggedVLAN = %d, want 300", got.UntaggedVLAN)
	}
}

func TestStore_SetUntaggedVLANNoChangeNoEvent(t *testing.T) {
	store := seededStore(t)
	ctx := testutil.Context(t)

	events, err := store.Watch(ctx)
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}

	// socket-1 already carries VLAN 100
	if err := store.SetUntaggedVLAN(ctx, "panel-a", "socket-1", 100, "test"); err != nil {
		t.Fatalf("SetUntaggedVLAN: %v", err)
	}

	select {
	case ev := <-events:
		t.Errorf("unexpected event: %+v", ev)
	case <-time.After(500 * time.Millisecond):
	}
}

func TestStore_EnsureVLAN(t *testing.T) {
	store := testStore(t)
	ctx := testutil.Context(t)

	created, err := store.EnsureVLAN(ctx, 100, "")
	if err != nil {
		t.Fatalf("EnsureVLAN: %v", err)
	}
	if !created {
		t.Error("first EnsureVLAN should create")
	}

	created, err = store.EnsureVLAN(ctx, 100, "")
	if err != nil {
		t.Fatalf("EnsureVLAN: %v", err)
	}
	if created {
		t.Error("second EnsureVLAN should not create")
	}

	vlan, err := store.GetVLAN(ctx, 100)
	if err != nil {
		t.Fatalf("GetVLAN: %v", err)
	}
	if vlan.Name != "VLAN100" || vlan.Status != VLANStatusActive {
		t.Errorf("GetVLAN = %+v", vlan)
	}
}

func TestStore_RevisionIncreases(t *testing.T) {
	store := testStore(t)
	ctx := testutil.Context(t)

	before, err := store.Revision(ctx)
	if err != nil {
		t.Fatalf("Revision: %v", err)
	}
	if before != 0 {
		t.Errorf("fresh store revision = %d, want 0", before)
	}

	if err := store.PutDevice(ctx, "sw-access-01", &DeviceEntry{MgmtIP: "192.0.2.10", Platform: "juniper_junos"}); err != nil {
		t.Fatalf("PutDevice: %v", err)
	}
	if _, err := store.EnsureVLAN(ctx, 100, ""); err != nil {
		t.Fatalf("EnsureVLAN: %v", err)
	}

	after, err := store.Revision(ctx)
	if err != nil {
		t.Fatalf("Revision: %v", err)
	}
	if after <= before {
		t.Errorf("revision did not increase: %d -> %d", before, after)
	}
}
