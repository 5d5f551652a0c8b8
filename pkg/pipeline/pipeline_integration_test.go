//go:build integration

package pipeline

import (
	"os/exec"
	"strings"
	"testing"

	"github.com/portsync-network/portsync/internal/testutil"
	"github.com/portsync-network/portsync/pkg/network"
	"github.com/portsync-network/portsync/pkg/sot"
)

func TestIntendedRendersFromStore(t *testing.T) {
	testutil.SkipIfNoRedis(t)
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git binary not available")
	}

	addr := testutil.RedisAddr(t)
	testutil.FlushDB(t, addr, testutil.SoTDB)
	testutil.SeedTables(t, addr, testutil.SoTDB, testutil.SoTTables())

	repoRoot := t.TempDir()
	if out, err := exec.Command("git", "init", "-q", repoRoot).CombinedOutput(); err != nil {
		t.Fatalf("git init: %v (%s)", err, out)
	}

	store := sot.NewStoreFromClient(testutil.RedisClient(t, testutil.SoTDB))
	specDir := testutil.WriteSpecDir(t, repoRoot)
	n, err := network.NewNetwork(specDir, store)
	if err != nil {
		t.Fatalf("NewNetwork failed: %v", err)
	}
	r, err := NewRunner(n)
	if err != nil {
		t.Fatalf("NewRunner failed: %v", err)
	}

	ctx := testutil.Context(t)
	intended, err := r.Intended(ctx, "sw-access-01")
	if err != nil {
		t.Fatalf("Intended failed: %v", err)
	}

	for _, want := range []string{
		"set vlans VLAN100 vlan-id 100",
		"set vlans VLAN200 vlan-id 200",
		"set interfaces ge-0/0/5 unit 0 family ethernet-switching vlan members VLAN100",
		"set interfaces ge-0/0/6 unit 0 family ethernet-switching vlan members VLAN200",
	} {
		if !strings.Contains(intended, want) {
			t.Errorf("intended config missing %q:\n%s", want, intended)
		}
	}
}
