package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// Canonical test topology: a socket panel cabled to an access switch
// through a patch panel, plus a directly cabled socket.
//
//	panel-a:socket-1  <->  sw-access-01:ge-0/0/5   (direct)
//	panel-a:socket-2  <->  patch-1:port-1  <->  sw-access-01:ge-0/0/6
//	panel-a:socket-3  (not cabled)

// SpecFiles returns the canonical spec file contents, keyed by file name.
func SpecFiles() map[string]string {
	return map[string]string{
		"inventory.json": `{
	"version": "1.0",
	"devices": {
		"sw-access-01": {
			"mgmt_ip": "192.0.2.10",
			"platform": "juniper_junos",
			"site": "lab",
			"ssh_user": "automation",
			"ssh_pass": "testing123"
		},
		"panel-a": {
			"mgmt_ip": "192.0.2.20",
			"platform": "socket_panel",
			"site": "lab"
		},
		"patch-1": {
			"mgmt_ip": "192.0.2.30",
			"platform": "patch_panel",
			"site": "lab"
		}
	}
}`,
		"topology.json": `{
	"version": "1.0",
	"devices": {
		"sw-access-01": {
			"interfaces": {
				"ge-0/0/5": {"role": "uplink", "untagged_vlan": 100},
				"ge-0/0/6": {"role": "uplink", "untagged_vlan": 200}
			}
		},
		"panel-a": {
			"interfaces": {
				"socket-1": {"role": "socket", "untagged_vlan": 100},
				"socket-2": {"role": "socket", "untagged_vlan": 200},
				"socket-3": {"role": "socket"}
			}
		},
		"patch-1": {
			"interfaces": {
				"port-1": {"role": "passthrough"}
			}
		}
	},
	"links": [
		{"a": "panel-a:socket-1", "z": "sw-access-01:ge-0/0/5"},
		{"a": "panel-a:socket-2", "z": "patch-1:port-1"},
		{"a": "patch-1:port-1", "z": "sw-access-01:ge-0/0/6"}
	]
}`,
	}
}

// WriteSpecDir writes the canonical spec files plus a pipeline.json rooted
// at repoRoot into a temp dir and returns its path.
func WriteSpecDir(t *testing.T, repoRoot string) string {
	t.Helper()

	dir := t.TempDir()
	files := SpecFiles()
	files["pipeline.json"] = `{
	"version": "1.0",
	"repo_root": "` + repoRoot + `"
}`
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatalf("writing %s: %v", name, err)
		}
	}
	return dir
}

// SoTTables returns the canonical topology as raw SoT table data, suitable
// for SeedTables.
func SoTTables() map[string]map[string]map[string]string {
	return map[string]map[string]map[string]string{
		"DEVICE": {
			"sw-access-01": {"mgmt_ip": "192.0.2.10", "platform": "juniper_junos", "site": "lab"},
			"panel-a":      {"mgmt_ip": "192.0.2.20", "platform": "socket_panel", "site": "lab"},
			"patch-1":      {"mgmt_ip": "192.0.2.30", "platform": "patch_panel", "site": "lab"},
		},
		"INTERFACE": {
			"sw-access-01|ge-0/0/5": {"role": "uplink", "untagged_vlan": "100", "mode": "access", "enabled": "true"},
			"sw-access-01|ge-0/0/6": {"role": "uplink", "untagged_vlan": "200", "mode": "access", "enabled": "true"},
			"panel-a|socket-1":      {"role": "socket", "untagged_vlan": "100", "mode": "access", "enabled": "true"},
			"panel-a|socket-2":      {"role": "socket", "untagged_vlan": "200", "mode": "access", "enabled": "true"},
			"panel-a|socket-3":      {"role": "socket", "mode": "access", "enabled": "true"},
			"patch-1|port-1":        {"role": "passthrough", "enabled": "true"},
		},
		"VLAN": {
			"100": {"name": "VLAN100", "status": "active"},
			"200": {"name": "VLAN200", "status": "active"},
		},
	}
}
