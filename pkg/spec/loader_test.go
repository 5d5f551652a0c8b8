package spec

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Helper to create test spec directory with files
func createTestSpecDir(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()

	inventoryJSON := `{
		"version": "1.0",
		"devices": {
			"sw-access-01": {
				"mgmt_ip": "192.0.2.10",
				"platform": "juniper_junos",
				"site": "lab",
				"ssh_user": "automation",
				"ssh_pass": "secret"
			},
			"panel-01": {
				"mgmt_ip": "192.0.2.20",
				"platform": "patch_panel"
			}
		}
	}`
	if err := os.WriteFile(filepath.Join(tmpDir, "inventory.json"), []byte(inventoryJSON), 0644); err != nil {
		t.Fatalf("Failed to write inventory.json: %v", err)
	}

	topologyJSON := `{
		"version": "1.0",
		"devices": {
			"sw-access-01": {
				"interfaces": {
					"ge-0/0/5": {"role": "uplink", "untagged_vlan": 100},
					"ge-0/0/6": {"role": "uplink"}
				}
			},
			"panel-01": {
				"interfaces": {
					"port-1": {"role": "passthrough"},
					"socket-1": {"role": "socket", "untagged_vlan": 100}
				}
			}
		},
		"links": [
			{"a": "sw-access-01:ge-0/0/5", "z": "panel-01:port-1"},
			{"a": "panel-01:port-1", "z": "panel-01:socket-1"}
		]
	}`
	if err := os.WriteFile(filepath.Join(tmpDir, "topology.json"), []byte(topologyJSON), 0644); err != nil {
		t.Fatalf("Failed to write topology.json: %v", err)
	}

	pipelineJSON := `{
		"version": "1.0",
		"repo_root": "/var/lib/portsync/netops"
	}`
	if err := os.WriteFile(filepath.Join(tmpDir, "pipeline.json"), []byte(pipelineJSON), 0644); err != nil {
		t.Fatalf("Failed to write pipeline.json: %v", err)
	}

	return tmpDir
}

func TestLoader_Load(t *testing.T) {
	loader := NewLoader(createTestSpecDir(t))
	if err := loader.Load(); err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	inventory := loader.GetInventory()
	if inventory == nil {
		t.Fatal("GetInventory() returned nil")
	}
	if inventory.Version != "1.0" {
		t.Errorf("Inventory version = %q, want %q", inventory.Version, "1.0")
	}
	if len(inventory.Devices) != 2 {
		t.Errorf("Expected 2 devices, got %d", len(inventory.Devices))
	}

	topology := loader.GetTopology()
	if topology == nil {
		t.Fatal("GetTopology() returned nil")
	}
	if !topology.HasDevice("sw-access-01") {
		t.Error("Topology should contain sw-access-01")
	}
	if len(topology.Links) != 2 {
		t.Errorf("Expected 2 links, got %d", len(topology.Links))
	}
}

func TestLoader_PipelineDefaults(t *testing.T) {
	loader := NewLoader(createTestSpecDir(t))
	if err := loader.Load(); err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	pipeline := loader.GetPipeline()
	if pipeline == nil {
		t.Fatal("GetPipeline() returned nil")
	}
	if pipeline.RepoRoot != "/var/lib/portsync/netops" {
		t.Errorf("RepoRoot = %q", pipeline.RepoRoot)
	}
	if pipeline.Template != DefaultTemplate {
		t.Errorf("Template = %q, want default %q", pipeline.Template, DefaultTemplate)
	}
	if got := pipeline.BackupPathFor("sw-access-01"); got != "backups/sw-access-01.set" {
		t.Errorf("BackupPathFor = %q", got)
	}
	if got := pipeline.IntendedPathFor("sw-access-01"); got != "intended/sw-access-01.conf" {
		t.Errorf("IntendedPathFor = %q", got)
	}
}

func TestLoader_PipelineOptional(t *testing.T) {
	tmpDir := createTestSpecDir(t)
	if err := os.Remove(filepath.Join(tmpDir, "pipeline.json")); err != nil {
		t.Fatal(err)
	}

	loader := NewLoader(tmpDir)
	if err := loader.Load(); err != nil {
		t.Fatalf("Load() should succeed without pipeline.json: %v", err)
	}
	if loader.GetPipeline() != nil {
		t.Error("GetPipeline() should return nil when pipeline.json is absent")
	}
}

func TestLoader_ResolveProfile(t *testing.T) {
	loader := NewLoader(createTestSpecDir(t))
	if err := loader.Load(); err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	t.Run("explicit credentials", func(t *testing.T) {
		profile, err := loader.ResolveProfile("sw-access-01")
		if err != nil {
			t.Fatalf("ResolveProfile() failed: %v", err)
		}
		if profile.SSHUser != "automation" || profile.SSHPass != "secret" {
			t.Errorf("Expected profile credentials, got user=%q", profile.SSHUser)
		}
		if profile.SSHPort != DefaultSSHPort {
			t.Errorf("SSHPort = %d, want %d", profile.SSHPort, DefaultSSHPort)
		}
	})

	t.Run("environment fallback", func(t *testing.T) {
		t.Setenv(EnvSSHUser, "envuser")
		t.Setenv(EnvSSHPass, "envpass")

		profile, err := loader.ResolveProfile("panel-01")
		if err != nil {
			t.Fatalf("ResolveProfile() failed: %v", err)
		}
		if profile.SSHUser != "envuser" || profile.SSHPass != "envpass" {
			t.Errorf("Expected env credentials, got user=%q pass=%q", profile.SSHUser, profile.SSHPass)
		}
	})

	t.Run("unknown device", func(t *testing.T) {
		if _, err := loader.ResolveProfile("no-such-device"); err == nil {
			t.Error("Expected error for unknown device")
		}
	})
}

func TestLoader_ValidationErrors(t *testing.T) {
	tests := []struct {
		name     string
		topology string
		wantErr  string
	}{
		{
			name: "unknown topology device",
			topology: `{
				"devices": {
					"ghost": {"interfaces": {"ge-0/0/1": {"role": "uplink"}}}
				}
			}`,
			wantErr: "not found in inventory",
		},
		{
			name: "bad link endpoint",
			topology: `{
				"devices": {
					"sw-access-01": {"interfaces": {"ge-0/0/1": {"role": "uplink"}}}
				},
				"links": [{"a": "sw-access-01:ge-0/0/1", "z": "sw-access-01:ge-0/0/9"}]
			}`,
			wantErr: "not found on device",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir := createTestSpecDir(t)
			if err := os.WriteFile(filepath.Join(tmpDir, "topology.json"), []byte(tt.topology), 0644); err != nil {
				t.Fatal(err)
			}

			err := NewLoader(tmpDir).Load()
			if err == nil {
				t.Fatal("Expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Error = %q, want substring %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestLoader_SchemaRejectsBadShape(t *testing.T) {
	tmpDir := createTestSpecDir(t)

	// untagged_vlan as a string should fail the schema before unmarshal
	badTopology := `{
		"devices": {
			"sw-access-01": {
				"interfaces": {"ge-0/0/1": {"role": "uplink", "untagged_vlan": "100"}}
			}
		}
	}`
	if err := os.WriteFile(filepath.Join(tmpDir, "topology.json"), []byte(badTopology), 0644); err != nil {
		t.Fatal(err)
	}

	err := NewLoader(tmpDir).Load()
	if err == nil {
		t.Fatal("Expected schema error")
	}
	if !strings.Contains(err.Error(), "schema validation") {
		t.Errorf("Error = %q, want schema validation failure", err.Error())
	}
}

func TestSplitEndpoint(t *testing.T) {
	tests := []struct {
		input      string
		wantDevice string
		wantIntf   string
		wantOK     bool
	}{
		{"sw-access-01:ge-0/0/5", "sw-access-01", "ge-0/0/5", true},
		{"panel:port:1", "panel", "port:1", true},
		{"no-colon", "", "", false},
		{":ge-0/0/1", "", "", false},
		{"device:", "", "", false},
	}

	for _, tt := range tests {
		device, intf, ok := SplitEndpoint(tt.input)
		if device != tt.wantDevice || intf != tt.wantIntf || ok != tt.wantOK {
			t.Errorf("SplitEndpoint(%q) = (%q, %q, %v), want (%q, %q, %v)",
				tt.input, device, intf, ok, tt.wantDevice, tt.wantIntf, tt.wantOK)
		}
	}
}

func TestResolver(t *testing.T) {
	r := NewResolver(map[string]string{"device": "sw-access-01"})

	tests := []struct {
		input string
		want  string
	}{
		{"backups/${device}.set", "backups/sw-access-01.set"},
		{"$device.conf", "sw-access-01.conf"},
		{"no-vars.txt", "no-vars.txt"},
		{"${unknown}/x", "${unknown}/x"},
	}

	for _, tt := range tests {
		if got := r.ResolveString(tt.input); got != tt.want {
			t.Errorf("ResolveString(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
