package device

import (
	"strings"
	"testing"
)

const sampleSetConfig = `set system host-name sw-access-01
set vlans corp vlan-id 100
set vlans voice vlan-id 200
set interfaces ge-0/0/5 unit 0 family ethernet-switching interface-mode access
set interfaces ge-0/0/5 unit 0 family ethernet-switching vlan members corp
set interfaces ge-0/0/6 unit 0 family ethernet-switching interface-mode access
set interfaces ge-0/0/6 unit 0 family ethernet-switching vlan members voice
set interfaces ge-0/0/10 unit 0 family ethernet-switching interface-mode trunk
set interfaces ge-0/0/10 unit 0 family ethernet-switching vlan members corp
set interfaces ge-0/0/10 unit 0 family ethernet-switching vlan members voice
set interfaces ge-0/0/11 unit 0 family ethernet-switching interface-mode access
set interfaces ge-0/0/11 unit 0 family ethernet-switching vlan members corp
set interfaces ge-0/0/11 unit 0 family ethernet-switching vlan members voice
`

func TestParseSetConfig(t *testing.T) {
	cfg, err := ParseSetConfig(strings.NewReader(sampleSetConfig))
	if err != nil {
		t.Fatalf("ParseSetConfig failed: %v", err)
	}

	if len(cfg.VLANs) != 2 {
		t.Errorf("expected 2 VLANs, got %d", len(cfg.VLANs))
	}
	if cfg.VLANs["corp"] != 100 {
		t.Errorf("expected corp=100, got %d", cfg.VLANs["corp"])
	}
	if cfg.VLANs["voice"] != 200 {
		t.Errorf("expected voice=200, got %d", cfg.VLANs["voice"])
	}

	if len(cfg.AccessPorts) != 2 {
		t.Errorf("expected 2 access ports, got %d: %v", len(cfg.AccessPorts), cfg.AccessPorts)
	}
	if cfg.AccessPorts["ge-0/0/5"] != "corp" {
		t.Errorf("expected ge-0/0/5 bound to corp, got %s", cfg.AccessPorts["ge-0/0/5"])
	}
	if cfg.AccessPorts["ge-0/0/6"] != "voice" {
		t.Errorf("expected ge-0/0/6 bound to voice, got %s", cfg.AccessPorts["ge-0/0/6"])
	}

	// Trunk ports and access ports with multiple members are skipped.
	if _, ok := cfg.AccessPorts["ge-0/0/10"]; ok {
		t.Error("trunk port ge-0/0/10 should not be an access port")
	}
	if _, ok := cfg.AccessPorts["ge-0/0/11"]; ok {
		t.Error("multi-member port ge-0/0/11 should not be an access port")
	}
}

func TestParseSetConfigEmpty(t *testing.T) {
	cfg, err := ParseSetConfig(strings.NewReader(""))
	if err != nil {
		t.Fatalf("ParseSetConfig failed: %v", err)
	}
	if len(cfg.VLANs) != 0 || len(cfg.AccessPorts) != 0 {
		t.Errorf("expected empty config, got %+v", cfg)
	}
}

func TestBackupConfigVLANID(t *testing.T) {
	cfg := &BackupConfig{VLANs: map[string]int{"corp": 100}}

	tests := []struct {
		member string
		vid    int
		ok     bool
	}{
		{"corp", 100, true},
		{"300", 300, true},
		{"unknown", 0, false},
	}

	for _, tt := range tests {
		vid, ok := cfg.VLANID(tt.member)
		if vid != tt.vid || ok != tt.ok {
			t.Errorf("VLANID(%s) = (%d, %v), expected (%d, %v)",
				tt.member, vid, ok, tt.vid, tt.ok)
		}
	}
}

func TestBackupConfigSortedNames(t *testing.T) {
	cfg := &BackupConfig{
		VLANs:       map[string]int{"voice": 200, "corp": 100},
		AccessPorts: map[string]string{"ge-0/0/6": "voice", "ge-0/0/5": "corp"},
	}

	vlans := cfg.VLANNames()
	if len(vlans) != 2 || vlans[0] != "corp" || vlans[1] != "voice" {
		t.Errorf("unexpected VLAN names: %v", vlans)
	}

	ifaces := cfg.InterfaceNames()
	if len(ifaces) != 2 || ifaces[0] != "ge-0/0/5" || ifaces[1] != "ge-0/0/6" {
		t.Errorf("unexpected interface names: %v", ifaces)
	}
}
