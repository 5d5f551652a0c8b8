package sot

import (
	"testing"

	"github.com/portsync-network/portsync/pkg/spec"
)

func TestSeedInterfaceEntryModes(t *testing.T) {
	tests := []struct {
		name     string
		intf     spec.TopologyInterface
		wantMode string
	}{
		{"socket gets access mode", spec.TopologyInterface{Role: spec.RoleSocket, UntaggedVLAN: 100}, "access"},
		{"uplink gets access mode", spec.TopologyInterface{Role: spec.RoleUplink}, "access"},
		{"passthrough stays modeless", spec.TopologyInterface{Role: spec.RolePassthrough, Description: "panel front"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := seedInterfaceEntry(&tt.intf)
			if entry.Mode != tt.wantMode {
				t.Errorf("mode = %q, want %q", entry.Mode, tt.wantMode)
			}
			if entry.Role != tt.intf.Role {
				t.Errorf("role = %q, want %q", entry.Role, tt.intf.Role)
			}
			if entry.UntaggedVLAN != tt.intf.UntaggedVLAN {
				t.Errorf("untagged vlan = %d, want %d", entry.UntaggedVLAN, tt.intf.UntaggedVLAN)
			}
			if !entry.Enabled {
				t.Error("seeded interfaces should start enabled")
			}
		})
	}
}
