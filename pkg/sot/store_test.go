package sot

import "testing"

func TestEncodeDecodeInterface(t *testing.T) {
	tests := []struct {
		name  string
		entry InterfaceEntry
	}{
		{"access port", InterfaceEntry{Role: "socket", UntaggedVLAN: 100, Mode: "access", Enabled: true}},
		{"no vlan", InterfaceEntry{Role: "uplink", Mode: "access", Enabled: true}},
		{"disabled", InterfaceEntry{Role: "passthrough", Enabled: false, Description: "spare"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := encodeInterface(&tt.entry)

			// Round-trip through the string form Redis would hold
			vals := make(map[string]string, len(fields))
			for k, v := range fields {
				vals[k] = v.(string)
			}
			got := decodeInterface(vals)

			if *got != tt.entry {
				t.Errorf("round trip = %+v, want %+v", *got, tt.entry)
			}
		})
	}
}

func TestEncodeInterfaceOmitsZeroVLAN(t *testing.T) {
	fields := encodeInterface(&InterfaceEntry{Role: "uplink", Enabled: true})
	if _, present := fields["untagged_vlan"]; present {
		t.Error("untagged_vlan field should be omitted when unset")
	}
}

func TestKeyFormats(t *testing.T) {
	if got := deviceKey("sw-access-01"); got != "DEVICE|sw-access-01" {
		t.Errorf("deviceKey = %q", got)
	}
	if got := interfaceKey("sw-access-01", "ge-0/0/5"); got != "INTERFACE|sw-access-01|ge-0/0/5" {
		t.Errorf("interfaceKey = %q", got)
	}
	if got := vlanKey(100); got != "VLAN|100" {
		t.Errorf("vlanKey = %q", got)
	}
}
