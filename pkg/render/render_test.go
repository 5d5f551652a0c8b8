package render

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func testData() *DeviceData {
	return &DeviceData{
		Device: "sw-access-01",
		Interfaces: []InterfaceData{
			{Name: "ge-0/0/5", Role: "uplink", Mode: "access", UntaggedVLAN: 100, VLANName: "corp", Description: "cust: acme socket-1"},
			{Name: "ge-0/0/6", Role: "uplink", Mode: "access", UntaggedVLAN: 200, VLANName: "VLAN200"},
		},
		VLANs: []VLANData{
			{ID: 100, Name: "corp"},
			{ID: 200, Name: "VLAN200"},
		},
	}
}

func TestRenderDefaultTemplate(t *testing.T) {
	r, err := NewRenderer("")
	if err != nil {
		t.Fatalf("NewRenderer failed: %v", err)
	}

	out, err := r.Render(testData())
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	for _, want := range []string{
		"set vlans corp vlan-id 100",
		"set vlans VLAN200 vlan-id 200",
		"delete interfaces ge-0/0/5 unit 0 family ethernet-switching vlan",
		`set interfaces ge-0/0/5 description "cust: acme socket-1"`,
		"set interfaces ge-0/0/5 unit 0 family ethernet-switching interface-mode access",
		"set interfaces ge-0/0/5 unit 0 family ethernet-switching vlan members corp",
		// Empty description falls back to the role via sprig default
		`set interfaces ge-0/0/6 description "uplink"`,
		"set interfaces ge-0/0/6 unit 0 family ethernet-switching vlan members VLAN200",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if !strings.HasSuffix(out, "\n") {
		t.Error("output should end with a newline")
	}
}

func TestRenderCommands(t *testing.T) {
	r, err := NewRenderer("")
	if err != nil {
		t.Fatalf("NewRenderer failed: %v", err)
	}

	commands, err := r.RenderCommands(testData())
	if err != nil {
		t.Fatalf("RenderCommands failed: %v", err)
	}
	if len(commands) != 10 {
		t.Errorf("expected 10 commands, got %d: %v", len(commands), commands)
	}
	for _, cmd := range commands {
		if strings.TrimSpace(cmd) == "" {
			t.Error("blank command slipped through")
		}
	}
}

func TestRenderInterface(t *testing.T) {
	r, err := NewRenderer("")
	if err != nil {
		t.Fatalf("NewRenderer failed: %v", err)
	}

	commands, err := r.RenderInterface(testData(), "ge-0/0/5")
	if err != nil {
		t.Fatalf("RenderInterface failed: %v", err)
	}

	if len(commands) == 0 {
		t.Fatal("expected commands for ge-0/0/5")
	}
	if commands[0] != "delete interfaces ge-0/0/5 unit 0 family ethernet-switching vlan" {
		t.Errorf("delete line should come first, got %q", commands[0])
	}
	for _, cmd := range commands {
		if strings.Contains(cmd, "ge-0/0/6") || strings.Contains(cmd, "VLAN200") {
			t.Errorf("other interface leaked into push commands: %q", cmd)
		}
	}
	found := false
	for _, cmd := range commands {
		if cmd == "set interfaces ge-0/0/5 unit 0 family ethernet-switching vlan members corp" {
			found = true
		}
	}
	if !found {
		t.Errorf("missing VLAN binding command: %v", commands)
	}
}

func TestRenderInterfacePrependsDeleteLine(t *testing.T) {
	// Template without a delete line; the push path adds it.
	dir := t.TempDir()
	path := filepath.Join(dir, "nodelete.tmpl")
	content := "{{- range .Interfaces }}\nset interfaces {{ .Name }} unit 0 family ethernet-switching vlan members {{ .VLANName }}\n{{- end }}\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing template: %v", err)
	}

	r, err := NewRenderer(path)
	if err != nil {
		t.Fatalf("NewRenderer failed: %v", err)
	}
	commands, err := r.RenderInterface(testData(), "ge-0/0/5")
	if err != nil {
		t.Fatalf("RenderInterface failed: %v", err)
	}
	if len(commands) != 2 {
		t.Fatalf("expected delete + set, got %v", commands)
	}
	if commands[0] != "delete interfaces ge-0/0/5 unit 0 family ethernet-switching vlan" {
		t.Errorf("missing prepended delete line: %v", commands)
	}
}

func TestRenderInterfaceUnknown(t *testing.T) {
	r, err := NewRenderer("")
	if err != nil {
		t.Fatalf("NewRenderer failed: %v", err)
	}

	commands, err := r.RenderInterface(testData(), "ge-0/0/9")
	if err != nil {
		t.Fatalf("RenderInterface failed: %v", err)
	}
	if commands != nil {
		t.Errorf("expected no commands for unrendered interface, got %v", commands)
	}
}

func TestRenderTemplateFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "minimal.tmpl")
	content := "# {{ .Device | upper }}\n{{- range .Interfaces }}\nset interfaces {{ .Name }} vlan {{ .UntaggedVLAN }}\n{{- end }}\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing template: %v", err)
	}

	r, err := NewRenderer(path)
	if err != nil {
		t.Fatalf("NewRenderer failed: %v", err)
	}
	out, err := r.Render(testData())
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !strings.Contains(out, "# SW-ACCESS-01") {
		t.Errorf("sprig upper not applied:\n%s", out)
	}
	if !strings.Contains(out, "set interfaces ge-0/0/5 vlan 100") {
		t.Errorf("interface loop missing:\n%s", out)
	}

	commands, err := r.RenderCommands(testData())
	if err != nil {
		t.Fatalf("RenderCommands failed: %v", err)
	}
	// The comment header is dropped
	if len(commands) != 2 {
		t.Errorf("expected 2 commands, got %v", commands)
	}
}

func TestRendererMissingFile(t *testing.T) {
	if _, err := NewRenderer(filepath.Join(t.TempDir(), "nope.tmpl")); err == nil {
		t.Error("expected error for missing template file")
	}
}
