// Package render generates intended device configuration from the source of
// truth using text templates.
package render

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"

	"github.com/portsync-network/portsync/pkg/sot"
)

// defaultTemplate renders a Junos access-interface configuration in set
// format. Used when no template file is configured.
const defaultTemplate = `{{- range .VLANs }}
set vlans {{ .Name }} vlan-id {{ .ID }}
{{- end }}
{{- range .Interfaces }}
delete interfaces {{ .Name }} unit 0 family ethernet-switching vlan
set interfaces {{ .Name }} description "{{ .Description | default .Role }}"
set interfaces {{ .Name }} unit 0 family ethernet-switching interface-mode access
set interfaces {{ .Name }} unit 0 family ethernet-switching vlan members {{ .VLANName }}
{{- end }}
`

// InterfaceData is one interface as seen by the template.
type InterfaceData struct {
	Name         string
	Role         string
	Mode         string
	UntaggedVLAN int
	VLANName     string
	Description  string
}

// VLANData is one VLAN definition as seen by the template.
type VLANData struct {
	ID   int
	Name string
}

// DeviceData is the template context for one device.
type DeviceData struct {
	Device     string
	Interfaces []InterfaceData
	VLANs      []VLANData
}

// Renderer renders intended configuration from a parsed template.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer parses the template at path. An empty path selects the
// built-in Junos template.
func NewRenderer(path string) (*Renderer, error) {
	text := defaultTemplate
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading template: %w", err)
		}
		text = string(data)
	}

	tmpl, err := template.New("intended").Funcs(sprig.TxtFuncMap()).Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parsing template: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Render produces the intended configuration text for a device.
func (r *Renderer) Render(data *DeviceData) (string, error) {
	var sb strings.Builder
	if err := r.tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("rendering %s: %w", data.Device, err)
	}
	out := strings.TrimLeft(sb.String(), "\n")
	if out != "" && !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	return out, nil
}

// RenderCommands renders and splits into individual configuration commands,
// dropping blank lines and comments. This is the form PushConfigSet takes.
func (r *Renderer) RenderCommands(data *DeviceData) ([]string, error) {
	text, err := r.Render(data)
	if err != nil {
		return nil, err
	}
	var commands []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		commands = append(commands, line)
	}
	return commands, nil
}

// RenderInterface renders the configuration commands for a single
// interface, the form the push step delivers. The delete line clearing the
// interface's previous VLAN membership always comes first, even when the
// template omits it. Returns nil when the interface is not rendered (not
// access mode, no VLAN bound).
func (r *Renderer) RenderInterface(data *DeviceData, ifname string) ([]string, error) {
	sub := &DeviceData{Device: data.Device}
	for _, intf := range data.Interfaces {
		if intf.Name != ifname {
			continue
		}
		sub.Interfaces = append(sub.Interfaces, intf)
		for _, vlan := range data.VLANs {
			if vlan.ID == intf.UntaggedVLAN {
				sub.VLANs = append(sub.VLANs, vlan)
			}
		}
	}
	if len(sub.Interfaces) == 0 {
		return nil, nil
	}

	commands, err := r.RenderCommands(sub)
	if err != nil {
		return nil, err
	}

	deleteCmd := fmt.Sprintf("delete interfaces %s unit 0 family ethernet-switching vlan", ifname)
	for _, cmd := range commands {
		if cmd == deleteCmd {
			return commands, nil
		}
	}
	return append([]string{deleteCmd}, commands...), nil
}

// BuildDeviceData assembles the template context for a device from the
// source of truth. Only access-mode interfaces with a bound untagged VLAN
// are rendered; referenced VLANs are resolved to their names.
func BuildDeviceData(ctx context.Context, store *sot.Store, deviceName string) (*DeviceData, error) {
	entries, err := store.ListInterfaces(ctx, deviceName)
	if err != nil {
		return nil, err
	}

	data := &DeviceData{Device: deviceName}
	vids := make(map[int]bool)

	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		entry := entries[name]
		if entry.Mode != "access" || entry.UntaggedVLAN == 0 {
			continue
		}
		vids[entry.UntaggedVLAN] = true
		data.Interfaces = append(data.Interfaces, InterfaceData{
			Name:         name,
			Role:         entry.Role,
			Mode:         entry.Mode,
			UntaggedVLAN: entry.UntaggedVLAN,
			Description:  entry.Description,
		})
	}

	sorted := make([]int, 0, len(vids))
	for vid := range vids {
		sorted = append(sorted, vid)
	}
	sort.Ints(sorted)

	vlanNames := make(map[int]string, len(sorted))
	for _, vid := range sorted {
		name := fmt.Sprintf("VLAN%d", vid)
		if vlan, err := store.GetVLAN(ctx, vid); err == nil && vlan.Name != "" {
			name = vlan.Name
		}
		vlanNames[vid] = name
		data.VLANs = append(data.VLANs, VLANData{ID: vid, Name: name})
	}
	for i := range data.Interfaces {
		data.Interfaces[i].VLANName = vlanNames[data.Interfaces[i].UntaggedVLAN]
	}

	return data, nil
}
