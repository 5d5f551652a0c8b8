// Package spec handles loading and validating JSON specification files.
package spec

import (
	"os"
	"sort"
)

// ============================================================================
// Inventory Specification
// ============================================================================

// InventorySpecFile represents the device inventory file (inventory.json).
type InventorySpecFile struct {
	Version string                    `json:"version"`
	Devices map[string]*DeviceProfile `json:"devices"`
}

// DeviceProfile contains per-device specification.
// SSH credentials may be omitted and supplied via environment instead.
type DeviceProfile struct {
	// REQUIRED - must be specified
	MgmtIP   string `json:"mgmt_ip"`
	Platform string `json:"platform"` // network driver, e.g. "juniper_junos"

	// OPTIONAL
	Site        string `json:"site,omitempty"`
	Description string `json:"description,omitempty"`

	// OPTIONAL - SSH access; env fallback PORTSYNC_SSH_USER / PORTSYNC_SSH_PASS
	SSHUser string `json:"ssh_user,omitempty"`
	SSHPass string `json:"ssh_pass,omitempty"`
	SSHPort int    `json:"ssh_port,omitempty"` // 0 means default (22)
}

// ResolvedProfile contains fully resolved device values after applying
// environment fallbacks and defaults.
type ResolvedProfile struct {
	DeviceName string
	MgmtIP     string
	Platform   string
	Site       string

	SSHUser string
	SSHPass string
	SSHPort int
}

// Environment variables consulted when a profile omits SSH credentials.
const (
	EnvSSHUser = "PORTSYNC_SSH_USER"
	EnvSSHPass = "PORTSYNC_SSH_PASS"
)

// DefaultSSHPort is used when neither profile nor environment specifies one.
const DefaultSSHPort = 22

// Platform driver identifiers.
const (
	PlatformJuniperJunos = "juniper_junos"
)

// resolveCredentials fills SSH fields from the environment when the profile
// leaves them empty.
func (p *DeviceProfile) resolveCredentials(r *ResolvedProfile) {
	r.SSHUser = p.SSHUser
	if r.SSHUser == "" {
		r.SSHUser = os.Getenv(EnvSSHUser)
	}
	r.SSHPass = p.SSHPass
	if r.SSHPass == "" {
		r.SSHPass = os.Getenv(EnvSSHPass)
	}
	r.SSHPort = p.SSHPort
	if r.SSHPort == 0 {
		r.SSHPort = DefaultSSHPort
	}
}

// ============================================================================
// Topology Specification
// ============================================================================

// TopologySpecFile represents the cabling specification file (topology.json).
// Defines devices, their interfaces, and the physical links between them.
type TopologySpecFile struct {
	Version     string                     `json:"version"`
	Description string                     `json:"description,omitempty"`
	Devices     map[string]*TopologyDevice `json:"devices"`
	Links       []*TopologyLink            `json:"links,omitempty"`
}

// TopologyDevice defines a device's interfaces within the topology.
type TopologyDevice struct {
	Interfaces map[string]*TopologyInterface `json:"interfaces"`
}

// TopologyInterface defines an interface's role and initial VLAN binding.
type TopologyInterface struct {
	Role         string `json:"role"`                    // socket, uplink, passthrough
	UntaggedVLAN int    `json:"untagged_vlan,omitempty"` // 0 means none
	Description  string `json:"description,omitempty"`
}

// TopologyLink defines a point-to-point cable between two interfaces.
// Passthrough interfaces (patch panels) chain links together.
type TopologyLink struct {
	A string `json:"a"` // "device:interface"
	Z string `json:"z"` // "device:interface"
}

// Interface role constants
const (
	RoleSocket      = "socket"      // customer-facing port
	RoleUplink      = "uplink"      // switch port cabled toward a socket
	RolePassthrough = "passthrough" // patch-panel port, forwards to the next hop
)

// KnownRoles lists every valid interface role.
var KnownRoles = []string{RoleSocket, RoleUplink, RolePassthrough}

// HasDevice returns true if the topology contains a device with the given name.
func (t *TopologySpecFile) HasDevice(name string) bool {
	_, ok := t.Devices[name]
	return ok
}

// DeviceNames returns a sorted list of device names in the topology.
func (t *TopologySpecFile) DeviceNames() []string {
	names := make([]string, 0, len(t.Devices))
	for name := range t.Devices {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ============================================================================
// Pipeline Specification
// ============================================================================

// PipelineSpecFile represents the config-pipeline settings file (pipeline.json).
// Path patterns may reference ${device}; see Resolver.
type PipelineSpecFile struct {
	Version string `json:"version"`

	// Audit-trail repository
	RepoRoot       string `json:"repo_root"`                  // working tree holding backups/ and intended/
	GitAuthorName  string `json:"git_author_name,omitempty"`  // default "portsync"
	GitAuthorEmail string `json:"git_author_email,omitempty"` // default "portsync@localhost"
	GitPush        bool   `json:"git_push,omitempty"`         // push after each commit

	// Rendering
	Template string `json:"template,omitempty"` // default "templates/junos_interfaces.tmpl"

	// Output path patterns, relative to repo_root
	BackupPath   string `json:"backup_path,omitempty"`   // default "backups/${device}.set"
	IntendedPath string `json:"intended_path,omitempty"` // default "intended/${device}.conf"
}

// Pipeline spec defaults.
const (
	DefaultGitAuthorName  = "portsync"
	DefaultGitAuthorEmail = "portsync@localhost"
	DefaultTemplate       = "templates/junos_interfaces.tmpl"
	DefaultBackupPath     = "backups/${device}.set"
	DefaultIntendedPath   = "intended/${device}.conf"
)

// applyDefaults fills zero-valued pipeline fields.
func (p *PipelineSpecFile) applyDefaults() {
	if p.GitAuthorName == "" {
		p.GitAuthorName = DefaultGitAuthorName
	}
	if p.GitAuthorEmail == "" {
		p.GitAuthorEmail = DefaultGitAuthorEmail
	}
	if p.Template == "" {
		p.Template = DefaultTemplate
	}
	if p.BackupPath == "" {
		p.BackupPath = DefaultBackupPath
	}
	if p.IntendedPath == "" {
		p.IntendedPath = DefaultIntendedPath
	}
}
