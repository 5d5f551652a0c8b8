package spec

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/portsync-network/portsync/pkg/util"
)

// SpecDir is the default specification directory
var SpecDir = "/etc/portsync"

// Loader handles loading and validating specification files
type Loader struct {
	specDir   string
	inventory *InventorySpecFile
	topology  *TopologySpecFile
	pipeline  *PipelineSpecFile // nil if pipeline.json doesn't exist
}

// NewLoader creates a new specification loader
func NewLoader(specDir string) *Loader {
	if specDir == "" {
		specDir = SpecDir
	}
	return &Loader{specDir: specDir}
}

// Load loads all specification files
func (l *Loader) Load() error {
	var err error

	l.inventory, err = l.loadInventorySpec()
	if err != nil {
		return fmt.Errorf("loading inventory spec: %w", err)
	}

	l.topology, err = l.loadTopologySpec()
	if err != nil {
		return fmt.Errorf("loading topology spec: %w", err)
	}

	// Pipeline spec is optional; sync-only deployments do not need it
	l.pipeline, err = l.loadPipelineSpec()
	if err != nil {
		return fmt.Errorf("loading pipeline spec: %w", err)
	}

	if err := l.validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	return nil
}

// SpecDir returns the directory the loader reads from.
func (l *Loader) SpecDir() string {
	return l.specDir
}

// ResolveProfile resolves a device profile with environment fallbacks.
func (l *Loader) ResolveProfile(deviceName string) (*ResolvedProfile, error) {
	profile, ok := l.inventory.Devices[deviceName]
	if !ok {
		return nil, fmt.Errorf("device '%s': %w", deviceName, util.ErrNotFound)
	}

	resolved := &ResolvedProfile{
		DeviceName: deviceName,
		MgmtIP:     profile.MgmtIP,
		Platform:   profile.Platform,
		Site:       profile.Site,
	}
	profile.resolveCredentials(resolved)

	return resolved, nil
}

func (l *Loader) loadInventorySpec() (*InventorySpecFile, error) {
	data, err := os.ReadFile(filepath.Join(l.specDir, "inventory.json"))
	if err != nil {
		return nil, err
	}
	if err := validateSchema(inventorySchema, data); err != nil {
		return nil, fmt.Errorf("inventory.json: %w", err)
	}

	var spec InventorySpecFile
	if err := json.Unmarshal(data, &spec); err != nil {
		return nil, err
	}
	return &spec, nil
}

func (l *Loader) loadTopologySpec() (*TopologySpecFile, error) {
	data, err := os.ReadFile(filepath.Join(l.specDir, "topology.json"))
	if err != nil {
		return nil, err
	}
	if err := validateSchema(topologySchema, data); err != nil {
		return nil, fmt.Errorf("topology.json: %w", err)
	}

	var spec TopologySpecFile
	if err := json.Unmarshal(data, &spec); err != nil {
		return nil, err
	}
	return &spec, nil
}

func (l *Loader) loadPipelineSpec() (*PipelineSpecFile, error) {
	data, err := os.ReadFile(filepath.Join(l.specDir, "pipeline.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil // pipeline.json is optional
		}
		return nil, err
	}

	var spec PipelineSpecFile
	if err := json.Unmarshal(data, &spec); err != nil {
		return nil, err
	}
	spec.applyDefaults()
	return &spec, nil
}

func (l *Loader) validate() error {
	v := &util.ValidationBuilder{}

	// Validate device profiles
	for name, profile := range l.inventory.Devices {
		if profile.MgmtIP == "" {
			v.AddErrorf("device '%s': mgmt_ip is required", name)
		} else if !util.IsValidIPv4(profile.MgmtIP) {
			v.AddErrorf("device '%s': invalid management IP '%s'", name, profile.MgmtIP)
		}
		if profile.Platform == "" {
			v.AddErrorf("device '%s': platform is required", name)
		}
	}

	// Topology devices must exist in the inventory
	for deviceName, device := range l.topology.Devices {
		if _, ok := l.inventory.Devices[deviceName]; !ok {
			v.AddErrorf("topology device '%s' not found in inventory", deviceName)
		}
		for intfName, intf := range device.Interfaces {
			if !isKnownRole(intf.Role) {
				v.AddErrorf("device '%s' interface '%s': unknown role '%s'",
					deviceName, intfName, intf.Role)
			}
			if intf.UntaggedVLAN != 0 {
				if err := util.ValidateVLANID(intf.UntaggedVLAN); err != nil {
					v.AddErrorf("device '%s' interface '%s': %v", deviceName, intfName, err)
				}
			}
		}
	}

	// Validate links: both endpoints must be defined interfaces
	for i, link := range l.topology.Links {
		l.validateLinkEndpoint(v, i, "a", link.A)
		l.validateLinkEndpoint(v, i, "z", link.Z)
	}

	// Pipeline repo root is required when the pipeline spec is present
	if l.pipeline != nil && l.pipeline.RepoRoot == "" {
		v.AddError("pipeline.json: repo_root is required")
	}

	return v.Build()
}

func (l *Loader) validateLinkEndpoint(v *util.ValidationBuilder, linkIdx int, side, endpoint string) {
	deviceName, intfName, ok := SplitEndpoint(endpoint)
	if !ok {
		v.AddErrorf("link[%d].%s: invalid endpoint format '%s' (expected 'device:interface')",
			linkIdx, side, endpoint)
		return
	}
	device, found := l.topology.Devices[deviceName]
	if !found {
		v.AddErrorf("link[%d].%s: device '%s' not found in topology", linkIdx, side, deviceName)
		return
	}
	if _, found := device.Interfaces[intfName]; !found {
		v.AddErrorf("link[%d].%s: interface '%s' not found on device '%s'",
			linkIdx, side, intfName, deviceName)
	}
}

func isKnownRole(role string) bool {
	for _, r := range KnownRoles {
		if r == role {
			return true
		}
	}
	return false
}

// SaveInventory writes the inventory spec to disk atomically (temp + rename)
// and updates the in-memory copy.
func (l *Loader) SaveInventory(spec *InventorySpecFile) error {
	path := filepath.Join(l.specDir, "inventory.json")

	data, err := json.MarshalIndent(spec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling inventory spec: %w", err)
	}
	data = append(data, '\n')

	// Write to temp file in the same directory (ensures same filesystem for atomic rename)
	tmp, err := os.CreateTemp(l.specDir, "inventory-*.json.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", err)
	}

	// Atomic rename
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}

	l.inventory = spec
	return nil
}

// GetInventory returns the inventory spec
func (l *Loader) GetInventory() *InventorySpecFile {
	return l.inventory
}

// GetTopology returns the topology spec
func (l *Loader) GetTopology() *TopologySpecFile {
	return l.topology
}

// GetPipeline returns the pipeline spec, or nil if no pipeline.json was found.
func (l *Loader) GetPipeline() *PipelineSpecFile {
	return l.pipeline
}

// ListDevices returns sorted inventory device names
func (l *Loader) ListDevices() []string {
	names := make([]string, 0, len(l.inventory.Devices))
	for name := range l.inventory.Devices {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SplitEndpoint splits a "device:interface" string into its components.
// Interface names may themselves contain colons on some platforms, so only
// the first colon separates the device.
func SplitEndpoint(endpoint string) (device, intf string, ok bool) {
	idx := strings.Index(endpoint, ":")
	if idx <= 0 || idx == len(endpoint)-1 {
		return "", "", false
	}
	return endpoint[:idx], endpoint[idx+1:], true
}

// JoinEndpoint formats a device and interface as a link endpoint.
func JoinEndpoint(device, intf string) string {
	return device + ":" + intf
}
