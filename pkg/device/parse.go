package device

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
)

// BackupConfig is the subset of a set-format configuration that maps back
// into the source of truth: VLAN definitions and access-port bindings.
type BackupConfig struct {
	// VLANs maps VLAN name to VLAN ID.
	VLANs map[string]int
	// AccessPorts maps interface name to the VLAN name bound as the
	// untagged member. Only interfaces with interface-mode access and a
	// single member are included.
	AccessPorts map[string]string
}

var (
	vlanIDRe     = regexp.MustCompile(`^set vlans (\S+) vlan-id (\d+)$`)
	accessModeRe = regexp.MustCompile(`^set interfaces (\S+) unit 0 family ethernet-switching interface-mode access$`)
	vlanMemberRe = regexp.MustCompile(`^set interfaces (\S+) unit 0 family ethernet-switching vlan members (\S+)$`)
)

// ParseSetConfig parses a set-format Junos configuration, as produced by
// FetchConfig, extracting VLANs and access-port membership.
func ParseSetConfig(r io.Reader) (*BackupConfig, error) {
	cfg := &BackupConfig{
		VLANs:       make(map[string]int),
		AccessPorts: make(map[string]string),
	}
	accessMode := make(map[string]bool)
	members := make(map[string][]string)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()

		if m := vlanIDRe.FindStringSubmatch(line); m != nil {
			vid, err := strconv.Atoi(m[2])
			if err != nil {
				return nil, fmt.Errorf("vlan-id for %s: %w", m[1], err)
			}
			cfg.VLANs[m[1]] = vid
			continue
		}
		if m := accessModeRe.FindStringSubmatch(line); m != nil {
			accessMode[m[1]] = true
			continue
		}
		if m := vlanMemberRe.FindStringSubmatch(line); m != nil {
			members[m[1]] = append(members[m[1]], m[2])
			continue
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read configuration: %w", err)
	}

	for ifname, vlans := range members {
		if !accessMode[ifname] {
			continue
		}
		if len(vlans) != 1 {
			// Trunk-like membership on an access port; skip rather
			// than guess which VLAN is untagged.
			continue
		}
		cfg.AccessPorts[ifname] = vlans[0]
	}

	return cfg, nil
}

// VLANID resolves a member name to its VLAN ID. Junos also accepts a bare
// numeric VLAN ID as a member.
func (c *BackupConfig) VLANID(member string) (int, bool) {
	if vid, ok := c.VLANs[member]; ok {
		return vid, true
	}
	if vid, err := strconv.Atoi(member); err == nil {
		return vid, true
	}
	return 0, false
}

// VLANNames returns the defined VLAN names in sorted order.
func (c *BackupConfig) VLANNames() []string {
	names := make([]string, 0, len(c.VLANs))
	for name := range c.VLANs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// InterfaceNames returns the access-port interface names in sorted order.
func (c *BackupConfig) InterfaceNames() []string {
	names := make([]string, 0, len(c.AccessPorts))
	for name := range c.AccessPorts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
