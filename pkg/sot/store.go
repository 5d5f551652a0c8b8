// Package sot implements the network source-of-truth: device, interface,
// and VLAN records held as Redis hashes, with change events published on
// every mutation.
//
// Keys follow the "TABLE|key" convention: DEVICE|<name>,
// INTERFACE|<device>|<ifname>, VLAN|<vid>.
package sot

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/go-redis/redis/v8"

	"github.com/portsync-network/portsync/pkg/util"
)

// Table names
const (
	TableDevice    = "DEVICE"
	TableInterface = "INTERFACE"
	TableVLAN      = "VLAN"
)

// revisionKey holds the monotonically increasing write counter.
const revisionKey = "SOT_META|revision"

// DeviceEntry is a device record.
type DeviceEntry struct {
	MgmtIP      string
	Platform    string
	Site        string
	Description string
}

// InterfaceEntry is an interface record. UntaggedVLAN of 0 means no
// untagged VLAN is bound.
type InterfaceEntry struct {
	Role         string
	UntaggedVLAN int
	Mode         string
	Enabled      bool
	Description  string
}

// VLANEntry is a VLAN record keyed by numeric VLAN ID.
type VLANEntry struct {
	Name   string
	Status string
}

// VLANStatusActive is the status assigned to VLANs created by portsync.
const VLANStatusActive = "active"

// Store provides access to the SoT database.
type Store struct {
	client *redis.Client
}

// NewStore creates a store for the given Redis address and logical DB.
func NewStore(addr string, db int) *Store {
	return &Store{
		client: redis.NewClient(&redis.Options{
			Addr: addr,
			DB:   db,
		}),
	}
}

// NewStoreFromClient wraps an existing Redis client. Used by tests.
func NewStoreFromClient(client *redis.Client) *Store {
	return &Store{client: client}
}

// Connect tests the connection
func (s *Store) Connect(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the connection
func (s *Store) Close() error {
	return s.client.Close()
}

// Revision returns the current write revision. A store that has never been
// written to reports 0.
func (s *Store) Revision(ctx context.Context) (int64, error) {
	val, err := s.client.Get(ctx, revisionKey).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(val, 10, 64)
}

func (s *Store) bumpRevision(ctx context.Context) (int64, error) {
	return s.client.Incr(ctx, revisionKey).Result()
}

// ============================================================================
// Devices
// ============================================================================

func deviceKey(name string) string {
	return TableDevice + "|" + name
}

// PutDevice writes a device record.
func (s *Store) PutDevice(ctx context.Context, name string, entry *DeviceEntry) error {
	fields := map[string]interface{}{
		"mgmt_ip":  entry.MgmtIP,
		"platform": entry.Platform,
	}
	if entry.Site != "" {
		fields["site"] = entry.Site
	}
	if entry.Description != "" {
		fields["description"] = entry.Description
	}
	if err := s.client.HSet(ctx, deviceKey(name), fields).Err(); err != nil {
		return err
	}
	_, err := s.bumpRevision(ctx)
	return err
}

// GetDevice reads a device record.
func (s *Store) GetDevice(ctx context.Context, name string) (*DeviceEntry, error) {
	vals, err := s.client.HGetAll(ctx, deviceKey(name)).Result()
	if err != nil {
		return nil, err
	}
	if len(vals) == 0 {
		return nil, fmt.Errorf("device '%s': %w", name, util.ErrNotFound)
	}
	return &DeviceEntry{
		MgmtIP:      vals["mgmt_ip"],
		Platform:    vals["platform"],
		Site:        vals["site"],
		Description: vals["description"],
	}, nil
}

// ListDevices returns sorted device names.
func (s *Store) ListDevices(ctx context.Context) ([]string, error) {
	keys, err := s.client.Keys(ctx, TableDevice+"|*").Result()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(keys))
	for _, key := range keys {
		names = append(names, strings.TrimPrefix(key, TableDevice+"|"))
	}
	sort.Strings(names)
	return names, nil
}

// ============================================================================
// Interfaces
// ============================================================================

func interfaceKey(device, ifname string) string {
	return TableInterface + "|" + device + "|" + ifname
}

func encodeInterface(entry *InterfaceEntry) map[string]interface{} {
	fields := map[string]interface{}{
		"role":    entry.Role,
		"enabled": strconv.FormatBool(entry.Enabled),
	}
	if entry.UntaggedVLAN != 0 {
		fields["untagged_vlan"] = strconv.Itoa(entry.UntaggedVLAN)
	}
	if entry.Mode != "" {
		fields["mode"] = entry.Mode
	}
	if entry.Description != "" {
		fields["description"] = entry.Description
	}
	return fields
}

func decodeInterface(vals map[string]string) *InterfaceEntry {
	entry := &InterfaceEntry{
		Role:        vals["role"],
		Mode:        vals["mode"],
		Description: vals["description"],
	}
	entry.Enabled, _ = strconv.ParseBool(vals["enabled"])
	if v := vals["untagged_vlan"]; v != "" {
		entry.UntaggedVLAN, _ = strconv.Atoi(v)
	}
	return entry
}

// PutInterface writes an interface record.
func (s *Store) PutInterface(ctx context.Context, device, ifname string, entry *InterfaceEntry) error {
	key := interfaceKey(device, ifname)
	// Drop a stale untagged_vlan field when the entry clears it
	if entry.UntaggedVLAN == 0 {
		if err := s.client.HDel(ctx, key, "untagged_vlan").Err(); err != nil {
			return err
		}
	}
	if err := s.client.HSet(ctx, key, encodeInterface(entry)).Err(); err != nil {
		return err
	}
	_, err := s.bumpRevision(ctx)
	return err
}

// GetInterface reads an interface record.
func (s *Store) GetInterface(ctx context.Context, device, ifname string) (*InterfaceEntry, error) {
	vals, err := s.client.HGetAll(ctx, interfaceKey(device, ifname)).Result()
	if err != nil {
		return nil, err
	}
	if len(vals) == 0 {
		return nil, fmt.Errorf("interface '%s' on '%s': %w", ifname, device, util.ErrNotFound)
	}
	return decodeInterface(vals), nil
}

// ListInterfaces returns the interface records of a device, keyed by name.
func (s *Store) ListInterfaces(ctx context.Context, device string) (map[string]*InterfaceEntry, error) {
	keys, err := s.client.Keys(ctx, TableInterface+"|"+device+"|*").Result()
	if err != nil {
		return nil, err
	}
	result := make(map[string]*InterfaceEntry, len(keys))
	for _, key := range keys {
		parts := strings.SplitN(key, "|", 3)
		if len(parts) != 3 {
			continue
		}
		vals, err := s.client.HGetAll(ctx, key).Result()
		if err != nil {
			return nil, err
		}
		result[parts[2]] = decodeInterface(vals)
	}
	return result, nil
}

// SetUntaggedVLAN writes an interface's untagged VLAN field and publishes a
// change event attributed to actor. vid 0 clears the binding.
func (s *Store) SetUntaggedVLAN(ctx context.Context, device, ifname string, vid int, actor string) error {
	if vid != 0 {
		if err := util.ValidateVLANID(vid); err != nil {
			return err
		}
	}

	entry, err := s.GetInterface(ctx, device, ifname)
	if err != nil {
		return err
	}
	old := entry.UntaggedVLAN
	if old == vid {
		return nil
	}

	key := interfaceKey(device, ifname)
	if vid == 0 {
		if err := s.client.HDel(ctx, key, "untagged_vlan").Err(); err != nil {
			return err
		}
	} else {
		if err := s.client.HSet(ctx, key, "untagged_vlan", strconv.Itoa(vid)).Err(); err != nil {
			return err
		}
	}

	rev, err := s.bumpRevision(ctx)
	if err != nil {
		return err
	}

	return s.publish(ctx, &ChangeEvent{
		Action:    ActionUpdate,
		Object:    ObjectInterface,
		Device:    device,
		Interface: ifname,
		Field:     "untagged_vlan",
		Old:       strconv.Itoa(old),
		New:       strconv.Itoa(vid),
		Actor:     actor,
		Revision:  rev,
	})
}

// ============================================================================
// VLANs
// ============================================================================

func vlanKey(vid int) string {
	return TableVLAN + "|" + strconv.Itoa(vid)
}

// PutVLAN writes a VLAN record.
func (s *Store) PutVLAN(ctx context.Context, vid int, entry *VLANEntry) error {
	if err := util.ValidateVLANID(vid); err != nil {
		return err
	}
	fields := map[string]interface{}{
		"name":   entry.Name,
		"status": entry.Status,
	}
	if err := s.client.HSet(ctx, vlanKey(vid), fields).Err(); err != nil {
		return err
	}
	_, err := s.bumpRevision(ctx)
	return err
}

// GetVLAN reads a VLAN record.
func (s *Store) GetVLAN(ctx context.Context, vid int) (*VLANEntry, error) {
	vals, err := s.client.HGetAll(ctx, vlanKey(vid)).Result()
	if err != nil {
		return nil, err
	}
	if len(vals) == 0 {
		return nil, fmt.Errorf("VLAN %d: %w", vid, util.ErrNotFound)
	}
	return &VLANEntry{Name: vals["name"], Status: vals["status"]}, nil
}

// EnsureVLAN creates a VLAN record if it does not exist yet. Returns true
// when a record was created.
func (s *Store) EnsureVLAN(ctx context.Context, vid int, name string) (bool, error) {
	if err := util.ValidateVLANID(vid); err != nil {
		return false, err
	}
	n, err := s.client.Exists(ctx, vlanKey(vid)).Result()
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}
	if name == "" {
		name = "VLAN" + strconv.Itoa(vid)
	}
	return true, s.PutVLAN(ctx, vid, &VLANEntry{Name: name, Status: VLANStatusActive})
}

// ListVLANs returns sorted VLAN IDs present in the store.
func (s *Store) ListVLANs(ctx context.Context) ([]int, error) {
	keys, err := s.client.Keys(ctx, TableVLAN+"|*").Result()
	if err != nil {
		return nil, err
	}
	vids := make([]int, 0, len(keys))
	for _, key := range keys {
		vid, err := strconv.Atoi(strings.TrimPrefix(key, TableVLAN+"|"))
		if err != nil {
			continue
		}
		vids = append(vids, vid)
	}
	sort.Ints(vids)
	return vids, nil
}
