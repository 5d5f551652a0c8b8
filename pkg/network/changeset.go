package network

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/portsync-network/portsync/pkg/sot"
)

// ChangeType represents the type of source-of-truth change.
type ChangeType string

const (
	ChangeAdd    ChangeType = "add"
	ChangeModify ChangeType = "modify"
	ChangeDelete ChangeType = "delete"
)

// Change represents a single source-of-truth change.
type Change struct {
	Table    string            `json:"table"`
	Key      string            `json:"key"`
	Type     ChangeType        `json:"type"`
	OldValue map[string]string `json:"old_value,omitempty"`
	NewValue map[string]string `json:"new_value,omitempty"`
}

// ChangeSet represents a collection of source-of-truth changes produced by
// one operation.
type ChangeSet struct {
	Device    string    `json:"device"`
	Operation string    `json:"operation"`
	Timestamp time.Time `json:"timestamp"`
	Changes   []Change  `json:"changes"`
}

// NewChangeSet creates a new ChangeSet.
func NewChangeSet(device, operation string) *ChangeSet {
	return &ChangeSet{
		Device:    device,
		Operation: operation,
		Timestamp: time.Now(),
		Changes:   make([]Change, 0),
	}
}

// Add adds a change to the set.
func (cs *ChangeSet) Add(table, key string, changeType ChangeType, oldValue, newValue map[string]string) {
	cs.Changes = append(cs.Changes, Change{
		Table:    table,
		Key:      key,
		Type:     changeType,
		OldValue: oldValue,
		NewValue: newValue,
	})
}

// AddVLANBinding records an untagged-VLAN change for an interface.
func (cs *ChangeSet) AddVLANBinding(device, ifname string, oldVID, newVID int) {
	var oldValue map[string]string
	if oldVID != 0 {
		oldValue = map[string]string{"untagged_vlan": strconv.Itoa(oldVID)}
	}
	cs.Add(sot.TableInterface, device+"|"+ifname, ChangeModify,
		oldValue,
		map[string]string{"untagged_vlan": strconv.Itoa(newVID)})
}

// AddVLAN records creation of a VLAN definition. An empty name gets the
// conventional VLAN<vid> default.
func (cs *ChangeSet) AddVLAN(vid int, name string) {
	if name == "" {
		name = "VLAN" + strconv.Itoa(vid)
	}
	cs.Add(sot.TableVLAN, strconv.Itoa(vid), ChangeAdd,
		nil,
		map[string]string{"name": name, "status": sot.VLANStatusActive})
}

// IsEmpty returns true if there are no changes.
func (cs *ChangeSet) IsEmpty() bool {
	return len(cs.Changes) == 0
}

// String returns a human-readable representation of the changes.
func (cs *ChangeSet) String() string {
	if cs.IsEmpty() {
		return "No changes"
	}

	var sb strings.Builder
	for _, c := range cs.Changes {
		typeStr := ""
		switch c.Type {
		case ChangeAdd:
			typeStr = "[ADD]"
		case ChangeModify:
			typeStr = "[MOD]"
		case ChangeDelete:
			typeStr = "[DEL]"
		}

		sb.WriteString(fmt.Sprintf("  %s %s|%s", typeStr, c.Table, c.Key))
		if len(c.NewValue) > 0 {
			sb.WriteString(fmt.Sprintf(" -> %v", c.NewValue))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// Preview returns a formatted preview of the changes.
func (cs *ChangeSet) Preview() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Operation: %s\n", cs.Operation))
	sb.WriteString(fmt.Sprintf("Device: %s\n", cs.Device))
	sb.WriteString(fmt.Sprintf("Changes:\n%s", cs.String()))
	return sb.String()
}

// Apply writes the changes to the source of truth, attributed to actor.
// VLAN additions go first so interface bindings never reference a VLAN the
// store does not know.
func (cs *ChangeSet) Apply(ctx context.Context, store *sot.Store, actor string) error {
	for _, c := range cs.Changes {
		if c.Table != sot.TableVLAN {
			continue
		}
		vid, err := strconv.Atoi(c.Key)
		if err != nil {
			return fmt.Errorf("change %s|%s: %w", c.Table, c.Key, err)
		}
		if _, err := store.EnsureVLAN(ctx, vid, c.NewValue["name"]); err != nil {
			return err
		}
	}

	for _, c := range cs.Changes {
		if c.Table != sot.TableInterface {
			continue
		}
		device, ifname, ok := strings.Cut(c.Key, "|")
		if !ok {
			return fmt.Errorf("change %s|%s: malformed interface key", c.Table, c.Key)
		}
		vid, err := strconv.Atoi(c.NewValue["untagged_vlan"])
		if err != nil {
			return fmt.Errorf("change %s|%s: %w", c.Table, c.Key, err)
		}
		if err := store.SetUntaggedVLAN(ctx, device, ifname, vid, actor); err != nil {
			return err
		}
	}

	return nil
}
