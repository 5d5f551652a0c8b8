// Package audit provides audit logging for source-of-truth changes and
// pipeline runs.
package audit

import (
	"fmt"
	"time"

	"github.com/portsync-network/portsync/pkg/network"
)

// Event represents an auditable change event
type Event struct {
	ID          string           `json:"id"`
	Timestamp   time.Time        `json:"timestamp"`
	User        string           `json:"user"`
	Device      string           `json:"device"`
	Operation   string           `json:"operation"`
	Interface   string           `json:"interface,omitempty"`
	Step        string           `json:"step,omitempty"`
	Changes     []network.Change `json:"changes,omitempty"`
	Success     bool             `json:"success"`
	Error       string           `json:"error,omitempty"`
	ExecuteMode bool             `json:"execute_mode"` // true if -x was used
	DryRun      bool             `json:"dry_run"`
	Duration    time.Duration    `json:"duration"`
}

// Well-known operation names
const (
	OpSetVLAN  = "set-vlan"
	OpSync     = "vlan.sync"
	OpPipeline = "pipeline"
	OpImport   = "import-backup"
	OpSoTLoad  = "sot.load"
)

// Filter defines criteria for querying audit events
type Filter struct {
	Device      string
	User        string
	Operation   string
	Interface   string
	StartTime   time.Time
	EndTime     time.Time
	SuccessOnly bool
	FailureOnly bool
	Limit       int
	Offset      int
}

// NewEvent creates a new audit event
func NewEvent(user, device, operation string) *Event {
	return &Event{
		ID:        generateID(),
		Timestamp: time.Now(),
		User:      user,
		Device:    device,
		Operation: operation,
	}
}

// WithInterface sets the interface name
func (e *Event) WithInterface(iface string) *Event {
	e.Interface = iface
	return e
}

// WithStep records the pipeline step the event belongs to
func (e *Event) WithStep(step string) *Event {
	e.Step = step
	return e
}

// WithChanges sets the changes
func (e *Event) WithChanges(changes []network.Change) *Event {
	e.Changes = changes
	return e
}

// WithSuccess marks the event as successful
func (e *Event) WithSuccess() *Event {
	e.Success = true
	return e
}

// WithError marks the event as failed
func (e *Event) WithError(err error) *Event {
	e.Success = false
	if err != nil {
		e.Error = err.Error()
	}
	return e
}

// WithDuration sets the operation duration
func (e *Event) WithDuration(d time.Duration) *Event {
	e.Duration = d
	return e
}

// WithExecuteMode marks if execute mode was used
func (e *Event) WithExecuteMode(execute bool) *Event {
	e.ExecuteMode = execute
	e.DryRun = !execute
	return e
}

func generateID() string {
	return fmt.Sprintf("%d", time.Now().UnixNano())
}
