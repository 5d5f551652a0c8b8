package sot

import (
	"context"
	"encoding/json"
	"time"

	"github.com/portsync-network/portsync/pkg/util"
)

// EventChannel is the Redis pub/sub channel carrying change events.
const EventChannel = "portsync:events"

// Event actions
const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// Event object kinds
const (
	ObjectDevice    = "device"
	ObjectInterface = "interface"
	ObjectVLAN      = "vlan"
)

// ChangeEvent describes a single SoT field mutation. Actor identifies the
// writer so consumers can ignore their own writes.
type ChangeEvent struct {
	Action    string    `json:"action"`
	Object    string    `json:"object"`
	Device    string    `json:"device,omitempty"`
	Interface string    `json:"interface,omitempty"`
	Field     string    `json:"field,omitempty"`
	Old       string    `json:"old,omitempty"`
	New       string    `json:"new,omitempty"`
	Actor     string    `json:"actor,omitempty"`
	Revision  int64     `json:"revision"`
	Timestamp time.Time `json:"timestamp"`
}

// publish sends a change event on the event channel.
func (s *Store) publish(ctx context.Context, ev *ChangeEvent) error {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return s.client.Publish(ctx, EventChannel, data).Err()
}

// PublishChange sends an externally constructed change event. Used by the
// webhook receiver to feed foreign SoT notifications into the same stream.
func (s *Store) PublishChange(ctx context.Context, ev *ChangeEvent) error {
	return s.publish(ctx, ev)
}

// Watch subscribes to the event channel and delivers decoded events until
// ctx is cancelled. Undecodable payloads are logged and skipped.
func (s *Store) Watch(ctx context.Context) (<-chan *ChangeEvent, error) {
	sub := s.client.Subscribe(ctx, EventChannel)

	// Confirm the subscription before handing back the channel
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, err
	}

	events := make(chan *ChangeEvent)
	go func() {
		defer close(events)
		defer sub.Close()

		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var ev ChangeEvent
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					util.Warnf("discarding undecodable change event: %v", err)
					continue
				}
				select {
				case events <- &ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return events, nil
}
