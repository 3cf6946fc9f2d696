// Package audit records who changed which pricing rule and how.
package audit

import (
	"encoding/json"
	"time"

	"github.com/TimurManjosov/gopricer/internal/rules"
)

// Action constants for audit events
const (
	ActionCreated = "created"
	ActionDeleted = "deleted"
	ActionMoved   = "moved"
	ActionToggled = "toggled"
	ActionPriced  = "priced"
	ActionUpdated = "updated"
)

// Event is one change to the rule collection.
type Event struct {
	ID         string         `json:"id"`
	OccurredAt time.Time      `json:"occurred_at"`
	Actor      string         `json:"actor"`
	Action     string         `json:"action"`
	RuleID     string         `json:"rule_id"`
	Changes    map[string]any `json:"changes,omitempty"`
}

// EventBuilder provides a fluent API for constructing audit events.
//
//	event := audit.NewEventBuilder(actor).
//		ForRule(id).
//		WithAction(audit.ActionMoved).
//		WithChanges(audit.ComputeChanges(&before, &after)).
//		Build()
type EventBuilder struct {
	event Event
}

func NewEventBuilder(actor string) *EventBuilder {
	return &EventBuilder{event: Event{Actor: actor}}
}

func (b *EventBuilder) ForRule(id string) *EventBuilder {
	b.event.RuleID = id
	return b
}

func (b *EventBuilder) WithAction(action string) *EventBuilder {
	b.event.Action = action
	return b
}

func (b *EventBuilder) WithChanges(changes map[string]any) *EventBuilder {
	if changes != nil {
		b.event.Changes = changes
	}
	return b
}

func (b *EventBuilder) Build() Event {
	return b.event
}

// ComputeChanges lists the top-level rule fields that differ between before
// and after as {"field": {"before": x, "after": y}}. A nil side stands for a
// rule that did not exist. Returns nil when nothing changed.
func ComputeChanges(before, after *rules.PricingRule) map[string]any {
	b, a := fields(before), fields(after)
	if b == nil && a == nil {
		return nil
	}

	changes := make(map[string]any)
	for key, afterVal := range a {
		beforeVal, existed := b[key]
		if !existed || string(beforeVal) != string(afterVal) {
			changes[key] = map[string]any{"before": rawOrNil(beforeVal, existed), "after": afterVal}
		}
	}
	for key, beforeVal := range b {
		if _, exists := a[key]; !exists {
			changes[key] = map[string]any{"before": beforeVal, "after": nil}
		}
	}

	if len(changes) == 0 {
		return nil
	}
	return changes
}

func fields(r *rules.PricingRule) map[string]json.RawMessage {
	if r == nil {
		return nil
	}
	blob, err := json.Marshal(r)
	if err != nil {
		return nil
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(blob, &m); err != nil {
		return nil
	}
	return m
}

func rawOrNil(v json.RawMessage, ok bool) any {
	if !ok {
		return nil
	}
	return v
}
