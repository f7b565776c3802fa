package automation

import (
	"context"
	"fmt"
	"time"

	"github.com/robohome/robohome-core/internal/device"
)

// Reaction reports what one trigger did. Event IDs appear in priority
// order within each list.
type Reaction struct {
	Address string
	Trigger string
	ItemID  int64

	// Matched holds every enabled event that responds to the trigger.
	Matched []int64

	// Rejected holds matched events dropped because an earlier event
	// already claimed one of their items. Rejection is not an error.
	Rejected []int64

	// Skipped holds accepted events whose conditions did not all pass.
	Skipped []int64

	// Executed holds events whose actions ran.
	Executed []int64

	// Failures records condition and action errors, isolated per event.
	Failures []EventFailure

	Duration time.Duration
}

// EventFailure is an error raised while processing one event. Exactly one
// of ConditionID and ActionID is set.
type EventFailure struct {
	EventID     int64
	ConditionID int64
	ActionID    int64
	Err         error
}

// EventsForTrigger returns the enabled events that respond to trigger from
// item: by the item itself, by its room and type, or house-wide by type.
// Events are returned in priority order.
func (h *House) EventsForTrigger(item *device.Item, trigger string) []Event {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.eventsForTrigger(item, trigger)
}

// eventsForTrigger requires h.mu.
func (h *House) eventsForTrigger(item *device.Item, trigger string) []Event {
	roomID := int64(-1)
	if rm, ok := h.roomOf(item.ID()); ok {
		roomID = rm.id
	}
	var out []Event
	for _, ev := range h.events {
		if ev.matches(item, roomID, trigger) {
			out = append(out, ev.clone())
		}
	}
	return out
}

// resolveConflicts walks events in order and accepts each one whose
// actions touch none of the items claimed by events accepted before it.
func resolveConflicts(events []Event, r resolver) (accepted, rejected []Event) {
	acted := make(map[int64]struct{})
	for _, ev := range events {
		var claimed []*device.Item
		conflict := false
		for _, a := range ev.Actions {
			if a.ConflictsWith(r, acted) {
				conflict = true
				break
			}
			claimed = append(claimed, a.ItemsActedOn(r)...)
		}
		if conflict {
			rejected = append(rejected, ev)
			continue
		}
		for _, item := range claimed {
			acted[item.ID()] = struct{}{}
		}
		accepted = append(accepted, ev)
	}
	return accepted, rejected
}

// React processes a trigger raised by the item at address. An unknown
// address fails with ErrItemNotFound; failures inside individual events
// are reported in the Reaction and never abort the others.
//
// Matching and conflict resolution run under the read lock. Conditions and
// actions run without it, so device code may call back into the house.
func (h *House) React(ctx context.Context, address, trigger string) (*Reaction, error) {
	start := time.Now()

	h.mu.RLock()
	item, ok := h.itemByAddress(address)
	if !ok {
		h.mu.RUnlock()
		return nil, fmt.Errorf("%w: address %s", ErrItemNotFound, address)
	}
	matched := h.eventsForTrigger(item, trigger)
	accepted, rejected := resolveConflicts(matched, h)
	h.mu.RUnlock()

	rx := &Reaction{
		Address:  address,
		Trigger:  trigger,
		ItemID:   item.ID(),
		Matched:  eventIDs(matched),
		Rejected: eventIDs(rejected),
	}
	for _, ev := range rejected {
		h.logger.Debug("event rejected by conflict",
			"event_id", ev.ID,
			"event", ev.Name,
			"address", address,
			"trigger", trigger,
		)
	}

	for _, ev := range accepted {
		if !h.checkConditions(ctx, ev, rx) {
			rx.Skipped = append(rx.Skipped, ev.ID)
			continue
		}
		h.runActions(ctx, ev, rx)
		rx.Executed = append(rx.Executed, ev.ID)
	}

	rx.Duration = time.Since(start)
	h.recorder.RecordReaction(*rx)
	h.logger.Debug("trigger handled",
		"address", address,
		"trigger", trigger,
		"matched", len(rx.Matched),
		"rejected", len(rx.Rejected),
		"executed", len(rx.Executed),
		"failures", len(rx.Failures),
	)
	return rx, nil
}

// OnTrigger implements notify.Subscriber.
func (h *House) OnTrigger(ctx context.Context, address, trigger string) error {
	_, err := h.React(ctx, address, trigger)
	return err
}

// checkConditions evaluates ev's conditions in order, stopping at the
// first that fails or errors.
func (h *House) checkConditions(ctx context.Context, ev Event, rx *Reaction) bool {
	for _, c := range ev.Conditions {
		h.mu.RLock()
		item, _ := h.itemByID(c.ItemID)
		h.mu.RUnlock()

		ok, err := c.Check(ctx, item)
		if err != nil {
			rx.Failures = append(rx.Failures, EventFailure{EventID: ev.ID, ConditionID: c.ID, Err: err})
			h.logger.Warn("condition failed", "event_id", ev.ID, "condition_id", c.ID, "error", err)
			return false
		}
		if !ok {
			return false
		}
	}
	return true
}

// runActions executes ev's actions in order against the items they
// resolve to now. The first failing action ends the event.
func (h *House) runActions(ctx context.Context, ev Event, rx *Reaction) {
	for _, a := range ev.Actions {
		h.mu.RLock()
		items := a.ItemsActedOn(h)
		h.mu.RUnlock()

		if err := a.Execute(ctx, items); err != nil {
			rx.Failures = append(rx.Failures, EventFailure{EventID: ev.ID, ActionID: a.ID, Err: err})
			h.logger.Warn("action failed", "event_id", ev.ID, "action_id", a.ID, "error", err)
			return
		}
	}
}

func eventIDs(events []Event) []int64 {
	if len(events) == 0 {
		return nil
	}
	ids := make([]int64, len(events))
	for i, ev := range events {
		ids[i] = ev.ID
	}
	return ids
}
