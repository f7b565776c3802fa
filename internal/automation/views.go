package automation

import (
	"context"
	"fmt"

	"github.com/robohome/robohome-core/internal/device"
)

// UnknownState is reported when an item's state cannot be read.
const UnknownState = -1

// StructureView is the nested house layout.
type StructureView struct {
	Rooms []RoomView `json:"rooms"`
}

// RoomView is one room in StructureView.
type RoomView struct {
	ID    int64      `json:"id"`
	Name  string     `json:"name"`
	Items []ItemView `json:"items"`
}

// ItemView is one item in RoomView.
type ItemView struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	ItemType string `json:"itemType"`
	Brand    string `json:"brand"`
	Address  string `json:"address"`
	State    int    `json:"state"`
}

// StateView is the flat list of item states.
type StateView struct {
	States []ItemState `json:"states"`
}

// ItemState is one entry of StateView.
type ItemState struct {
	ID    int64 `json:"id"`
	State int   `json:"state"`
}

// RulesView lists every rule in priority order.
type RulesView struct {
	Rules []RuleView `json:"rules"`
}

// RuleView is an event with its conditions and actions.
type RuleView struct {
	RuleID     int64               `json:"ruleId"`
	RuleName   string              `json:"ruleName"`
	Enabled    bool                `json:"enabled"`
	Event      RuleEventView       `json:"event"`
	Conditions []RuleConditionView `json:"conditions"`
	Actions    []RuleActionView    `json:"actions"`
}

// RuleEventView is the trigger part of a rule. Value is the state of
// ItemType that fires it; ID is nil for house scope.
type RuleEventView struct {
	ItemType string `json:"itemType"`
	Value    *int   `json:"value"`
	ID       *int64 `json:"id"`
	Scope    Scope  `json:"scope"`
}

// RuleConditionView is one condition of a rule.
type RuleConditionView struct {
	ConditionID int64  `json:"conditionId"`
	ItemID      int64  `json:"itemId"`
	ItemType    string `json:"itemType"`
	Method      string `json:"method"`
	Equivalence string `json:"equivalence"`
	Value       int    `json:"value"`
}

// RuleActionView is one action of a rule.
type RuleActionView struct {
	ActionID int64  `json:"actionId"`
	Method   string `json:"method"`
	ItemType string `json:"itemType"`
	ID       *int64 `json:"id"`
	Scope    Scope  `json:"scope"`
}

// VersionView describes the device types the house supports.
type VersionView struct {
	SupportedTypes map[string]device.TypeInfo `json:"supportedTypes"`
}

// Structure returns rooms and their items ordered by id, with current
// states.
func (h *House) Structure(ctx context.Context) StructureView {
	type roomSnapshot struct {
		id    int64
		name  string
		items []*device.Item
	}

	h.mu.RLock()
	rooms := h.sortedRooms()
	snaps := make([]roomSnapshot, len(rooms))
	for i, rm := range rooms {
		snaps[i] = roomSnapshot{id: rm.id, name: rm.name, items: rm.sortedItems()}
	}
	h.mu.RUnlock()

	view := StructureView{Rooms: make([]RoomView, 0, len(snaps))}
	for _, s := range snaps {
		rv := RoomView{ID: s.id, Name: s.name, Items: make([]ItemView, 0, len(s.items))}
		for _, item := range s.items {
			rv.Items = append(rv.Items, ItemView{
				ID:       item.ID(),
				Name:     item.Name(),
				ItemType: item.Type(),
				Brand:    item.Brand(),
				Address:  item.Address(),
				State:    stateOf(ctx, item),
			})
		}
		view.Rooms = append(view.Rooms, rv)
	}
	return view
}

// State returns the state of every item ordered by id.
func (h *House) State(ctx context.Context) StateView {
	h.mu.RLock()
	items := h.allItems()
	h.mu.RUnlock()

	view := StateView{States: make([]ItemState, 0, len(items))}
	for _, item := range items {
		view.States = append(view.States, ItemState{ID: item.ID(), State: stateOf(ctx, item)})
	}
	return view
}

// Rules returns every rule in priority order.
func (h *House) Rules() RulesView {
	h.mu.RLock()
	defer h.mu.RUnlock()

	view := RulesView{Rules: make([]RuleView, 0, len(h.events))}
	for _, ev := range h.events {
		view.Rules = append(view.Rules, h.ruleView(ev))
	}
	return view
}

// Rule returns one rule.
func (h *House) Rule(eventID int64) (RuleView, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	ev, _, ok := h.eventByID(eventID)
	if !ok {
		return RuleView{}, fmt.Errorf("%w: %d", ErrEventNotFound, eventID)
	}
	return h.ruleView(ev), nil
}

// ruleView requires h.mu.
func (h *House) ruleView(ev *Event) RuleView {
	rv := RuleView{
		RuleID:   ev.ID,
		RuleName: ev.Name,
		Enabled:  ev.Enabled,
		Event: RuleEventView{
			ItemType: ev.Type,
			ID:       targetID(ev.Target),
			Scope:    ev.Target.Scope,
		},
		Conditions: make([]RuleConditionView, 0, len(ev.Conditions)),
		Actions:    make([]RuleActionView, 0, len(ev.Actions)),
	}
	if v, err := h.catalogue.ValueForTrigger(ev.Type, ev.Trigger); err == nil {
		rv.Event.Value = &v
	}

	for _, c := range ev.Conditions {
		cv := RuleConditionView{
			ConditionID: c.ID,
			ItemID:      c.ItemID,
			Method:      c.Method,
			Equivalence: string(c.Equivalence),
			Value:       c.Value,
		}
		if item, ok := h.itemByID(c.ItemID); ok {
			cv.ItemType = item.Type()
		}
		rv.Conditions = append(rv.Conditions, cv)
	}

	for _, a := range ev.Actions {
		rv.Actions = append(rv.Actions, RuleActionView{
			ActionID: a.ID,
			Method:   a.Method,
			ItemType: a.Type,
			ID:       targetID(a.Target),
			Scope:    a.Target.Scope,
		})
	}
	return rv
}

// Version describes the supported device types.
func (h *House) Version() VersionView {
	return VersionView{SupportedTypes: h.catalogue.Describe()}
}

func stateOf(ctx context.Context, item *device.Item) int {
	s, err := item.State(ctx)
	if err != nil {
		return UnknownState
	}
	return s
}

func targetID(t Target) *int64 {
	if t.Scope == ScopeHouse {
		return nil
	}
	id := t.ID
	return &id
}
