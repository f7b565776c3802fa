package automation

import (
	"context"
	"errors"
	"fmt"

	"github.com/robohome/robohome-core/internal/device"
)

// Scope is the breadth of an event or action target.
type Scope string

// Scope values.
const (
	ScopeItem  Scope = "item"
	ScopeRoom  Scope = "room"
	ScopeHouse Scope = "house"
)

// ParseScope converts the wire form of a scope.
func ParseScope(s string) (Scope, error) {
	switch Scope(s) {
	case ScopeItem, ScopeRoom, ScopeHouse:
		return Scope(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidScope, s)
}

// Target is exactly one of a single item, a room, or the whole house.
// ID names the item or room and is ignored for house scope.
type Target struct {
	Scope Scope
	ID    int64
}

// HouseTarget targets the whole house.
func HouseTarget() Target { return Target{Scope: ScopeHouse} }

// ItemTarget targets one item.
func ItemTarget(id int64) Target { return Target{Scope: ScopeItem, ID: id} }

// RoomTarget targets a room.
func RoomTarget(id int64) Target { return Target{Scope: ScopeRoom, ID: id} }

// refs returns the nullable item and room columns for the target.
func (t Target) refs() (itemID, roomID *int64) {
	id := t.ID
	switch t.Scope {
	case ScopeItem:
		return &id, nil
	case ScopeRoom:
		return nil, &id
	}
	return nil, nil
}

// targetFromRefs is the inverse of refs.
func targetFromRefs(itemID, roomID *int64) Target {
	switch {
	case itemID != nil:
		return ItemTarget(*itemID)
	case roomID != nil:
		return RoomTarget(*roomID)
	}
	return HouseTarget()
}

// Equivalence is a condition comparison operator.
type Equivalence string

// Supported operators.
const (
	Equal          Equivalence = "="
	NotEqual       Equivalence = "!="
	Less           Equivalence = "<"
	LessOrEqual    Equivalence = "<="
	Greater        Equivalence = ">"
	GreaterOrEqual Equivalence = ">="
)

// ParseEquivalence converts the wire form of an operator. "is" and "=="
// are accepted as spellings of "=".
func ParseEquivalence(s string) (Equivalence, error) {
	switch s {
	case "is", "==":
		return Equal, nil
	}
	switch e := Equivalence(s); e {
	case Equal, NotEqual, Less, LessOrEqual, Greater, GreaterOrEqual:
		return e, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidEquivalence, s)
}

// Compare applies the operator to a and b.
func (e Equivalence) Compare(a, b int) bool {
	switch e {
	case Equal:
		return a == b
	case NotEqual:
		return a != b
	case Less:
		return a < b
	case LessOrEqual:
		return a <= b
	case Greater:
		return a > b
	case GreaterOrEqual:
		return a >= b
	}
	return false
}

// resolver looks up live items. Implementations are read under the
// house lock.
type resolver interface {
	itemByID(id int64) (*device.Item, bool)
	roomItems(roomID int64) []*device.Item
	allItems() []*device.Item
}

// Condition is a predicate over one item's state.
type Condition struct {
	ID          int64
	ItemID      int64
	Method      string
	Equivalence Equivalence
	Value       int
}

// Check evaluates the item's state against the stored value. It has no
// side effects on the item.
func (c Condition) Check(ctx context.Context, item *device.Item) (bool, error) {
	if item == nil {
		return false, fmt.Errorf("condition %d: item %d: %w", c.ID, c.ItemID, ErrItemNotFound)
	}
	state, err := item.State(ctx)
	if err != nil {
		return false, fmt.Errorf("condition %d: querying %s: %w", c.ID, item, err)
	}
	return c.Equivalence.Compare(state, c.Value), nil
}

// Action is an effect applied to its target when an event fires.
type Action struct {
	ID     int64
	Method string
	Type   string
	Target Target
}

// ItemsActedOn resolves the items the action touches right now: the item
// itself, the items of Type in the room, or the items of Type in the house.
func (a Action) ItemsActedOn(r resolver) []*device.Item {
	switch a.Target.Scope {
	case ScopeItem:
		if item, ok := r.itemByID(a.Target.ID); ok {
			return []*device.Item{item}
		}
		return nil
	case ScopeRoom:
		return ofType(r.roomItems(a.Target.ID), a.Type)
	default:
		return ofType(r.allItems(), a.Type)
	}
}

// ConflictsWith reports whether the action touches any item in acted.
func (a Action) ConflictsWith(r resolver, acted map[int64]struct{}) bool {
	for _, item := range a.ItemsActedOn(r) {
		if _, ok := acted[item.ID()]; ok {
			return true
		}
	}
	return false
}

// Execute invokes Method on each item. Every item is attempted; failures
// are joined.
func (a Action) Execute(ctx context.Context, items []*device.Item) error {
	if a.Target.Scope == ScopeItem && len(items) == 0 {
		return fmt.Errorf("action %d: item %d: %w", a.ID, a.Target.ID, ErrItemNotFound)
	}
	var errs []error
	for _, item := range items {
		if _, err := item.Invoke(ctx, a.Method); err != nil {
			errs = append(errs, fmt.Errorf("action %d on %s: %w", a.ID, item, err))
		}
	}
	return errors.Join(errs...)
}

// Event is an automation rule: when an item in scope enters Trigger and
// every condition holds, the actions run in order.
type Event struct {
	ID         int64
	Name       string
	Type       string
	Trigger    string
	Enabled    bool
	Target     Target
	Conditions []Condition
	Actions    []Action
}

// matches reports whether the event responds to trigger from item, which
// lives in roomID.
func (e *Event) matches(item *device.Item, roomID int64, trigger string) bool {
	if !e.Enabled || e.Trigger != trigger {
		return false
	}
	switch e.Target.Scope {
	case ScopeItem:
		return e.Target.ID == item.ID()
	case ScopeRoom:
		return e.Target.ID == roomID && e.Type == item.Type()
	default:
		return e.Type == item.Type()
	}
}

// clone copies the event so it can be used outside the house lock.
func (e *Event) clone() Event {
	cp := *e
	cp.Conditions = append([]Condition(nil), e.Conditions...)
	cp.Actions = append([]Action(nil), e.Actions...)
	return cp
}

func ofType(items []*device.Item, typeName string) []*device.Item {
	var out []*device.Item
	for _, item := range items {
		if item.Type() == typeName {
			out = append(out, item)
		}
	}
	return out
}
