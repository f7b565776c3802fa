package automation

import (
	"context"
	"fmt"
	"slices"

	"github.com/robohome/robohome-core/internal/device"
)

// Every mutator validates, writes through to the repository, and only then
// changes the in-memory house. A repository failure leaves memory as it
// was and is reported as ErrPersistence.

// EventSpec describes an event to add or update. Value is the state of
// Type that fires the event; it is mapped to the trigger name.
type EventSpec struct {
	Name    string
	Type    string
	Target  Target
	Value   int
	Enabled bool
}

// ConditionSpec describes a condition to add or update. Equivalence is
// parsed with ParseEquivalence.
type ConditionSpec struct {
	ItemID      int64
	Equivalence string
	Value       int
}

// ActionSpec describes an action to add or update. Type may be empty for
// item scope and is then taken from the item.
type ActionSpec struct {
	Target Target
	Type   string
	Method string
}

// ─── Rooms ──────────────────────────────────────────────────────────

// AddRoom creates a room and returns its ID.
func (h *House) AddRoom(ctx context.Context, name string) (int64, error) {
	if err := device.ValidateName(name); err != nil {
		return 0, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	id, err := added(h.repo.AddRoom(ctx, RoomRecord{Name: name}))
	if err != nil {
		return 0, fmt.Errorf("adding room: %w", err)
	}
	h.rooms[id] = &room{id: id, name: name, items: make(map[int64]*device.Item)}
	h.logger.Info("room added", "room_id", id, "name", name)
	return id, nil
}

// UpdateRoom renames a room.
func (h *House) UpdateRoom(ctx context.Context, roomID int64, name string) error {
	if err := device.ValidateName(name); err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	rm, ok := h.rooms[roomID]
	if !ok {
		return fmt.Errorf("%w: %d", ErrRoomNotFound, roomID)
	}
	if err := h.repo.UpdateRoom(ctx, RoomRecord{ID: roomID, Name: name}); err != nil {
		return persistErr("updating room", err)
	}
	rm.name = name
	return nil
}

// RemoveRoom deletes a room with its items. Rules referring to them are
// kept and no longer match.
func (h *House) RemoveRoom(ctx context.Context, roomID int64) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.rooms[roomID]; !ok {
		return fmt.Errorf("%w: %d", ErrRoomNotFound, roomID)
	}
	if err := h.repo.RemoveRoom(ctx, roomID); err != nil {
		return persistErr("removing room", err)
	}
	delete(h.rooms, roomID)
	h.logger.Info("room removed", "room_id", roomID)
	return nil
}

// ─── Items ──────────────────────────────────────────────────────────

// AddItem creates an item in a room and returns its ID.
func (h *House) AddItem(ctx context.Context, roomID int64, name, brand, typeName, address string) (int64, error) {
	// Validates type, name and address before anything is written.
	if _, err := h.catalogue.NewItem(0, name, brand, typeName, address); err != nil {
		return 0, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	rm, ok := h.rooms[roomID]
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrRoomNotFound, roomID)
	}
	if _, taken := h.itemByAddress(address); taken {
		return 0, fmt.Errorf("%w: %s", ErrDuplicateAddress, address)
	}

	id, err := added(h.repo.AddItem(ctx, ItemRecord{
		RoomID:  roomID,
		Name:    name,
		Brand:   brand,
		Type:    typeName,
		Address: address,
	}))
	if err != nil {
		return 0, fmt.Errorf("adding item: %w", err)
	}
	item, err := h.catalogue.NewItem(id, name, brand, typeName, address)
	if err != nil {
		return 0, err
	}
	rm.items[id] = item
	h.logger.Info("item added", "item_id", id, "room_id", roomID, "type", typeName, "address", address)
	return id, nil
}

// UpdateItem rewrites an item's fields. Changing the type replaces the
// runtime device; otherwise it keeps its last known state.
func (h *House) UpdateItem(ctx context.Context, roomID, itemID int64, name, brand, typeName, address string) error {
	candidate, err := h.catalogue.NewItem(itemID, name, brand, typeName, address)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	rm, ok := h.rooms[roomID]
	if !ok {
		return fmt.Errorf("%w: %d", ErrRoomNotFound, roomID)
	}
	item, ok := rm.items[itemID]
	if !ok {
		return fmt.Errorf("%w: %d in room %d", ErrItemNotFound, itemID, roomID)
	}
	if other, taken := h.itemByAddress(address); taken && other.ID() != itemID {
		return fmt.Errorf("%w: %s", ErrDuplicateAddress, address)
	}

	err = h.repo.UpdateItem(ctx, ItemRecord{
		ID:      itemID,
		RoomID:  roomID,
		Name:    name,
		Brand:   brand,
		Type:    typeName,
		Address: address,
	})
	if err != nil {
		return persistErr("updating item", err)
	}

	if item.Type() != typeName {
		rm.items[itemID] = candidate
		return nil
	}
	if err := item.SetName(name); err != nil {
		return err
	}
	item.SetBrand(brand)
	return item.SetAddress(ctx, address)
}

// RemoveItem deletes an item. Rules referring to it are kept and no longer
// match.
func (h *House) RemoveItem(ctx context.Context, roomID, itemID int64) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	rm, ok := h.rooms[roomID]
	if !ok {
		return fmt.Errorf("%w: %d", ErrRoomNotFound, roomID)
	}
	if _, ok := rm.items[itemID]; !ok {
		return fmt.Errorf("%w: %d in room %d", ErrItemNotFound, itemID, roomID)
	}
	if err := h.repo.RemoveItem(ctx, itemID); err != nil {
		return persistErr("removing item", err)
	}
	delete(rm.items, itemID)
	h.logger.Info("item removed", "item_id", itemID, "room_id", roomID)
	return nil
}

// ─── Events ─────────────────────────────────────────────────────────

// AddEvent appends an event at the lowest priority and returns its ID.
func (h *House) AddEvent(ctx context.Context, spec EventSpec) (int64, error) {
	if err := device.ValidateName(spec.Name); err != nil {
		return 0, err
	}
	trigger, err := h.triggerFor(spec.Type, spec.Value)
	if err != nil {
		return 0, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, err := h.checkTarget(spec.Target, spec.Type); err != nil {
		return 0, err
	}

	ev := &Event{
		Name:    spec.Name,
		Type:    spec.Type,
		Trigger: trigger,
		Enabled: spec.Enabled,
		Target:  spec.Target,
	}
	id, err := added(h.repo.AddEvent(ctx, ev.record()))
	if err != nil {
		return 0, fmt.Errorf("adding event: %w", err)
	}
	ev.ID = id
	h.events = append(h.events, ev)
	h.logger.Info("event added", "event_id", id, "name", spec.Name, "trigger", trigger, "scope", spec.Target.Scope)
	return id, nil
}

// UpdateEvent rewrites an event's fields, keeping its priority,
// conditions and actions.
func (h *House) UpdateEvent(ctx context.Context, eventID int64, spec EventSpec) error {
	if err := device.ValidateName(spec.Name); err != nil {
		return err
	}
	trigger, err := h.triggerFor(spec.Type, spec.Value)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	ev, _, ok := h.eventByID(eventID)
	if !ok {
		return fmt.Errorf("%w: %d", ErrEventNotFound, eventID)
	}
	if _, err := h.checkTarget(spec.Target, spec.Type); err != nil {
		return err
	}

	next := Event{
		ID:      eventID,
		Name:    spec.Name,
		Type:    spec.Type,
		Trigger: trigger,
		Enabled: spec.Enabled,
		Target:  spec.Target,
	}
	if err := h.repo.UpdateEvent(ctx, next.record()); err != nil {
		return persistErr("updating event", err)
	}
	ev.Name, ev.Type, ev.Trigger, ev.Enabled, ev.Target = next.Name, next.Type, next.Trigger, next.Enabled, next.Target
	return nil
}

// RemoveEvent deletes an event with its conditions and actions.
func (h *House) RemoveEvent(ctx context.Context, eventID int64) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	_, idx, ok := h.eventByID(eventID)
	if !ok {
		return fmt.Errorf("%w: %d", ErrEventNotFound, eventID)
	}
	if err := h.repo.RemoveEvent(ctx, eventID); err != nil {
		return persistErr("removing event", err)
	}
	h.events = slices.Delete(h.events, idx, idx+1)
	h.logger.Info("event removed", "event_id", eventID)
	return nil
}

// AddRule adds an event with its conditions and actions and returns the
// event ID. Every part is validated and stored before the event becomes
// visible to triggers, so a rule never runs half-built. If any part fails
// nothing is added.
func (h *House) AddRule(ctx context.Context, spec EventSpec, conditions []ConditionSpec, actions []ActionSpec) (int64, error) {
	if err := device.ValidateName(spec.Name); err != nil {
		return 0, err
	}
	trigger, err := h.triggerFor(spec.Type, spec.Value)
	if err != nil {
		return 0, err
	}
	ev := &Event{
		Name:    spec.Name,
		Type:    spec.Type,
		Trigger: trigger,
		Enabled: spec.Enabled,
		Target:  spec.Target,
	}
	for i, cs := range conditions {
		eq, err := ParseEquivalence(cs.Equivalence)
		if err != nil {
			return 0, fmt.Errorf("condition %d: %w", i, err)
		}
		ev.Conditions = append(ev.Conditions, Condition{
			ItemID:      cs.ItemID,
			Method:      device.MethodGetState,
			Equivalence: eq,
			Value:       cs.Value,
		})
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, err := h.checkTarget(spec.Target, spec.Type); err != nil {
		return 0, err
	}
	for i, c := range ev.Conditions {
		if _, ok := h.itemByID(c.ItemID); !ok {
			return 0, fmt.Errorf("condition %d: %w: %d", i, ErrItemNotFound, c.ItemID)
		}
	}
	for i, as := range actions {
		a, err := h.buildAction(as)
		if err != nil {
			return 0, fmt.Errorf("action %d: %w", i, err)
		}
		ev.Actions = append(ev.Actions, a)
	}

	id, err := added(h.repo.AddEvent(ctx, ev.record()))
	if err != nil {
		return 0, fmt.Errorf("adding event: %w", err)
	}
	ev.ID = id
	if err := h.storeRuleParts(ctx, ev); err != nil {
		if rmErr := h.repo.RemoveEvent(context.WithoutCancel(ctx), id); rmErr != nil {
			h.logger.Error("rolling back stored rule failed", "event_id", id, "error", rmErr)
		}
		return 0, err
	}
	h.events = append(h.events, ev)
	h.logger.Info("rule added",
		"event_id", id,
		"name", spec.Name,
		"trigger", trigger,
		"conditions", len(ev.Conditions),
		"actions", len(ev.Actions),
	)
	return id, nil
}

func (h *House) storeRuleParts(ctx context.Context, ev *Event) error {
	for i := range ev.Conditions {
		id, err := added(h.repo.AddCondition(ctx, ev.Conditions[i].record(ev.ID)))
		if err != nil {
			return fmt.Errorf("adding condition %d: %w", i, err)
		}
		ev.Conditions[i].ID = id
	}
	for i := range ev.Actions {
		id, err := added(h.repo.AddAction(ctx, ev.Actions[i].record(ev.ID)))
		if err != nil {
			return fmt.Errorf("adding action %d: %w", i, err)
		}
		ev.Actions[i].ID = id
	}
	return nil
}

// ─── Conditions ─────────────────────────────────────────────────────

// AddCondition appends a condition to an event and returns its ID.
func (h *House) AddCondition(ctx context.Context, eventID int64, spec ConditionSpec) (int64, error) {
	eq, err := ParseEquivalence(spec.Equivalence)
	if err != nil {
		return 0, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	ev, _, ok := h.eventByID(eventID)
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrEventNotFound, eventID)
	}
	if _, ok := h.itemByID(spec.ItemID); !ok {
		return 0, fmt.Errorf("%w: %d", ErrItemNotFound, spec.ItemID)
	}

	c := Condition{ItemID: spec.ItemID, Method: device.MethodGetState, Equivalence: eq, Value: spec.Value}
	id, err := added(h.repo.AddCondition(ctx, c.record(eventID)))
	if err != nil {
		return 0, fmt.Errorf("adding condition: %w", err)
	}
	c.ID = id
	ev.Conditions = append(ev.Conditions, c)
	return id, nil
}

// UpdateCondition rewrites a condition of an event.
func (h *House) UpdateCondition(ctx context.Context, eventID, conditionID int64, spec ConditionSpec) error {
	eq, err := ParseEquivalence(spec.Equivalence)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	ev, _, ok := h.eventByID(eventID)
	if !ok {
		return fmt.Errorf("%w: %d", ErrEventNotFound, eventID)
	}
	idx := slices.IndexFunc(ev.Conditions, func(c Condition) bool { return c.ID == conditionID })
	if idx < 0 {
		return fmt.Errorf("%w: %d on event %d", ErrConditionNotFound, conditionID, eventID)
	}
	if _, ok := h.itemByID(spec.ItemID); !ok {
		return fmt.Errorf("%w: %d", ErrItemNotFound, spec.ItemID)
	}

	c := Condition{ID: conditionID, ItemID: spec.ItemID, Method: device.MethodGetState, Equivalence: eq, Value: spec.Value}
	if err := h.repo.UpdateCondition(ctx, c.record(eventID)); err != nil {
		return persistErr("updating condition", err)
	}
	ev.Conditions[idx] = c
	return nil
}

// RemoveCondition deletes a condition of an event.
func (h *House) RemoveCondition(ctx context.Context, eventID, conditionID int64) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	ev, _, ok := h.eventByID(eventID)
	if !ok {
		return fmt.Errorf("%w: %d", ErrEventNotFound, eventID)
	}
	idx := slices.IndexFunc(ev.Conditions, func(c Condition) bool { return c.ID == conditionID })
	if idx < 0 {
		return fmt.Errorf("%w: %d on event %d", ErrConditionNotFound, conditionID, eventID)
	}
	if err := h.repo.RemoveCondition(ctx, conditionID); err != nil {
		return persistErr("removing condition", err)
	}
	ev.Conditions = slices.Delete(ev.Conditions, idx, idx+1)
	return nil
}

// ─── Actions ────────────────────────────────────────────────────────

// AddAction appends an action to an event and returns its ID. The method
// must be an action of the type.
func (h *House) AddAction(ctx context.Context, eventID int64, spec ActionSpec) (int64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ev, _, ok := h.eventByID(eventID)
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrEventNotFound, eventID)
	}
	a, err := h.buildAction(spec)
	if err != nil {
		return 0, err
	}

	id, err := added(h.repo.AddAction(ctx, a.record(eventID)))
	if err != nil {
		return 0, fmt.Errorf("adding action: %w", err)
	}
	a.ID = id
	ev.Actions = append(ev.Actions, a)
	return id, nil
}

// UpdateAction rewrites an action of an event.
func (h *House) UpdateAction(ctx context.Context, eventID, actionID int64, spec ActionSpec) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	ev, _, ok := h.eventByID(eventID)
	if !ok {
		return fmt.Errorf("%w: %d", ErrEventNotFound, eventID)
	}
	idx := slices.IndexFunc(ev.Actions, func(a Action) bool { return a.ID == actionID })
	if idx < 0 {
		return fmt.Errorf("%w: %d on event %d", ErrActionNotFound, actionID, eventID)
	}
	a, err := h.buildAction(spec)
	if err != nil {
		return err
	}
	a.ID = actionID

	if err := h.repo.UpdateAction(ctx, a.record(eventID)); err != nil {
		return persistErr("updating action", err)
	}
	ev.Actions[idx] = a
	return nil
}

// RemoveAction deletes an action of an event.
func (h *House) RemoveAction(ctx context.Context, eventID, actionID int64) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	ev, _, ok := h.eventByID(eventID)
	if !ok {
		return fmt.Errorf("%w: %d", ErrEventNotFound, eventID)
	}
	idx := slices.IndexFunc(ev.Actions, func(a Action) bool { return a.ID == actionID })
	if idx < 0 {
		return fmt.Errorf("%w: %d on event %d", ErrActionNotFound, actionID, eventID)
	}
	if err := h.repo.RemoveAction(ctx, actionID); err != nil {
		return persistErr("removing action", err)
	}
	ev.Actions = slices.Delete(ev.Actions, idx, idx+1)
	return nil
}

// ─── Helpers ────────────────────────────────────────────────────────

// triggerFor maps a type's state value to its trigger name.
func (h *House) triggerFor(typeName string, value int) (string, error) {
	trigger, err := h.catalogue.TriggerForValue(typeName, value)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidRule, err)
	}
	return trigger, nil
}

// checkTarget verifies the target exists and, for item scope, that the item
// is of typeName when one is given. It returns the item's type for item
// scope. Requires h.mu.
func (h *House) checkTarget(t Target, typeName string) (string, error) {
	switch t.Scope {
	case ScopeItem:
		item, ok := h.itemByID(t.ID)
		if !ok {
			return "", fmt.Errorf("%w: %d", ErrItemNotFound, t.ID)
		}
		if typeName != "" && item.Type() != typeName {
			return "", fmt.Errorf("%w: item %d is a %s, not a %s", ErrInvalidRule, t.ID, item.Type(), typeName)
		}
		return item.Type(), nil
	case ScopeRoom:
		if _, ok := h.rooms[t.ID]; !ok {
			return "", fmt.Errorf("%w: %d", ErrRoomNotFound, t.ID)
		}
		return typeName, nil
	case ScopeHouse:
		return typeName, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidScope, t.Scope)
}

// buildAction validates spec against the house and catalogue. Requires h.mu.
func (h *House) buildAction(spec ActionSpec) (Action, error) {
	typeName, err := h.checkTarget(spec.Target, spec.Type)
	if err != nil {
		return Action{}, err
	}
	if typeName == "" {
		return Action{}, fmt.Errorf("%w: action type is required for %s scope", ErrInvalidRule, spec.Target.Scope)
	}
	if err := h.catalogue.CheckMethod(typeName, spec.Method); err != nil {
		if !h.catalogue.Has(typeName) {
			return Action{}, fmt.Errorf("%w: %w", ErrInvalidRule, err)
		}
		return Action{}, err
	}
	return Action{Method: spec.Method, Type: typeName, Target: spec.Target}, nil
}

// added turns a repository insert into an ID or ErrPersistence.
func added(id int64, err error) (int64, error) {
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	if id < 0 {
		return 0, fmt.Errorf("%w: repository returned id %d", ErrPersistence, id)
	}
	return id, nil
}

func persistErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrPersistence, err)
}

func (e *Event) record() EventRecord {
	itemID, roomID := e.Target.refs()
	return EventRecord{
		ID:      e.ID,
		Name:    e.Name,
		Type:    e.Type,
		Trigger: e.Trigger,
		Enabled: e.Enabled,
		ItemID:  itemID,
		RoomID:  roomID,
	}
}

func (c Condition) record(eventID int64) ConditionRecord {
	return ConditionRecord{
		ID:          c.ID,
		EventID:     eventID,
		ItemID:      c.ItemID,
		Method:      c.Method,
		Equivalence: string(c.Equivalence),
		Value:       c.Value,
	}
}

func (a Action) record(eventID int64) ActionRecord {
	itemID, roomID := a.Target.refs()
	return ActionRecord{
		ID:      a.ID,
		EventID: eventID,
		Method:  a.Method,
		Type:    a.Type,
		ItemID:  itemID,
		RoomID:  roomID,
	}
}
