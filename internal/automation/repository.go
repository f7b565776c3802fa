package automation

import "context"

// Repository persists the house. Add methods return the new identifier;
// Update and Remove return the matching ErrXNotFound when no row exists.
// Removing a room removes its items, and removing an event removes its
// conditions and actions.
type Repository interface {
	AddRoom(ctx context.Context, r RoomRecord) (int64, error)
	UpdateRoom(ctx context.Context, r RoomRecord) error
	RemoveRoom(ctx context.Context, id int64) error
	ListRooms(ctx context.Context) ([]RoomRecord, error)

	AddItem(ctx context.Context, i ItemRecord) (int64, error)
	UpdateItem(ctx context.Context, i ItemRecord) error
	RemoveItem(ctx context.Context, id int64) error
	ListItemsForRoom(ctx context.Context, roomID int64) ([]ItemRecord, error)

	AddEvent(ctx context.Context, e EventRecord) (int64, error)
	UpdateEvent(ctx context.Context, e EventRecord) error
	RemoveEvent(ctx context.Context, id int64) error
	ListEvents(ctx context.Context) ([]EventRecord, error)

	AddCondition(ctx context.Context, c ConditionRecord) (int64, error)
	UpdateCondition(ctx context.Context, c ConditionRecord) error
	RemoveCondition(ctx context.Context, id int64) error
	ListConditionsForEvent(ctx context.Context, eventID int64) ([]ConditionRecord, error)

	AddAction(ctx context.Context, a ActionRecord) (int64, error)
	UpdateAction(ctx context.Context, a ActionRecord) error
	RemoveAction(ctx context.Context, id int64) error
	ListActionsForEvent(ctx context.Context, eventID int64) ([]ActionRecord, error)
}

// RoomRecord is the stored form of a room.
type RoomRecord struct {
	ID   int64
	Name string
}

// ItemRecord is the stored form of an item.
type ItemRecord struct {
	ID      int64
	RoomID  int64
	Name    string
	Brand   string
	Type    string
	Address string
}

// EventRecord is the stored form of an event. At most one of ItemID and
// RoomID is set; neither means house scope.
type EventRecord struct {
	ID      int64
	Name    string
	Type    string
	Trigger string
	Enabled bool
	ItemID  *int64
	RoomID  *int64
}

// ConditionRecord is the stored form of a condition.
type ConditionRecord struct {
	ID          int64
	EventID     int64
	ItemID      int64
	Method      string
	Equivalence string
	Value       int
}

// ActionRecord is the stored form of an action.
type ActionRecord struct {
	ID      int64
	EventID int64
	Method  string
	Type    string
	ItemID  *int64
	RoomID  *int64
}
