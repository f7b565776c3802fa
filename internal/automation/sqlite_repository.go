package automation

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// ─── Rooms ──────────────────────────────────────────────────────────

// AddRoom inserts a room.
func (r *SQLiteRepository) AddRoom(ctx context.Context, room RoomRecord) (int64, error) {
	return r.insert(ctx, "room", `INSERT INTO rooms (name) VALUES (?)`, room.Name)
}

// UpdateRoom renames a room.
func (r *SQLiteRepository) UpdateRoom(ctx context.Context, room RoomRecord) error {
	return r.exec(ctx, ErrRoomNotFound, `UPDATE rooms SET name = ? WHERE id = ?`, room.Name, room.ID)
}

// RemoveRoom deletes a room and, through the foreign key, its items.
func (r *SQLiteRepository) RemoveRoom(ctx context.Context, id int64) error {
	return r.exec(ctx, ErrRoomNotFound, `DELETE FROM rooms WHERE id = ?`, id)
}

// ListRooms returns every room ordered by id.
func (r *SQLiteRepository) ListRooms(ctx context.Context) ([]RoomRecord, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM rooms ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying rooms: %w", err)
	}
	defer rows.Close()

	var rooms []RoomRecord
	for rows.Next() {
		var room RoomRecord
		if err := rows.Scan(&room.ID, &room.Name); err != nil {
			return nil, fmt.Errorf("scanning room: %w", err)
		}
		rooms = append(rooms, room)
	}
	return rooms, rows.Err()
}

// ─── Items ──────────────────────────────────────────────────────────

// AddItem inserts an item.
func (r *SQLiteRepository) AddItem(ctx context.Context, item ItemRecord) (int64, error) {
	id, err := r.insert(ctx, "item",
		`INSERT INTO items (room_id, name, brand, type, address) VALUES (?, ?, ?, ?, ?)`,
		item.RoomID, item.Name, item.Brand, item.Type, item.Address,
	)
	if err != nil && isUniqueConstraintError(err) {
		return 0, fmt.Errorf("%w: %s", ErrDuplicateAddress, item.Address)
	}
	return id, err
}

// UpdateItem rewrites an item's fields.
func (r *SQLiteRepository) UpdateItem(ctx context.Context, item ItemRecord) error {
	err := r.exec(ctx, ErrItemNotFound,
		`UPDATE items SET room_id = ?, name = ?, brand = ?, type = ?, address = ? WHERE id = ?`,
		item.RoomID, item.Name, item.Brand, item.Type, item.Address, item.ID,
	)
	if err != nil && isUniqueConstraintError(err) {
		return fmt.Errorf("%w: %s", ErrDuplicateAddress, item.Address)
	}
	return err
}

// RemoveItem deletes an item.
func (r *SQLiteRepository) RemoveItem(ctx context.Context, id int64) error {
	return r.exec(ctx, ErrItemNotFound, `DELETE FROM items WHERE id = ?`, id)
}

// ListItemsForRoom returns the items in a room ordered by id.
func (r *SQLiteRepository) ListItemsForRoom(ctx context.Context, roomID int64) ([]ItemRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, room_id, name, brand, type, address FROM items WHERE room_id = ? ORDER BY id`, roomID)
	if err != nil {
		return nil, fmt.Errorf("querying items: %w", err)
	}
	defer rows.Close()

	var items []ItemRecord
	for rows.Next() {
		var it ItemRecord
		if err := rows.Scan(&it.ID, &it.RoomID, &it.Name, &it.Brand, &it.Type, &it.Address); err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// ─── Events ─────────────────────────────────────────────────────────

// AddEvent inserts an event.
func (r *SQLiteRepository) AddEvent(ctx context.Context, e EventRecord) (int64, error) {
	return r.insert(ctx, "event",
		`INSERT INTO events (name, type, trigger_name, enabled, item_id, room_id) VALUES (?, ?, ?, ?, ?, ?)`,
		e.Name, e.Type, e.Trigger, boolToInt(e.Enabled), nullableID(e.ItemID), nullableID(e.RoomID),
	)
}

// UpdateEvent rewrites an event's fields.
func (r *SQLiteRepository) UpdateEvent(ctx context.Context, e EventRecord) error {
	return r.exec(ctx, ErrEventNotFound,
		`UPDATE events SET name = ?, type = ?, trigger_name = ?, enabled = ?, item_id = ?, room_id = ? WHERE id = ?`,
		e.Name, e.Type, e.Trigger, boolToInt(e.Enabled), nullableID(e.ItemID), nullableID(e.RoomID), e.ID,
	)
}

// RemoveEvent deletes an event with its conditions and actions.
func (r *SQLiteRepository) RemoveEvent(ctx context.Context, id int64) error {
	return r.exec(ctx, ErrEventNotFound, `DELETE FROM events WHERE id = ?`, id)
}

// ListEvents returns every event in insertion order.
func (r *SQLiteRepository) ListEvents(ctx context.Context) ([]EventRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, type, trigger_name, enabled, item_id, room_id FROM events ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying events: %w", err)
	}
	defer rows.Close()

	var events []EventRecord
	for rows.Next() {
		var (
			e              EventRecord
			enabled        int
			itemID, roomID sql.NullInt64
		)
		if err := rows.Scan(&e.ID, &e.Name, &e.Type, &e.Trigger, &enabled, &itemID, &roomID); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		e.Enabled = enabled != 0
		e.ItemID = idPtr(itemID)
		e.RoomID = idPtr(roomID)
		events = append(events, e)
	}
	return events, rows.Err()
}

// ─── Conditions ─────────────────────────────────────────────────────

// AddCondition inserts a condition.
func (r *SQLiteRepository) AddCondition(ctx context.Context, c ConditionRecord) (int64, error) {
	return r.insert(ctx, "condition",
		`INSERT INTO conditions (event_id, item_id, method, equivalence, value) VALUES (?, ?, ?, ?, ?)`,
		c.EventID, c.ItemID, c.Method, c.Equivalence, c.Value,
	)
}

// UpdateCondition rewrites a condition's fields.
func (r *SQLiteRepository) UpdateCondition(ctx context.Context, c ConditionRecord) error {
	return r.exec(ctx, ErrConditionNotFound,
		`UPDATE conditions SET item_id = ?, method = ?, equivalence = ?, value = ? WHERE id = ? AND event_id = ?`,
		c.ItemID, c.Method, c.Equivalence, c.Value, c.ID, c.EventID,
	)
}

// RemoveCondition deletes a condition.
func (r *SQLiteRepository) RemoveCondition(ctx context.Context, id int64) error {
	return r.exec(ctx, ErrConditionNotFound, `DELETE FROM conditions WHERE id = ?`, id)
}

// ListConditionsForEvent returns an event's conditions in insertion order.
func (r *SQLiteRepository) ListConditionsForEvent(ctx context.Context, eventID int64) ([]ConditionRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, event_id, item_id, method, equivalence, value FROM conditions WHERE event_id = ? ORDER BY id`, eventID)
	if err != nil {
		return nil, fmt.Errorf("querying conditions: %w", err)
	}
	defer rows.Close()

	var conditions []ConditionRecord
	for rows.Next() {
		var c ConditionRecord
		if err := rows.Scan(&c.ID, &c.EventID, &c.ItemID, &c.Method, &c.Equivalence, &c.Value); err != nil {
			return nil, fmt.Errorf("scanning condition: %w", err)
		}
		conditions = append(conditions, c)
	}
	return conditions, rows.Err()
}

// ─── Actions ────────────────────────────────────────────────────────

// AddAction inserts an action.
func (r *SQLiteRepository) AddAction(ctx context.Context, a ActionRecord) (int64, error) {
	return r.insert(ctx, "action",
		`INSERT INTO actions (event_id, method, type, item_id, room_id) VALUES (?, ?, ?, ?, ?)`,
		a.EventID, a.Method, a.Type, nullableID(a.ItemID), nullableID(a.RoomID),
	)
}

// UpdateAction rewrites an action's fields.
func (r *SQLiteRepository) UpdateAction(ctx context.Context, a ActionRecord) error {
	return r.exec(ctx, ErrActionNotFound,
		`UPDATE actions SET method = ?, type = ?, item_id = ?, room_id = ? WHERE id = ? AND event_id = ?`,
		a.Method, a.Type, nullableID(a.ItemID), nullableID(a.RoomID), a.ID, a.EventID,
	)
}

// RemoveAction deletes an action.
func (r *SQLiteRepository) RemoveAction(ctx context.Context, id int64) error {
	return r.exec(ctx, ErrActionNotFound, `DELETE FROM actions WHERE id = ?`, id)
}

// ListActionsForEvent returns an event's actions in insertion order.
func (r *SQLiteRepository) ListActionsForEvent(ctx context.Context, eventID int64) ([]ActionRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, event_id, method, type, item_id, room_id FROM actions WHERE event_id = ? ORDER BY id`, eventID)
	if err != nil {
		return nil, fmt.Errorf("querying actions: %w", err)
	}
	defer rows.Close()

	var actions []ActionRecord
	for rows.Next() {
		var (
			a              ActionRecord
			itemID, roomID sql.NullInt64
		)
		if err := rows.Scan(&a.ID, &a.EventID, &a.Method, &a.Type, &itemID, &roomID); err != nil {
			return nil, fmt.Errorf("scanning action: %w", err)
		}
		a.ItemID = idPtr(itemID)
		a.RoomID = idPtr(roomID)
		actions = append(actions, a)
	}
	return actions, rows.Err()
}

// ─── Helpers ────────────────────────────────────────────────────────

func (r *SQLiteRepository) insert(ctx context.Context, kind, query string, args ...any) (int64, error) {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("inserting %s: %w", kind, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading %s id: %w", kind, err)
	}
	return id, nil
}

func (r *SQLiteRepository) exec(ctx context.Context, notFound error, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		verb, _, _ := strings.Cut(query, " ")
		return fmt.Errorf("%s: %w", strings.ToLower(verb), err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func nullableID(id *int64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}

func idPtr(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	id := n.Int64
	return &id
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint")
}
