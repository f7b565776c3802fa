package automation

import (
	"context"
	"fmt"

	"github.com/robohome/robohome-core/internal/dispatch"
)

// AddToQueue queues a method invocation at the default priority. The call
// does not wait; the outcome is visible through later state queries and
// the worker's result hook.
func (h *House) AddToQueue(roomID, itemID int64, method string, args ...any) (dispatch.Job, error) {
	return h.AddToQueueWithPriority(0, roomID, itemID, method, args...)
}

// AddToQueueWithPriority queues a method invocation. Higher priorities run
// first; zero selects the default.
func (h *House) AddToQueueWithPriority(priority int, roomID, itemID int64, method string, args ...any) (dispatch.Job, error) {
	return h.queue.Push(dispatch.Job{
		RoomID:   roomID,
		ItemID:   itemID,
		Method:   method,
		Args:     args,
		Priority: priority,
	})
}

// PendingJobs returns the queued jobs in run order.
func (h *House) PendingJobs() []dispatch.Job {
	return h.queue.Pending()
}

// QueueStats returns the worker counters.
func (h *House) QueueStats() dispatch.Stats {
	return h.worker.Stats()
}

// ExecuteMethod invokes method on the item in the given room and returns
// its result unmodified. It fails with ErrRoomNotFound, ErrItemNotFound or
// device.ErrUnsupportedMethod.
func (h *House) ExecuteMethod(ctx context.Context, roomID, itemID int64, method string, args ...any) (any, error) {
	h.mu.RLock()
	rm, ok := h.rooms[roomID]
	if !ok {
		h.mu.RUnlock()
		return nil, fmt.Errorf("%w: %d", ErrRoomNotFound, roomID)
	}
	item, ok := rm.items[itemID]
	h.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %d in room %d", ErrItemNotFound, itemID, roomID)
	}
	return item.Invoke(ctx, method, args...)
}

// ReportState records state pushed by the device at address.
func (h *House) ReportState(address string, state int) error {
	item, err := h.GetItemByAddress(address)
	if err != nil {
		return err
	}
	return item.ReportState(state)
}
