package device

import (
	"context"
	"fmt"
	"sync"
)

// Item is one device in the house.
//
// The id and type never change. Name, brand and address can be edited and
// are guarded by the item's lock; all methods are safe for concurrent use.
type Item struct {
	id   int64
	spec *TypeSpec

	mu        sync.RWMutex
	name      string
	brand     string
	address   string
	transport Transport
	dev       Device
}

// ID returns the persistent identifier.
func (i *Item) ID() int64 { return i.id }

// Type returns the device type name.
func (i *Item) Type() string { return i.spec.Name }

// Passive reports whether the item only reports state.
func (i *Item) Passive() bool { return i.spec.Passive }

// Name returns the display name.
func (i *Item) Name() string {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.name
}

// Brand returns the manufacturer brand.
func (i *Item) Brand() string {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.brand
}

// Address returns the network address.
func (i *Item) Address() string {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.address
}

// SetName renames the item.
func (i *Item) SetName(name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	i.mu.Lock()
	i.name = name
	i.mu.Unlock()
	return nil
}

// SetBrand changes the brand.
func (i *Item) SetBrand(brand string) {
	i.mu.Lock()
	i.brand = brand
	i.mu.Unlock()
}

// SetAddress moves the item to a new address. The runtime device is rebuilt
// and keeps the last known state and brightness when it can report them.
func (i *Item) SetAddress(ctx context.Context, address string) error {
	if err := ValidateAddress(address); err != nil {
		return err
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	if address == i.address {
		return nil
	}
	next := i.spec.New(address, i.transport)
	if r, ok := next.(StateReporter); ok {
		if s, err := i.dev.State(ctx); err == nil {
			r.ReportState(s)
		}
	}
	if prev, ok := i.dev.(BrightnessReporter); ok {
		if r, ok := next.(BrightnessReporter); ok {
			r.ReportBrightness(prev.Brightness())
		}
	}
	i.address = address
	i.dev = next
	return nil
}

// Device returns the runtime device, for capability checks.
func (i *Item) Device() Device {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.dev
}

// State returns the current numeric state.
func (i *Item) State(ctx context.Context) (int, error) {
	return i.Device().State(ctx)
}

// StateName returns the name of the current state.
func (i *Item) StateName(ctx context.Context) (string, error) {
	s, err := i.State(ctx)
	if err != nil {
		return "", err
	}
	if s < 0 || s >= len(i.spec.States) {
		return "", fmt.Errorf("%w: %d for %s", ErrInvalidState, s, i.spec.Name)
	}
	return i.spec.States[s], nil
}

// ReportState records state pushed by the device. It is a no-op for
// devices that derive state some other way.
func (i *Item) ReportState(state int) error {
	if state < 0 || state >= len(i.spec.States) {
		return fmt.Errorf("%w: %d for %s", ErrInvalidState, state, i.spec.Name)
	}
	if r, ok := i.Device().(StateReporter); ok {
		r.ReportState(state)
	}
	return nil
}

// Supports reports whether method can be invoked on the item.
func (i *Item) Supports(method string) bool {
	if method == MethodGetState {
		return true
	}
	_, ok := i.spec.Actions[method]
	return ok
}

// Invoke runs the named method. getState returns the state as an int;
// any other name must be an action of the item's type.
func (i *Item) Invoke(ctx context.Context, method string, args ...any) (any, error) {
	if method == MethodGetState {
		return i.State(ctx)
	}
	fn, ok := i.spec.Actions[method]
	if !ok {
		return nil, fmt.Errorf("%w: %s on %s", ErrUnsupportedMethod, method, i.spec.Name)
	}
	return fn(ctx, i.Device(), args...)
}

// String implements fmt.Stringer.
func (i *Item) String() string {
	return fmt.Sprintf("%s#%d(%s)", i.spec.Name, i.id, i.Address())
}
