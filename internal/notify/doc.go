// Package notify is the listener manager that fans device triggers out
// to every interested subsystem.
//
// A trigger is an (address, trigger name) pair raised when a device
// changes state, for example ("10.0.0.5", "motion"). Subscribers are
// called synchronously, in registration order, on the caller's goroutine.
// A subscriber that fails or panics does not stop delivery to the rest;
// Notify returns every failure joined together.
//
//	mgr := notify.NewManager()
//	mgr.SetLogger(logger.Component("notify"))
//	unsubscribe := mgr.Subscribe("house", house)
//	defer unsubscribe()
//
//	if err := mgr.Notify(ctx, "10.0.0.5", "motion"); err != nil {
//	    // one or more subscribers failed
//	}
package notify
