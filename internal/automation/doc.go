// Package automation is the RoboHome rule engine.
//
// A House owns rooms, the items in them, and an ordered list of events
// (rules). Each event names a trigger, a scope (one item, the items of a
// type in a room, or the items of a type anywhere), AND-combined
// conditions and ordered actions.
//
// When a device raises a trigger the house:
//
//  1. resolves the item by address
//  2. collects the enabled events that match, in insertion order
//  3. drops any event whose actions touch an item already claimed by an
//     earlier event in the same reaction
//  4. evaluates each remaining event's conditions, stopping at the first
//     that fails
//  5. runs the actions of events whose conditions passed, in order
//
// Dropped events are reported in the Reaction, never as errors.
//
// Device methods requested from outside the rules (the API) go through
// AddToQueue and run one at a time on the dispatch worker.
//
// # Persistence
//
// Every mutator writes through to a Repository before touching memory.
// SQLiteRepository implements it over the schema in migrations/.
//
// # Thread Safety
//
// House is safe for concurrent use. Lookups and reactions take a read
// lock; mutators take the write lock. Conditions and actions are invoked
// without the lock held.
//
// # Usage
//
//	repo := automation.NewSQLiteRepository(db.DB)
//	house, err := automation.NewHouse(repo, automation.Options{
//	    Catalogue: device.NewDefaultCatalogue(transport),
//	    Notifier:  notifier,
//	})
//	if err != nil {
//	    return err
//	}
//	if err := house.Load(ctx); err != nil {
//	    return err
//	}
//	if err := house.Start(ctx); err != nil {
//	    return err
//	}
//	defer house.Close(shutdownCtx)
package automation
