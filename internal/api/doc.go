// Package api provides the HTTP REST API for RoboHome Core.
//
// All routes live under /api/v1:
//
//	GET    /health                                  liveness and component health
//	GET    /metrics                                 runtime, queue and house counters
//	GET    /version                                 supported device types
//	GET    /structure                               rooms and items with states
//	GET    /state                                   flat item states
//	GET    /rooms                                   room list
//	POST   /rooms                                   create room
//	GET    /rooms/{roomID}                          one room
//	PATCH  /rooms/{roomID}                          rename room
//	DELETE /rooms/{roomID}                          delete room and its items
//	POST   /rooms/{roomID}/items                    create item
//	GET    /rooms/{roomID}/items/{itemID}           one item with state
//	PUT    /rooms/{roomID}/items/{itemID}           replace item fields
//	DELETE /rooms/{roomID}/items/{itemID}           delete item
//	POST   /rooms/{roomID}/items/{itemID}/commands  queue a method invocation (202)
//	GET    /queue                                   pending jobs and worker stats
//	GET    /rules                                   every rule in priority order
//	POST   /rules                                   create rule with conditions and actions
//	GET    /rules/{eventID}                         one rule
//	PUT    /rules/{eventID}                         replace the rule's event part
//	DELETE /rules/{eventID}                         delete rule
//	POST   /rules/{eventID}/conditions              add condition
//	PUT    /rules/{eventID}/conditions/{id}         replace condition
//	DELETE /rules/{eventID}/conditions/{id}         delete condition
//	POST   /rules/{eventID}/actions                 add action
//	PUT    /rules/{eventID}/actions/{id}            replace action
//	DELETE /rules/{eventID}/actions/{id}            delete action
//	POST   /triggers                                inject a device trigger
//	GET    /audit                                   mutation trail, newest first
//
// Commands are fire-and-forget: the response carries the job id, never the
// method's result. Errors are JSON bodies with status, code and message;
// missing entities map to 404, rule and validation problems to 400,
// duplicate addresses to 409 and storage failures to 500. Successful
// mutations, commands and triggers are written to the audit trail when one
// is configured.
//
// The server follows the same lifecycle pattern as other infrastructure
// components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
package api
