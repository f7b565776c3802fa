// Package ingest turns MQTT device messages into controller input.
//
// Two subscriptions are held:
//
//	{prefix}/trigger/+   {"trigger":"motion"} or a bare "motion"
//	{prefix}/state/+     {"state":1}
//
// Triggers are handed to the notification manager, which runs the
// automation engine and plugins. State reports update the last-known state
// of the addressed item without triggering rules.
//
// Handler errors are returned to the MQTT client, which logs them. A
// malformed message never stops the subscription.
package ingest
