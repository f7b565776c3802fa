// Package plugin connects external extensions to the trigger stream.
//
// A Manager subscribes once to the notification manager and hands every
// trigger to its registered plugins in registration order. A failing or
// panicking plugin does not stop delivery to the others; the failures are
// joined into the error returned to the notification manager.
//
// What a plugin does with a trigger is up to the plugin. The package ships
// one: EventForwarder republishes each trigger as JSON on
// {prefix}/event/{address} so that processes outside the controller can
// follow device activity.
//
// Usage:
//
//	plugins := plugin.NewManager()
//	plugins.Register(plugin.NewEventForwarder(mqttClient))
//	unsubscribe, err := notifier.Subscribe("plugins", plugins)
package plugin
