// Package device models the connected devices (items) of a RoboHome house.
//
// # Key Types
//
//   - Item: one physical device with an immutable id, a type and a network
//     address. Items expose State and a typed Invoke.
//   - Catalogue: the registry of device types. Each TypeSpec declares the
//     state vocabulary (state names double as trigger names), the named
//     actions the type supports, and a factory for the runtime Device.
//   - Device, Switchable, Dimmable, StateReporter: capability interfaces
//     implemented by the built-in device types.
//   - Transport: how active devices deliver commands. MQTTTransport
//     publishes to {prefix}/command/{address}.
//
// Action names are checked against the catalogue, so an unsupported
// method is reported with ErrUnsupportedMethod both when a rule is created
// and when an item is invoked.
//
// # Usage
//
//	cat := device.NewDefaultCatalogue(device.NewMQTTTransport(client))
//	lamp, err := cat.NewItem(2, "Lamp", "generic", device.TypeLight, "10.0.0.6")
//	if err != nil {
//	    return err
//	}
//	_, err = lamp.Invoke(ctx, "turnOn")
package device
