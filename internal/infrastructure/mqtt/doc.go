// Package mqtt connects RoboHome Core to an MQTT broker.
//
// Devices report triggers and state over MQTT, the controller sends
// commands to active devices over MQTT, and the event forwarder plugin
// republishes triggers for external consumers. See Topics for the layout.
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Subscribe(client.Topics().AllTriggers(), 1,
//	    func(topic string, payload []byte) error {
//	        return nil
//	    })
//
// The connection auto-reconnects with backoff and restores subscriptions.
// A Last Will message marks the controller offline if it dies uncleanly.
package mqtt
