package mqtt

import (
	"fmt"
	"strings"
)

// DefaultTopicPrefix is used when no prefix is configured.
const DefaultTopicPrefix = "robohome"

// Topics builds RoboHome topic names under a common prefix:
//
//	{prefix}/trigger/{address}   sensor triggers into the controller
//	{prefix}/state/{address}     last-known device state reports
//	{prefix}/command/{address}   commands to active devices
//	{prefix}/event/{address}     triggers republished for plugins
//	{prefix}/system/status       controller online/offline
type Topics struct {
	prefix string
}

// NewTopics returns a builder for prefix, falling back to DefaultTopicPrefix.
func NewTopics(prefix string) Topics {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return Topics{prefix: prefix}
}

// Prefix returns the topic root.
func (t Topics) Prefix() string {
	return t.prefix
}

// Trigger returns the trigger topic for a device address.
func (t Topics) Trigger(address string) string {
	return fmt.Sprintf("%s/trigger/%s", t.prefix, address)
}

// State returns the state report topic for a device address.
func (t Topics) State(address string) string {
	return fmt.Sprintf("%s/state/%s", t.prefix, address)
}

// Command returns the command topic for a device address.
func (t Topics) Command(address string) string {
	return fmt.Sprintf("%s/command/%s", t.prefix, address)
}

// Event returns the forwarded event topic for a device address.
func (t Topics) Event(address string) string {
	return fmt.Sprintf("%s/event/%s", t.prefix, address)
}

// SystemStatus returns the controller status topic.
func (t Topics) SystemStatus() string {
	return t.prefix + "/system/status"
}

// AllTriggers matches every trigger topic.
func (t Topics) AllTriggers() string {
	return t.prefix + "/trigger/+"
}

// AllStates matches every state report topic.
func (t Topics) AllStates() string {
	return t.prefix + "/state/+"
}

// AddressFromTopic returns the last segment of topic when it sits under
// {prefix}/{kind}/.
func (t Topics) AddressFromTopic(kind, topic string) (string, bool) {
	address, ok := strings.CutPrefix(topic, t.prefix+"/"+kind+"/")
	if !ok || address == "" || strings.Contains(address, "/") {
		return "", false
	}
	return address, true
}
