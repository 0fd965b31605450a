package mqtt

import (
	"fmt"
	"strings"
)

// TopicPrefix is the base for every topic the ROI core publishes to.
const TopicPrefix = "roicore"

// Topics provides builders for ROI core MQTT topics.
type Topics struct{}

// Restart returns the shared restart command topic that AI engines subscribe to.
//
// Example: roicore/command/restart
func (Topics) Restart() string {
	return fmt.Sprintf("%s/command/restart", TopicPrefix)
}

// DeviceRestart returns the per-device restart command topic.
//
// Example: roicore/command/restart/cam-01
func (t Topics) DeviceRestart(deviceID string) string {
	return fmt.Sprintf("%s/%s", t.Restart(), deviceID)
}

// ValidatePublishTopic rejects empty topics and topics containing wildcard
// or null characters, which brokers refuse for PUBLISH.
func ValidatePublishTopic(topic string) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if strings.ContainsAny(topic, "+#\x00") {
		return fmt.Errorf("%w: %q", ErrInvalidTopic, topic)
	}
	return nil
}
