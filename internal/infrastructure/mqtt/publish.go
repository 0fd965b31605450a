package mqtt

import (
	"fmt"
)

// Maximum payload size for MQTT messages (1MB).
const maxPayloadSize = 1 << 20

// Publish sends a message and blocks until the broker acknowledges it or the
// session timeout elapses.
//
// The acknowledgement confirms the broker accepted the message (PUBACK for
// QoS 1, PUBCOMP for QoS 2). It says nothing about whether any subscriber,
// such as the target device, has received it.
//
// Example:
//
//	err := client.Publish(mqtt.Topics{}.Restart(), []byte(`{"command":"restart"}`), 1, false)
func (c *Client) Publish(topic string, payload []byte, qos byte, retained bool) error {
	if err := ValidatePublishTopic(topic); err != nil {
		return err
	}
	if qos > maxQoS {
		return ErrInvalidQoS
	}
	if len(payload) > maxPayloadSize {
		return fmt.Errorf("%w: payload size %d exceeds maximum %d bytes", ErrPublishFailed, len(payload), maxPayloadSize)
	}

	if !c.IsConnected() {
		return ErrNotConnected
	}

	token := c.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(c.timeout) {
		return fmt.Errorf("%w: %w after %v", ErrPublishFailed, ErrTimeout, c.timeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}

	return nil
}

// PublishString is a convenience method that publishes a string payload
// with the configured default QoS.
func (c *Client) PublishString(topic, payload string) error {
	return c.Publish(topic, []byte(payload), byte(c.cfg.QoS), false)
}
