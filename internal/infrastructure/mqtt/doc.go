// Package mqtt provides short-lived MQTT sessions for device actuation.
//
// Devices without remote-shell access are told to reload their rule
// configuration by a restart message on a fixed topic. Each notification
// opens its own session:
//
//	client, err := mqtt.Connect(cfg.MQTT, 10*time.Second)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Publish(cfg.MQTT.Restart.Topic, []byte(cfg.MQTT.Restart.Payload), 1, false)
//
// Publish returns once the broker has acknowledged the message, not when the
// device has received it.
//
// # Security Considerations
//
//   - TLS is required for production deployments (cfg.Broker.TLS=true)
//   - Credentials are validated against broker ACL
//   - Anonymous access is only for local development
package mqtt
