package actuation

import (
	"context"
	"fmt"
	"time"

	"github.com/nerrad567/gray-logic-roi/internal/device"
	"github.com/nerrad567/gray-logic-roi/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-roi/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-roi/internal/infrastructure/metrics"
	"github.com/nerrad567/gray-logic-roi/internal/infrastructure/mqtt"
)

const defaultConnectTimeout = 10 * time.Second

// Logger defines the logging interface used by the Dispatcher.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// publisher is the slice of the MQTT client the dispatcher needs.
type publisher interface {
	PublishString(topic, payload string) error
	Close() error
}

// connectFunc opens a fresh broker session for one notification.
type connectFunc func(cfg config.MQTTConfig, timeout time.Duration) (publisher, error)

func connectMQTT(cfg config.MQTTConfig, timeout time.Duration) (publisher, error) {
	client, err := mqtt.Connect(cfg, timeout)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// Dispatcher tells a device its configuration changed.
//
// The channel comes from the device's ActuationTarget, which the device
// directory decides once when it reads the record.
type Dispatcher struct {
	enabled bool
	timeout time.Duration
	ssh     config.SSHConfig
	mqttCfg config.MQTTConfig
	connect connectFunc
	influx  *influxdb.Client
	logger  Logger
}

// NewDispatcher creates a dispatcher. influx may be nil.
func NewDispatcher(cfg *config.Config, influx *influxdb.Client) *Dispatcher {
	timeout := cfg.Actuation.ConnectTimeoutDuration()
	if timeout <= 0 {
		timeout = defaultConnectTimeout
	}
	return &Dispatcher{
		enabled: cfg.Actuation.Enabled,
		timeout: timeout,
		ssh:     cfg.SSH,
		mqttCfg: cfg.MQTT,
		connect: connectMQTT,
		influx:  influx,
		logger:  noopLogger{},
	}
}

// SetLogger sets the logger for the dispatcher.
func (d *Dispatcher) SetLogger(logger Logger) {
	d.logger = logger
}

// RestartDevice notifies dev over its actuation channel. Every network step
// is bounded by the connect timeout. A disabled dispatcher succeeds without
// contacting the device.
func (d *Dispatcher) RestartDevice(ctx context.Context, dev *device.Device) error {
	if dev == nil {
		return ErrNoDevice
	}
	if !d.enabled {
		d.logger.Debug("actuation disabled, skipping restart", "device_id", dev.ID)
		return nil
	}

	channel := metrics.ChannelMQTT
	if dev.Target.Kind == device.TargetSSH && dev.Target.SSH != nil {
		channel = metrics.ChannelSSH
	}

	start := time.Now()
	var err error
	if channel == metrics.ChannelSSH {
		err = d.restartSSH(ctx, dev.Target.SSH)
	} else {
		err = d.restartMQTT()
	}
	elapsed := time.Since(start)

	metrics.RecordActuation(channel, err == nil)
	d.influx.WriteActuation(dev.ID, channel, err == nil, elapsed)

	if err != nil {
		d.logger.Warn("device restart failed",
			"device_id", dev.ID,
			"channel", channel,
			"error", err,
		)
		return err
	}
	d.logger.Info("device restart sent", "device_id", dev.ID, "channel", channel, "duration", elapsed.String())
	return nil
}

// restartMQTT publishes the fixed restart message on a dedicated session and
// waits for the broker's acknowledgement. The session is closed on every path.
func (d *Dispatcher) restartMQTT() error {
	client, err := d.connect(d.mqttCfg, d.timeout)
	if err != nil {
		return fmt.Errorf("%w: mqtt connect: %w", ErrActuationFailed, err)
	}
	defer func() {
		if cerr := client.Close(); cerr != nil {
			d.logger.Debug("closing mqtt session", "error", cerr)
		}
	}()

	topic := d.mqttCfg.Restart.Topic
	if topic == "" {
		topic = mqtt.Topics{}.Restart()
	}
	if err := client.PublishString(topic, d.mqttCfg.Restart.Payload); err != nil {
		return fmt.Errorf("%w: mqtt publish: %w", ErrActuationFailed, err)
	}
	return nil
}
