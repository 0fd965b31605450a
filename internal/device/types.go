package device

import (
	"encoding/json"
	"slices"
	"time"

	"github.com/nerrad567/gray-logic-roi/internal/infrastructure/database"
)

// Status is the reported stream state of a camera.
type Status string

// Known statuses. Upstream rows may carry other values; they are passed through.
const (
	StatusOnline  Status = "online"
	StatusOffline Status = "offline"
)

// TargetKind selects the channel used to tell a device its rules changed.
type TargetKind string

// Actuation channels.
const (
	TargetMQTT TargetKind = "mqtt"
	TargetSSH  TargetKind = "ssh"
)

// SSHDetails are the remote-shell connection details a camera row may carry.
// Zero Port or empty User fall back to the configured defaults.
type SSHDetails struct {
	Host string `json:"host"`
	Port int    `json:"port,omitempty"`
	User string `json:"user,omitempty"`
}

// ActuationTarget is decided once when a device record is read.
type ActuationTarget struct {
	Kind TargetKind  `json:"kind"`
	SSH  *SSHDetails `json:"ssh,omitempty"`
}

// MQTTTarget returns the publish-based target.
func MQTTTarget() ActuationTarget {
	return ActuationTarget{Kind: TargetMQTT}
}

// SSHTarget returns a remote-shell target, or the MQTT target when host is empty.
func SSHTarget(host string, port int, user string) ActuationTarget {
	if host == "" {
		return MQTTTarget()
	}
	return ActuationTarget{Kind: TargetSSH, SSH: &SSHDetails{Host: host, Port: port, User: user}}
}

// Device is a camera, either sourced from an upstream tenant schema
// (IsExternal, ReadOnly) or owned locally.
type Device struct {
	ID             string          `json:"id"`
	Tenant         string          `json:"tenant,omitempty"`
	Name           string          `json:"name" validate:"required,max=200"`
	RTSPURL        string          `json:"rtspUrl"`
	Status         Status          `json:"status"`
	Location       string          `json:"location,omitempty" validate:"max=200"`
	CameraSettings json.RawMessage `json:"cameraSettings,omitempty"`
	IsExternal     bool            `json:"isExternal"`
	ReadOnly       bool            `json:"readOnly"`

	// Schema is the upstream schema an external device was read from.
	Schema string `json:"schema,omitempty"`

	Target ActuationTarget `json:"-"`

	CreatedAt time.Time `json:"created_at,omitzero"`
	UpdatedAt time.Time `json:"updated_at,omitzero"`
}

// ConfigSchema returns the schema holding this device's rule document.
func (d *Device) ConfigSchema() string {
	if d.IsExternal && d.Schema != "" {
		return d.Schema
	}
	return database.MainSchema
}

// DeepCopy returns an independent copy of d.
func (d *Device) DeepCopy() *Device {
	if d == nil {
		return nil
	}
	cp := *d
	cp.CameraSettings = slices.Clone(d.CameraSettings)
	if d.Target.SSH != nil {
		ssh := *d.Target.SSH
		cp.Target.SSH = &ssh
	}
	return &cp
}
