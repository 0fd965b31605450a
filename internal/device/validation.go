package device

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nerrad567/gray-logic-roi/internal/validation"
)

// ValidateDevice checks a locally owned device before it is stored.
func ValidateDevice(d *Device) error {
	if d == nil {
		return fmt.Errorf("%w: nil device", ErrInvalidDevice)
	}
	d.Name = strings.TrimSpace(d.Name)

	if err := validation.Struct(d); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDevice, err)
	}
	if d.RTSPURL != "" && !strings.HasPrefix(d.RTSPURL, "rtsp://") && !strings.HasPrefix(d.RTSPURL, "rtsps://") {
		return fmt.Errorf("%w: rtspUrl must use rtsp:// or rtsps://", ErrInvalidDevice)
	}
	if len(d.CameraSettings) > 0 && !json.Valid(d.CameraSettings) {
		return fmt.Errorf("%w: cameraSettings is not valid JSON", ErrInvalidDevice)
	}
	if d.Target.Kind == TargetSSH && (d.Target.SSH == nil || d.Target.SSH.Host == "") {
		return fmt.Errorf("%w: ssh target needs a host", ErrInvalidDevice)
	}
	if d.Status == "" {
		d.Status = StatusOffline
	}
	return nil
}
