package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/gray-logic-roi/internal/audit"
	"github.com/nerrad567/gray-logic-roi/internal/device"
)

// deviceRequest is the writable part of a local device. SSH, when given,
// makes the device's actuation channel a remote shell.
type deviceRequest struct {
	ID             string             `json:"id,omitempty"`
	Name           string             `json:"name"`
	RTSPURL        string             `json:"rtspUrl"`
	Status         device.Status      `json:"status,omitempty"`
	Location       string             `json:"location,omitempty"`
	CameraSettings json.RawMessage    `json:"cameraSettings,omitempty"`
	SSH            *device.SSHDetails `json:"ssh,omitempty"`
}

// devicePatch carries only the fields a PATCH changes.
type devicePatch struct {
	Name           *string            `json:"name"`
	RTSPURL        *string            `json:"rtspUrl"`
	Status         *device.Status     `json:"status"`
	Location       *string            `json:"location"`
	CameraSettings json.RawMessage    `json:"cameraSettings"`
	SSH            *device.SSHDetails `json:"ssh"`
}

// handleListDevices returns the caller's devices: upstream cameras first,
// then local ones.
func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())

	devices, err := s.devices.FindAll(r.Context(), id.Tenant)
	if err != nil {
		s.writeServiceError(w, err, "failed to list devices")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"devices": devices, "count": len(devices)})
}

// handleGetDevice returns a single device by ID.
func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	dev, ok := s.lookupDevice(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, dev)
}

// handleCreateDevice creates a new local device.
func (s *Server) handleCreateDevice(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())

	var req deviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	dev := &device.Device{
		ID:             req.ID,
		Tenant:         id.Tenant,
		Name:           req.Name,
		RTSPURL:        req.RTSPURL,
		Status:         req.Status,
		Location:       req.Location,
		CameraSettings: req.CameraSettings,
		Target:         targetFor(req.SSH),
	}
	if err := s.devices.Create(r.Context(), dev); err != nil {
		s.writeServiceError(w, err, "failed to create device")
		return
	}

	s.auditLog(audit.ActionCreate, id.Tenant, dev.ID, id.Subject, map[string]any{"name": dev.Name})
	writeJSON(w, http.StatusCreated, dev)
}

// handleUpdateDevice partially updates a local device.
func (s *Server) handleUpdateDevice(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())

	existing, ok := s.lookupDevice(w, r)
	if !ok {
		return
	}

	var patch devicePatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	patch.apply(existing)

	if err := s.devices.Update(r.Context(), existing); err != nil {
		s.writeServiceError(w, err, "failed to update device")
		return
	}

	s.auditLog(audit.ActionUpdate, id.Tenant, existing.ID, id.Subject, nil)
	writeJSON(w, http.StatusOK, existing)
}

// handleDeleteDevice removes a local device by ID.
func (s *Server) handleDeleteDevice(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())
	deviceID := chi.URLParam(r, "id")

	if err := s.devices.Delete(r.Context(), id.Tenant, deviceID); err != nil {
		s.writeServiceError(w, err, "failed to delete device")
		return
	}

	s.auditLog(audit.ActionDelete, id.Tenant, deviceID, id.Subject, nil)
	w.WriteHeader(http.StatusNoContent)
}

// lookupDevice resolves the {id} URL parameter for the caller's tenant,
// writing the error response itself when it fails.
func (s *Server) lookupDevice(w http.ResponseWriter, r *http.Request) (*device.Device, bool) {
	id, _ := identityFrom(r.Context())

	dev, err := s.devices.FindByID(r.Context(), id.Tenant, chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, err, "failed to get device")
		return nil, false
	}
	return dev, true
}

func (p devicePatch) apply(dev *device.Device) {
	if p.Name != nil {
		dev.Name = *p.Name
	}
	if p.RTSPURL != nil {
		dev.RTSPURL = *p.RTSPURL
	}
	if p.Status != nil {
		dev.Status = *p.Status
	}
	if p.Location != nil {
		dev.Location = *p.Location
	}
	if p.CameraSettings != nil {
		dev.CameraSettings = p.CameraSettings
	}
	if p.SSH != nil {
		dev.Target = targetFor(p.SSH)
	}
}

// targetFor picks the actuation channel for a local device.
func targetFor(ssh *device.SSHDetails) device.ActuationTarget {
	if ssh == nil {
		return device.MQTTTarget()
	}
	return device.SSHTarget(ssh.Host, ssh.Port, ssh.User)
}
