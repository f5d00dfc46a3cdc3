// AuthSentry - Authentication Security Monitoring and Threat Detection
// Copyright 2026 AuthSentry Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/authsentry/authsentry

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/authsentry/authsentry/internal/monitor"
)

// maxRequestBody bounds JSON request bodies.
const maxRequestBody = 1 << 20

// Handlers exposes the monitoring engine over HTTP.
type Handlers struct {
	monitor   *monitor.Monitor
	validate  *validator.Validate
	startedAt time.Time
}

// NewHandlers creates the handler set around the given engine.
func NewHandlers(m *monitor.Monitor) *Handlers {
	return &Handlers{
		monitor:   m,
		validate:  validator.New(),
		startedAt: time.Now().UTC(),
	}
}

// decodeAndValidate decodes the JSON body into dst and runs struct
// validation. It writes the error response itself and reports success.
func (h *Handlers) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_JSON", "Request body is not valid JSON", err)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return false
	}
	return true
}

// Health handles GET /api/v1/health.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":             "ok",
		"uptime_seconds":     int(time.Since(h.startedAt).Seconds()),
		"monitoring_enabled": h.monitor.Config().Enabled,
	})
}

type recordEventRequest struct {
	Type      string               `json:"type" validate:"required"`
	UserID    string               `json:"user_id" validate:"omitempty,uuid"`
	IPAddress string               `json:"ip_address" validate:"omitempty,ip"`
	UserAgent string               `json:"user_agent"`
	DeviceID  string               `json:"device_id"`
	Location  *monitor.GeoLocation `json:"location"`
	Details   map[string]any       `json:"details"`
	RequestID string               `json:"request_id"`
}

// RecordEvent handles POST /api/v1/security/events. External systems
// report events the engine cannot observe itself (permission denials,
// privilege escalations, data exfiltration).
func (h *Handlers) RecordEvent(w http.ResponseWriter, r *http.Request) {
	var req recordEventRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	eventType, ok := monitor.ParseEventType(req.Type)
	if !ok {
		respondError(w, http.StatusBadRequest, "UNKNOWN_EVENT_TYPE", "unknown event type: "+sanitizeLogValue(req.Type), nil)
		return
	}

	event := monitor.NewEvent(eventType)
	if req.UserID != "" {
		userID, parseErr := uuid.Parse(req.UserID)
		if parseErr != nil {
			respondError(w, http.StatusBadRequest, "INVALID_USER_ID", "user_id is not a valid uuid", nil)
			return
		}
		event = event.WithUser(userID)
	}
	if req.IPAddress != "" {
		event = event.WithIP(req.IPAddress)
	}
	if req.UserAgent != "" {
		event = event.WithUserAgent(req.UserAgent)
	}
	if req.DeviceID != "" {
		event = event.WithDevice(req.DeviceID)
	}
	if req.Location != nil {
		event = event.WithLocation(*req.Location)
	}
	if req.RequestID != "" {
		event = event.WithRequestID(req.RequestID)
	}
	for k, v := range req.Details {
		event = event.WithDetail(k, v)
	}

	h.monitor.RecordEvent(event)
	respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"event_id": event.ID,
		"severity": event.Severity,
	})
}

// ListEvents handles GET /api/v1/security/events.
func (h *Handlers) ListEvents(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 100)
	if limit < 1 || limit > 1000 {
		respondError(w, http.StatusBadRequest, "INVALID_LIMIT", "limit must be between 1 and 1000", nil)
		return
	}

	var eventType monitor.EventType
	if v := r.URL.Query().Get("type"); v != "" {
		parsed, ok := monitor.ParseEventType(v)
		if !ok {
			respondError(w, http.StatusBadRequest, "UNKNOWN_EVENT_TYPE", "unknown event type: "+sanitizeLogValue(v), nil)
			return
		}
		eventType = parsed
	}

	userID := uuid.Nil
	if v := r.URL.Query().Get("user_id"); v != "" {
		parsed, err := uuid.Parse(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "INVALID_USER_ID", "user_id is not a valid uuid", nil)
			return
		}
		userID = parsed
	}

	events := h.monitor.GetRecentEvents(eventType, userID, limit)
	respondList(w, http.StatusOK, events, len(events))
}

type loginAttemptRequest struct {
	UserID    string               `json:"user_id" validate:"omitempty,uuid"`
	IPAddress string               `json:"ip_address" validate:"required,ip"`
	Success   bool                 `json:"success"`
	UserAgent string               `json:"user_agent"`
	Location  *monitor.GeoLocation `json:"location"`
}

// RecordLoginAttempt handles POST /api/v1/security/login-attempts. The
// authentication service reports every attempt here; a non-null alert in
// the response means the attempt tripped the brute-force rule and the
// caller must deny the login.
func (h *Handlers) RecordLoginAttempt(w http.ResponseWriter, r *http.Request) {
	var req loginAttemptRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	userID := uuid.Nil
	if req.UserID != "" {
		parsed, err := uuid.Parse(req.UserID)
		if err != nil {
			respondError(w, http.StatusBadRequest, "INVALID_USER_ID", "user_id is not a valid uuid", nil)
			return
		}
		userID = parsed
	}

	alert := h.monitor.RecordLoginAttempt(userID, req.IPAddress, req.Success, req.UserAgent, req.Location)

	identifier := req.IPAddress
	if userID != uuid.Nil {
		identifier = userID.String()
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"alert":  alert,
		"locked": h.monitor.IsLocked(identifier),
	})
}

// ListAlerts handles GET /api/v1/security/alerts.
func (h *Handlers) ListAlerts(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 100)
	if limit < 1 || limit > 1000 {
		respondError(w, http.StatusBadRequest, "INVALID_LIMIT", "limit must be between 1 and 1000", nil)
		return
	}
	unacknowledgedOnly := r.URL.Query().Get("unacknowledged") == "true"

	alerts := h.monitor.GetAlerts(unacknowledgedOnly, limit)
	respondList(w, http.StatusOK, alerts, len(alerts))
}

type acknowledgeAlertRequest struct {
	AcknowledgedBy string `json:"acknowledged_by" validate:"required,uuid"`
}

// AcknowledgeAlert handles POST /api/v1/security/alerts/{id}/acknowledge.
func (h *Handlers) AcknowledgeAlert(w http.ResponseWriter, r *http.Request) {
	alertID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_ALERT_ID", "alert id is not a valid uuid", nil)
		return
	}

	var req acknowledgeAlertRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	by, err := uuid.Parse(req.AcknowledgedBy)
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_USER_ID", "acknowledged_by is not a valid uuid", nil)
		return
	}

	if !h.monitor.AcknowledgeAlert(alertID, by) {
		respondError(w, http.StatusNotFound, "ALERT_NOT_FOUND", "no alert with that id", nil)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"acknowledged": true})
}

// ResolveAlert handles POST /api/v1/security/alerts/{id}/resolve.
func (h *Handlers) ResolveAlert(w http.ResponseWriter, r *http.Request) {
	alertID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_ALERT_ID", "alert id is not a valid uuid", nil)
		return
	}

	if !h.monitor.ResolveAlert(alertID) {
		respondError(w, http.StatusNotFound, "ALERT_NOT_FOUND", "no alert with that id", nil)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"resolved": true})
}

// GetLockout handles GET /api/v1/security/lockouts/{identifier}.
func (h *Handlers) GetLockout(w http.ResponseWriter, r *http.Request) {
	identifier := chi.URLParam(r, "identifier")

	if !h.monitor.IsLocked(identifier) {
		respondError(w, http.StatusNotFound, "LOCKOUT_NOT_FOUND", "no active lockout for that identifier", nil)
		return
	}
	info, ok := h.monitor.GetLockoutInfo(identifier)
	if !ok {
		respondError(w, http.StatusNotFound, "LOCKOUT_NOT_FOUND", "no active lockout for that identifier", nil)
		return
	}
	respondJSON(w, http.StatusOK, info)
}

// Unlock handles DELETE /api/v1/security/lockouts/{identifier}.
func (h *Handlers) Unlock(w http.ResponseWriter, r *http.Request) {
	identifier := chi.URLParam(r, "identifier")

	if !h.monitor.Unlock(identifier) {
		respondError(w, http.StatusNotFound, "LOCKOUT_NOT_FOUND", "no lockout for that identifier", nil)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"unlocked": true})
}

type blockIPRequest struct {
	IPAddress       string `json:"ip_address" validate:"required,ip"`
	DurationMinutes int    `json:"duration_minutes" validate:"required,min=1"`
	Reason          string `json:"reason" validate:"required"`
}

// BlockIP handles POST /api/v1/security/blocked-ips.
func (h *Handlers) BlockIP(w http.ResponseWriter, r *http.Request) {
	var req blockIPRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	h.monitor.BlockIP(req.IPAddress, time.Duration(req.DurationMinutes)*time.Minute, req.Reason)
	respondJSON(w, http.StatusOK, map[string]interface{}{"blocked": true})
}

// GetBlockedIP handles GET /api/v1/security/blocked-ips/{ip}.
func (h *Handlers) GetBlockedIP(w http.ResponseWriter, r *http.Request) {
	ip := chi.URLParam(r, "ip")
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"ip_address": ip,
		"blocked":    h.monitor.IsIPBlocked(ip),
	})
}

// UnblockIP handles DELETE /api/v1/security/blocked-ips/{ip}.
func (h *Handlers) UnblockIP(w http.ResponseWriter, r *http.Request) {
	ip := chi.URLParam(r, "ip")

	if !h.monitor.UnblockIP(ip) {
		respondError(w, http.StatusNotFound, "BLOCK_NOT_FOUND", "no block for that ip", nil)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"unblocked": true})
}

// GetUserProfile handles GET /api/v1/security/profiles/{user_id}.
func (h *Handlers) GetUserProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "user_id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_USER_ID", "user_id is not a valid uuid", nil)
		return
	}

	profile := h.monitor.GetUserProfile(userID)
	if profile == nil {
		respondError(w, http.StatusNotFound, "PROFILE_NOT_FOUND", "user has never been observed", nil)
		return
	}
	respondJSON(w, http.StatusOK, profile)
}

// Cleanup handles POST /api/v1/security/cleanup, an operator-triggered
// sweep outside the scheduled maintenance interval.
func (h *Handlers) Cleanup(w http.ResponseWriter, r *http.Request) {
	removed := h.monitor.CleanupOldData()
	respondJSON(w, http.StatusOK, map[string]interface{}{"removed": removed})
}

// queryInt extracts an integer query parameter with a default.
func queryInt(r *http.Request, name string, def int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return -1
	}
	return n
}
