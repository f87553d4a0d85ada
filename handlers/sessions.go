package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"

	"github.com/campus-hub/attendance-backend/models"
	"github.com/campus-hub/attendance-backend/repository"
)

type SessionHandler struct {
	SessionRepo    repository.SessionRepositoryInterface
	AttendanceRepo repository.AttendanceRepositoryInterface
}

type sessionPayload struct {
	Name       string     `json:"name"`
	CourseCode string     `json:"course_code"`
	StartsAt   *time.Time `json:"starts_at"`
	EndsAt     *time.Time `json:"ends_at"`
}

// CreateSession creates a new class session.
func (h *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var payload sessionPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_payload", "Invalid request payload")
		return
	}
	if payload.Name == "" {
		WriteAPIError(w, http.StatusBadRequest, "missing_fields", "name is required")
		return
	}

	session := &models.Session{
		Name:       payload.Name,
		CourseCode: payload.CourseCode,
		StartsAt:   time.Now(),
		EndsAt:     payload.EndsAt,
	}
	if payload.StartsAt != nil {
		session.StartsAt = *payload.StartsAt
	}

	if err := h.SessionRepo.Create(session); err != nil {
		WriteAPIError(w, http.StatusInternalServerError, "database_error", "Failed to create session")
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

// ListSessions returns all sessions, newest first.
func (h *SessionHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.SessionRepo.ListAll()
	if err != nil {
		WriteAPIError(w, http.StatusInternalServerError, "database_error", "Failed to list sessions")
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

// GetSession returns one session by ID.
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionIDParam(w, r)
	if !ok {
		return
	}

	session, err := h.SessionRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			WriteAPIError(w, http.StatusNotFound, "not_found", "Session not found")
			return
		}
		WriteAPIError(w, http.StatusInternalServerError, "database_error", "Failed to get session")
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// UpdateSession modifies an existing session's details.
func (h *SessionHandler) UpdateSession(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionIDParam(w, r)
	if !ok {
		return
	}

	session, err := h.SessionRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			WriteAPIError(w, http.StatusNotFound, "not_found", "Session not found")
			return
		}
		WriteAPIError(w, http.StatusInternalServerError, "database_error", "Failed to get session")
		return
	}

	var payload sessionPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_payload", "Invalid request payload")
		return
	}
	if payload.Name != "" {
		session.Name = payload.Name
	}
	if payload.CourseCode != "" {
		session.CourseCode = payload.CourseCode
	}
	if payload.StartsAt != nil {
		session.StartsAt = *payload.StartsAt
	}
	if payload.EndsAt != nil {
		session.EndsAt = payload.EndsAt
	}

	if err := h.SessionRepo.Update(session); err != nil {
		WriteAPIError(w, http.StatusInternalServerError, "database_error", "Failed to update session")
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// DeleteSession removes a session. Attendance records keep their session_id
// but the association will no longer resolve.
func (h *SessionHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionIDParam(w, r)
	if !ok {
		return
	}

	if err := h.SessionRepo.Delete(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			WriteAPIError(w, http.StatusNotFound, "not_found", "Session not found")
			return
		}
		WriteAPIError(w, http.StatusInternalServerError, "database_error", "Failed to delete session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetSessionAttendance returns the attendance records marked in one session.
func (h *SessionHandler) GetSessionAttendance(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionIDParam(w, r)
	if !ok {
		return
	}

	records, err := h.AttendanceRepo.ListBySession(id)
	if err != nil {
		WriteAPIError(w, http.StatusInternalServerError, "database_error", "Failed to list session attendance")
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func sessionIDParam(w http.ResponseWriter, r *http.Request) (uint, bool) {
	raw := chi.URLParam(r, "session_id")
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_id", "Invalid session ID")
		return 0, false
	}
	return uint(id), true
}
