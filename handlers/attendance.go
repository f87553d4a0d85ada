package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/facette/natsort"
	"github.com/go-chi/chi/v5"

	"github.com/campus-hub/attendance-backend/database"
	"github.com/campus-hub/attendance-backend/repository"
	"github.com/campus-hub/attendance-backend/workers"
)

type AttendanceHandler struct {
	AttendanceRepo repository.AttendanceRepositoryInterface
	Processor      *workers.VerificationProcessor
	ReportsDB      *sql.DB
	EvidenceDir    string
}

type markPayload struct {
	SessionID *uint `json:"session_id"`
}

// MarkAttendance enqueues a verification run for the authenticated student.
// The run happens on the verification worker; clients poll the job or listen
// on the websocket for progress.
func (h *AttendanceHandler) MarkAttendance(w http.ResponseWriter, r *http.Request) {
	student, ok := StudentFromContext(r.Context())
	if !ok {
		WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Student not found in context")
		return
	}

	var payload markPayload
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			WriteAPIError(w, http.StatusBadRequest, "invalid_payload", "Invalid request payload")
			return
		}
	}

	job, err := h.Processor.Enqueue(student.StudentID, student.Name, payload.SessionID)
	if err != nil {
		WriteAPIError(w, http.StatusConflict, "verification_busy", err.Error())
		return
	}

	writeJSON(w, http.StatusAccepted, job)
}

// GetJob returns the state of one verification job.
func (h *AttendanceHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "job_id")
	job, ok := h.Processor.GetJob(jobID)
	if !ok {
		WriteAPIError(w, http.StatusNotFound, "not_found", "Verification job not found")
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// History returns the authenticated student's attendance records, newest first.
func (h *AttendanceHandler) History(w http.ResponseWriter, r *http.Request) {
	student, ok := StudentFromContext(r.Context())
	if !ok {
		WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Student not found in context")
		return
	}

	records, err := h.AttendanceRepo.ListByStudent(student.StudentID)
	if err != nil {
		WriteAPIError(w, http.StatusInternalServerError, "database_error", "Failed to list attendance history")
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// ListEvidence returns the authenticated student's evidence snapshot
// filenames in natural order.
func (h *AttendanceHandler) ListEvidence(w http.ResponseWriter, r *http.Request) {
	student, ok := StudentFromContext(r.Context())
	if !ok {
		WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Student not found in context")
		return
	}

	entries, err := os.ReadDir(h.EvidenceDir)
	if err != nil {
		WriteAPIError(w, http.StatusInternalServerError, "storage_error", "Failed to read evidence directory")
		return
	}

	prefix := student.StudentID + "_"
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasPrefix(entry.Name(), prefix) {
			names = append(names, entry.Name())
		}
	}
	natsort.Sort(names)

	writeJSON(w, http.StatusOK, map[string]interface{}{"files": names})
}

// SessionSummaries returns per-session attendance aggregates.
func (h *AttendanceHandler) SessionSummaries(w http.ResponseWriter, r *http.Request) {
	summaries, err := database.SessionSummaries(h.ReportsDB)
	if err != nil {
		WriteAPIError(w, http.StatusInternalServerError, "database_error", "Failed to compute session summaries")
		return
	}
	writeJSON(w, http.StatusOK, summaries)
}

// DailyCounts returns attendance counts per day for the requested window.
func (h *AttendanceHandler) DailyCounts(w http.ResponseWriter, r *http.Request) {
	days := 30
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			WriteAPIError(w, http.StatusBadRequest, "invalid_days", "days must be a positive integer")
			return
		}
		days = parsed
	}

	counts, err := database.DailyCounts(h.ReportsDB, days)
	if err != nil {
		WriteAPIError(w, http.StatusInternalServerError, "database_error", "Failed to compute daily counts")
		return
	}
	writeJSON(w, http.StatusOK, counts)
}
