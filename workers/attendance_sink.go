package workers

import (
	"log"
	"path/filepath"
	"time"

	"github.com/campus-hub/attendance-backend/logger"
	"github.com/campus-hub/attendance-backend/media"
	"github.com/campus-hub/attendance-backend/models"
	"github.com/campus-hub/attendance-backend/recognition"
	"github.com/campus-hub/attendance-backend/repository"
)

// AttendanceSink persists accepted verifications: one database record, an
// optional CSV row, and a best-effort evidence thumbnail. It owns the record
// from the moment the verifier hands it over.
type AttendanceSink struct {
	Repo     repository.AttendanceRepositoryInterface
	CSV      *logger.CSVLogger // nil disables CSV logging
	Evidence *media.EvidenceStore
}

var _ recognition.AttendanceSink = (*AttendanceSink)(nil)

// MarkAttendance records one attendance event. The database write is the
// durable part; CSV and thumbnail failures are logged but do not fail the
// verification.
func (s *AttendanceSink) MarkAttendance(studentID, displayName string, sessionID *uint, evidencePath string, confidence int) error {
	record := &models.AttendanceRecord{
		StudentID:    studentID,
		StudentName:  displayName,
		SessionID:    sessionID,
		MarkedAt:     time.Now(),
		EvidencePath: filepath.Base(evidencePath),
		Confidence:   confidence,
	}

	if s.Evidence != nil {
		thumbName, err := s.Evidence.GenerateThumbnail(evidencePath)
		if err != nil {
			log.Printf("sink: failed to generate evidence thumbnail for %s: %v", evidencePath, err)
		} else {
			record.ThumbnailPath = thumbName
		}
	}

	if err := s.Repo.Create(record); err != nil {
		return err
	}

	if s.CSV != nil {
		if err := s.CSV.Log(displayName); err != nil {
			log.Printf("sink: failed to append CSV attendance row for %s: %v", displayName, err)
		}
	}

	return nil
}
