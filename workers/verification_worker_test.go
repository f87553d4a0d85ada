package workers

import (
	"image"
	"path/filepath"
	"testing"
	"time"

	"github.com/campus-hub/attendance-backend/logger"
	"github.com/campus-hub/attendance-backend/models"
	"github.com/campus-hub/attendance-backend/recognition"
)

type fakeSource struct {
	opened bool
}

func (s *fakeSource) IsOpened() bool            { return s.opened }
func (s *fakeSource) Read() (image.Image, bool) { return nil, false }

type fakeLocator struct{}

func (l *fakeLocator) Locate(frame image.Image) ([]recognition.Probe, error) { return nil, nil }

type fakeEvidence struct{}

func (e *fakeEvidence) Save(frame image.Image, identity string, when time.Time) (string, error) {
	return "/evidence/" + identity + ".jpg", nil
}

type fakeAttendanceRepo struct {
	created []*models.AttendanceRecord
}

func (r *fakeAttendanceRepo) Create(record *models.AttendanceRecord) error {
	r.created = append(r.created, record)
	return nil
}
func (r *fakeAttendanceRepo) GetByID(id uint) (*models.AttendanceRecord, error) { return nil, nil }
func (r *fakeAttendanceRepo) ListByStudent(studentID string) ([]models.AttendanceRecord, error) {
	return nil, nil
}
func (r *fakeAttendanceRepo) ListBySession(sessionID uint) ([]models.AttendanceRecord, error) {
	return nil, nil
}
func (r *fakeAttendanceRepo) ListSince(since time.Time) ([]models.AttendanceRecord, error) {
	return nil, nil
}
func (r *fakeAttendanceRepo) SetThumbnail(id uint, thumbnailPath string) error { return nil }

func waitForTerminal(t *testing.T, proc *VerificationProcessor, jobID string) VerificationJob {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		job, ok := proc.GetJob(jobID)
		if !ok {
			t.Fatalf("job %s disappeared", jobID)
		}
		if job.Status == StatusSucceeded || job.Status == StatusFailed {
			return job
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job %s did not finish in time", jobID)
	return VerificationJob{}
}

func TestProcessorRunsJobToTerminalState(t *testing.T) {
	sink := &AttendanceSink{Repo: &fakeAttendanceRepo{}}
	verifier := recognition.NewVerifier(&fakeSource{opened: false}, &fakeLocator{}, &fakeEvidence{}, sink, recognition.NewGate(50), 3, 0)
	proc := NewVerificationProcessor(verifier, nil, 4)
	defer proc.Stop()

	job, err := proc.Enqueue("S001", "alice", nil)
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	done := waitForTerminal(t, proc, job.ID)
	if done.Status != StatusFailed {
		t.Errorf("status = %q; want failed with a closed camera", done.Status)
	}
	if done.Message != "Camera not started." {
		t.Errorf("message = %q; want camera-not-started", done.Message)
	}
	if done.FinishedAt == nil {
		t.Error("FinishedAt was not set on a terminal job")
	}
}

func TestProcessorAllowsRequeueAfterTerminal(t *testing.T) {
	sink := &AttendanceSink{Repo: &fakeAttendanceRepo{}}
	verifier := recognition.NewVerifier(&fakeSource{opened: false}, &fakeLocator{}, &fakeEvidence{}, sink, recognition.NewGate(50), 3, 0)
	proc := NewVerificationProcessor(verifier, nil, 4)
	defer proc.Stop()

	job1, err := proc.Enqueue("S001", "alice", nil)
	if err != nil {
		t.Fatalf("first Enqueue failed: %v", err)
	}
	waitForTerminal(t, proc, job1.ID)

	job2, err := proc.Enqueue("S001", "alice", nil)
	if err != nil {
		t.Fatalf("Enqueue after terminal job failed: %v", err)
	}
	if job2.ID == job1.ID {
		t.Error("second job reused the first job's ID")
	}
}

func TestAttendanceSinkCreatesRecordAndCSVRow(t *testing.T) {
	repo := &fakeAttendanceRepo{}
	csvLog, err := logger.NewCSVLogger(filepath.Join(t.TempDir(), "attendance.csv"))
	if err != nil {
		t.Fatalf("NewCSVLogger failed: %v", err)
	}
	sink := &AttendanceSink{Repo: repo, CSV: csvLog}

	sessionID := uint(7)
	err = sink.MarkAttendance("S001", "alice", &sessionID, "/storage/attendance_photos/S001_20260314_093015_ab12cd34.jpg", 70)
	if err != nil {
		t.Fatalf("MarkAttendance failed: %v", err)
	}

	if len(repo.created) != 1 {
		t.Fatalf("records created = %d; want 1", len(repo.created))
	}
	record := repo.created[0]
	if record.StudentID != "S001" || record.StudentName != "alice" {
		t.Errorf("record identity = (%q, %q); want (S001, alice)", record.StudentID, record.StudentName)
	}
	if record.Confidence != 70 {
		t.Errorf("record confidence = %d; want 70", record.Confidence)
	}
	if record.EvidencePath != "S001_20260314_093015_ab12cd34.jpg" {
		t.Errorf("record evidence path = %q; want bare filename", record.EvidencePath)
	}
	if record.SessionID == nil || *record.SessionID != 7 {
		t.Errorf("record session = %v; want 7", record.SessionID)
	}
}
