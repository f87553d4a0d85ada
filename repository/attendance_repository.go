package repository

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/campus-hub/attendance-backend/models"
)

// AttendanceRepository handles database operations for AttendanceRecord entities
type AttendanceRepository struct {
	DB *gorm.DB
}

var _ AttendanceRepositoryInterface = (*AttendanceRepository)(nil)

// NewAttendanceRepository creates a new instance of AttendanceRepository
func NewAttendanceRepository(db *gorm.DB) *AttendanceRepository {
	return &AttendanceRepository{DB: db}
}

// Create creates a new attendance record in the database
func (r *AttendanceRepository) Create(record *models.AttendanceRecord) error {
	if record.MarkedAt.IsZero() {
		record.MarkedAt = time.Now()
	}
	err := r.DB.Create(record).Error
	if err != nil {
		return fmt.Errorf("failed to create attendance record for %s: %w", record.StudentID, err)
	}
	return nil
}

// GetByID retrieves an attendance record by its ID, preloading the session
func (r *AttendanceRepository) GetByID(id uint) (*models.AttendanceRecord, error) {
	var record models.AttendanceRecord
	err := r.DB.Preload("Session").First(&record, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get attendance record by ID %d: %w", id, err)
	}
	return &record, nil
}

// ListByStudent retrieves all attendance records for a student, newest first
func (r *AttendanceRepository) ListByStudent(studentID string) ([]models.AttendanceRecord, error) {
	var records []models.AttendanceRecord
	err := r.DB.Preload("Session").
		Where("student_id = ?", studentID).
		Order("marked_at DESC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance for student %s: %w", studentID, err)
	}
	return records, nil
}

// ListBySession retrieves all attendance records for a session
func (r *AttendanceRepository) ListBySession(sessionID uint) ([]models.AttendanceRecord, error) {
	var records []models.AttendanceRecord
	err := r.DB.Where("session_id = ?", sessionID).
		Order("marked_at ASC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance for session %d: %w", sessionID, err)
	}
	return records, nil
}

// ListSince retrieves all attendance records marked at or after the given time
func (r *AttendanceRepository) ListSince(since time.Time) ([]models.AttendanceRecord, error) {
	var records []models.AttendanceRecord
	err := r.DB.Preload("Session").
		Where("marked_at >= ?", since).
		Order("marked_at DESC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance since %s: %w", since, err)
	}
	return records, nil
}

// SetThumbnail records the generated evidence thumbnail path for a record
func (r *AttendanceRepository) SetThumbnail(id uint, thumbnailPath string) error {
	result := r.DB.Model(&models.AttendanceRecord{}).
		Where("id = ?", id).
		Update("thumbnail_path", thumbnailPath)
	if result.Error != nil {
		return fmt.Errorf("failed to set thumbnail for attendance record %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
