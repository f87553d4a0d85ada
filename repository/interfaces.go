package repository

import (
	"time"

	"github.com/campus-hub/attendance-backend/models"
)

// StudentRepositoryInterface defines data access for Student entities
type StudentRepositoryInterface interface {
	Create(student *models.Student) error
	GetByID(id uint) (*models.Student, error)
	GetByStudentID(studentID string) (*models.Student, error)
	ListAll() ([]models.Student, error)
	Update(student *models.Student) error
	Delete(id uint) error
}

// SessionRepositoryInterface defines data access for Session entities
type SessionRepositoryInterface interface {
	Create(session *models.Session) error
	GetByID(id uint) (*models.Session, error)
	ListAll() ([]models.Session, error)
	Update(session *models.Session) error
	Delete(id uint) error
}

// AttendanceRepositoryInterface defines data access for AttendanceRecord entities
type AttendanceRepositoryInterface interface {
	Create(record *models.AttendanceRecord) error
	GetByID(id uint) (*models.AttendanceRecord, error)
	ListByStudent(studentID string) ([]models.AttendanceRecord, error)
	ListBySession(sessionID uint) ([]models.AttendanceRecord, error)
	ListSince(since time.Time) ([]models.AttendanceRecord, error)
	SetThumbnail(id uint, thumbnailPath string) error
}
