package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/campus-hub/attendance-backend/models"
)

// StudentRepository handles database operations for Student entities
type StudentRepository struct {
	DB *gorm.DB
}

// Ensure StudentRepository implements StudentRepositoryInterface
var _ StudentRepositoryInterface = (*StudentRepository)(nil)

// NewStudentRepository creates a new instance of StudentRepository
func NewStudentRepository(db *gorm.DB) *StudentRepository {
	return &StudentRepository{DB: db}
}

// Create creates a new student record in the database
func (r *StudentRepository) Create(student *models.Student) error {
	err := r.DB.Create(student).Error
	if err != nil {
		return fmt.Errorf("failed to create student %s: %w", student.StudentID, err)
	}
	return nil
}

// GetByID retrieves a student by their database ID
func (r *StudentRepository) GetByID(id uint) (*models.Student, error) {
	var student models.Student
	err := r.DB.First(&student, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get student by ID %d: %w", id, err)
	}
	return &student, nil
}

// GetByStudentID retrieves a student by their institution identifier
func (r *StudentRepository) GetByStudentID(studentID string) (*models.Student, error) {
	var student models.Student
	err := r.DB.Where("student_id = ?", studentID).First(&student).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get student %s: %w", studentID, err)
	}
	return &student, nil
}

// ListAll retrieves all students ordered by name
func (r *StudentRepository) ListAll() ([]models.Student, error) {
	var students []models.Student
	err := r.DB.Order("name ASC").Find(&students).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}
	return students, nil
}

// Update updates an existing student
func (r *StudentRepository) Update(student *models.Student) error {
	result := r.DB.Save(student)
	if result.Error != nil {
		return fmt.Errorf("failed to update student %s: %w", student.StudentID, result.Error)
	}
	return nil
}

// Delete removes a student by their database ID
func (r *StudentRepository) Delete(id uint) error {
	result := r.DB.Delete(&models.Student{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete student ID %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
