package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Student represents an enrolled student who can log in and mark attendance.
type Student struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	StudentID    string    `json:"student_id" gorm:"uniqueIndex;not null"` // institution-issued identifier, used in evidence filenames
	Name         string    `json:"name" gorm:"not null"`                   // must match the enrolled gallery label exactly
	ClassName    string    `json:"class_name"`
	PasswordHash string    `json:"-" gorm:"not null"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// SetPassword hashes the given password and sets it on the student model.
func (s *Student) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	s.PasswordHash = string(hashedPassword)
	return nil
}

// CheckPassword verifies if the given password matches the student's hashed password.
func (s *Student) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(s.PasswordHash), []byte(password))
	return err == nil
}
