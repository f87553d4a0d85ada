package models

import "time"

// AttendanceRecord is one accepted verification: who was seen, when, with
// what confidence, and the snapshot that proves it. Records are written once
// by the verification engine and never updated.
type AttendanceRecord struct {
	ID          uint     `json:"id" gorm:"primaryKey"`
	StudentID   string   `json:"student_id" gorm:"index;not null"` // institution identifier, matches Student.StudentID
	StudentName string   `json:"student_name" gorm:"not null"`
	SessionID   *uint    `json:"session_id,omitempty" gorm:"index"`
	Session     *Session `json:"session,omitempty" gorm:"foreignKey:SessionID"`

	MarkedAt      time.Time `json:"marked_at" gorm:"index;not null"`
	EvidencePath  string    `json:"evidence_path" gorm:"not null"` // snapshot filename under the evidence directory
	ThumbnailPath string    `json:"thumbnail_path"`                // optional preview, generated after the fact
	Confidence    int       `json:"confidence" gorm:"not null"`    // 0-100 score at the moment of acceptance

	CreatedAt time.Time `json:"created_at"`
}
