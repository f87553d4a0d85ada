package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"

	"github.com/campus-hub/attendance-backend/models"
	"github.com/campus-hub/attendance-backend/repository"
)

type AuthHandler struct {
	StudentRepo repository.StudentRepositoryInterface
	JWTSecret   []byte
	ExpiryHours int
}

func NewAuthHandler(studentRepo repository.StudentRepositoryInterface, jwtSecret string, expiryHours int) *AuthHandler {
	if expiryHours <= 0 {
		expiryHours = 24
	}
	return &AuthHandler{
		StudentRepo: studentRepo,
		JWTSecret:   []byte(jwtSecret),
		ExpiryHours: expiryHours,
	}
}

type LoginPayload struct {
	StudentID string `json:"student_id"`
	Password  string `json:"password"`
}

type LoginResponse struct {
	Token     string         `json:"token"`
	Student   models.Student `json:"student"`
	ExpiresAt time.Time      `json:"expires_at"`
}

// Login authenticates a student and returns a signed JWT.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload LoginPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_payload", "Invalid request payload")
		return
	}

	student, err := h.StudentRepo.GetByStudentID(payload.StudentID)
	if err != nil {
		WriteAPIError(w, http.StatusUnauthorized, "invalid_credentials", "Invalid student ID or password")
		return
	}

	if !student.CheckPassword(payload.Password) {
		WriteAPIError(w, http.StatusUnauthorized, "invalid_credentials", "Invalid student ID or password")
		return
	}

	expirationTime := time.Now().Add(time.Duration(h.ExpiryHours) * time.Hour)
	claims := &jwt.RegisteredClaims{
		Subject:   student.StudentID,
		ExpiresAt: jwt.NewNumericDate(expirationTime),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		Issuer:    "attendance-backend",
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(h.JWTSecret)
	if err != nil {
		WriteAPIError(w, http.StatusInternalServerError, "token_error", "Failed to generate token")
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{
		Token:     tokenString,
		Student:   *student,
		ExpiresAt: expirationTime,
	})
}

type RegisterPayload struct {
	StudentID string `json:"student_id"`
	Name      string `json:"name"`
	ClassName string `json:"class_name"`
	Password  string `json:"password"`
}

// Register creates a new student account. The name must match the gallery
// label used at enrollment or verification will never accept them.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload RegisterPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_payload", "Invalid request payload")
		return
	}

	if payload.StudentID == "" || payload.Name == "" || payload.Password == "" {
		WriteAPIError(w, http.StatusBadRequest, "missing_fields", "student_id, name and password are required")
		return
	}

	if _, err := h.StudentRepo.GetByStudentID(payload.StudentID); err == nil {
		WriteAPIError(w, http.StatusConflict, "already_registered", "A student with this ID already exists")
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		WriteAPIError(w, http.StatusInternalServerError, "database_error", "Failed to check existing registration")
		return
	}

	student := &models.Student{
		StudentID: payload.StudentID,
		Name:      payload.Name,
		ClassName: payload.ClassName,
	}
	if err := student.SetPassword(payload.Password); err != nil {
		WriteAPIError(w, http.StatusInternalServerError, "password_error", "Failed to hash password")
		return
	}

	if err := h.StudentRepo.Create(student); err != nil {
		WriteAPIError(w, http.StatusInternalServerError, "database_error", "Failed to create student")
		return
	}

	writeJSON(w, http.StatusCreated, student)
}

// Me returns the authenticated student's profile.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	student, ok := StudentFromContext(r.Context())
	if !ok {
		WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Student not found in context")
		return
	}
	writeJSON(w, http.StatusOK, student)
}
