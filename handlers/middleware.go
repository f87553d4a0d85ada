package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/campus-hub/attendance-backend/models"
	"github.com/campus-hub/attendance-backend/repository"
)

// ContextKey is a custom type for context keys to avoid collisions.
type ContextKey string

const (
	// StudentContextKey is the key used to store the student in the request context.
	StudentContextKey ContextKey = "student"
)

// StudentFromContext extracts the authenticated student set by AuthMiddleware.
func StudentFromContext(ctx context.Context) (*models.Student, bool) {
	student, ok := ctx.Value(StudentContextKey).(*models.Student)
	return student, ok && student != nil
}

// AuthMiddleware creates a middleware handler for JWT authentication. It
// verifies the token and, if valid, fetches the student and adds them to the
// request context.
func AuthMiddleware(studentRepo repository.StudentRepositoryInterface, jwtSecret []byte, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			WriteAPIError(w, http.StatusUnauthorized, "missing_token", "Authorization header required")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			WriteAPIError(w, http.StatusUnauthorized, "malformed_token", "Authorization header format must be Bearer {token}")
			return
		}
		tokenString := parts[1]

		claims := &jwt.RegisteredClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return jwtSecret, nil
		})

		if err != nil {
			if errors.Is(err, jwt.ErrSignatureInvalid) {
				WriteAPIError(w, http.StatusUnauthorized, "invalid_signature", "Invalid token signature")
				return
			}
			WriteAPIError(w, http.StatusUnauthorized, "invalid_token", "Invalid token")
			return
		}

		if !token.Valid {
			WriteAPIError(w, http.StatusUnauthorized, "invalid_token", "Invalid token")
			return
		}

		student, err := studentRepo.GetByStudentID(claims.Subject)
		if err != nil {
			// the student may have been deleted after the token was issued
			WriteAPIError(w, http.StatusUnauthorized, "unknown_student", "Student not found")
			return
		}

		ctx := context.WithValue(r.Context(), StudentContextKey, student)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
