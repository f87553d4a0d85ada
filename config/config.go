package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
)

const (
	DefaultEvidenceSubDir  = "attendance_photos"
	DefaultThumbnailSubDir = "evidence_thumbnails"
)

const (
	defaultMinConfidence     = 50
	defaultMaxRetries        = 3
	defaultRetryDelaySeconds = 1
	defaultMinEyePoints      = 6
	defaultThumbnailMaxSize  = 300
	defaultJWTExpiryHours    = 24
)

type Config struct {
	// database path (students, sessions, attendance records)
	DatabasePath string

	// gallery of enrolled face embeddings, JSON mapping name -> vector
	GalleryPath string

	// evidence storage configuration
	StoragePath   string // primary root for generated assets
	EvidencePath  string // full-calculated path for attendance snapshots
	ThumbnailPath string // full-calculated path for snapshot thumbnails

	// CSV attendance log; empty disables CSV logging
	AttendanceCSVPath string

	// verification policy
	MinConfidence     int
	MaxRetries        int
	RetryDelaySeconds int
	MinEyePoints      int

	// camera device index for the frame source
	CameraDevice int

	// evidence thumbnail settings
	ThumbnailMaxSize int

	// face detection model paths (DNN)
	FaceDNNNetConfigPath string
	FaceDNNNetModelPath  string

	// facial landmark model path (DNN, 68-point)
	LandmarkModelPath string

	// face recognition model (ArcFace / FaceNet)
	RecognitionModelPath string
	RecognitionModelName string

	// auth settings
	JWTSecret      string
	JWTExpiryHours int
}

func getEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvIntOrDefault(envVar string, defaultVal int) int {
	valStr := os.Getenv(envVar)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil || val < 0 {
		log.Printf("Warning: Invalid %s '%s'. Using default %d. Error: %v", envVar, valStr, defaultVal, err)
		return defaultVal
	}
	return val
}

func LoadConfig() (Config, error) {
	dbPath := getEnvOrDefault("DATABASE_PATH", "attendance.db")

	galleryPath := getEnvOrDefault("GALLERY_PATH", filepath.Join("models", "encodings.json"))

	storage := getEnvOrDefault("STORAGE_PATH", filepath.Join(".", "storage"))
	absStorage, err := filepath.Abs(storage)
	if err != nil {
		return Config{}, fmt.Errorf("failed to get absolute path for storage '%s': %w", storage, err)
	}

	evidenceSubDir := getEnvOrDefault("EVIDENCE_SUBDIR", DefaultEvidenceSubDir)
	absEvidencePath := filepath.Join(absStorage, evidenceSubDir)

	thumbSubDir := getEnvOrDefault("EVIDENCE_THUMBNAIL_SUBDIR", DefaultThumbnailSubDir)
	absThumbnailPath := filepath.Join(absStorage, thumbSubDir)

	csvPath := getEnvOrDefault("ATTENDANCE_CSV_PATH", filepath.Join("attendance_records", "attendance.csv"))

	minConfidence := getEnvIntOrDefault("MIN_CONFIDENCE", defaultMinConfidence)
	if minConfidence > 100 {
		log.Printf("Warning: MIN_CONFIDENCE %d exceeds 100, clamping", minConfidence)
		minConfidence = 100
	}
	maxRetries := getEnvIntOrDefault("MAX_RETRIES", defaultMaxRetries)
	if maxRetries == 0 {
		maxRetries = defaultMaxRetries
	}
	retryDelay := getEnvIntOrDefault("RETRY_DELAY_SECONDS", defaultRetryDelaySeconds)
	minEyePoints := getEnvIntOrDefault("MIN_EYE_POINTS", defaultMinEyePoints)

	cameraDevice := getEnvIntOrDefault("CAMERA_DEVICE", 0)

	thumbMaxSize := getEnvIntOrDefault("EVIDENCE_THUMBNAIL_MAX_SIZE", defaultThumbnailMaxSize)

	faceDNNConfig := getEnvOrDefault("FACE_DNN_CONFIG_PATH", "./models/deploy.prototxt.txt")
	faceDNNModel := getEnvOrDefault("FACE_DNN_MODEL_PATH", "./models/res10_300x300_ssd_iter_140000_fp16.caffemodel")
	landmarkModel := getEnvOrDefault("LANDMARK_MODEL_PATH", "./models/landmarks_68.onnx")
	recogModel := getEnvOrDefault("RECOGNITION_MODEL_PATH", "./models/arcface.onnx")
	recogName := getEnvOrDefault("RECOGNITION_MODEL_NAME", "arcface")

	jwtSecret := getEnvOrDefault("JWT_SECRET", "")
	if jwtSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET must be set")
	}
	jwtExpiry := getEnvIntOrDefault("JWT_EXPIRY_HOURS", defaultJWTExpiryHours)

	cfg := Config{
		DatabasePath:         dbPath,
		GalleryPath:          galleryPath,
		StoragePath:          absStorage,
		EvidencePath:         absEvidencePath,
		ThumbnailPath:        absThumbnailPath,
		AttendanceCSVPath:    csvPath,
		MinConfidence:        minConfidence,
		MaxRetries:           maxRetries,
		RetryDelaySeconds:    retryDelay,
		MinEyePoints:         minEyePoints,
		CameraDevice:         cameraDevice,
		ThumbnailMaxSize:     thumbMaxSize,
		FaceDNNNetConfigPath: faceDNNConfig,
		FaceDNNNetModelPath:  faceDNNModel,
		LandmarkModelPath:    landmarkModel,
		RecognitionModelPath: recogModel,
		RecognitionModelName: recogName,
		JWTSecret:            jwtSecret,
		JWTExpiryHours:       jwtExpiry,
	}

	return cfg, nil
}
