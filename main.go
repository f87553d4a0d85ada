package main

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"github.com/campus-hub/attendance-backend/config"
	"github.com/campus-hub/attendance-backend/database"
	"github.com/campus-hub/attendance-backend/handlers"
	"github.com/campus-hub/attendance-backend/logger"
	"github.com/campus-hub/attendance-backend/media"
	"github.com/campus-hub/attendance-backend/realtime"
	"github.com/campus-hub/attendance-backend/recognition"
	"github.com/campus-hub/attendance-backend/repository"
	"github.com/campus-hub/attendance-backend/workers"
)

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Printf("Info: No .env file found or error loading: %v", err)
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	storagePaths := []string{cfg.EvidencePath, cfg.ThumbnailPath, filepath.Dir(cfg.DatabasePath), filepath.Dir(cfg.AttendanceCSVPath)}
	for _, p := range storagePaths {
		log.Printf("Ensuring storage directory exists: %s", p)
		if err := os.MkdirAll(p, 0755); err != nil {
			log.Fatalf("FATAL: Failed to create storage directory %s: %v", p, err)
		}
	}

	gormDB, err := database.InitGormDB(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize database: %v", err)
	}
	if err := database.AutoMigrateModels(gormDB); err != nil {
		log.Fatalf("FATAL: Failed to migrate database schema: %v", err)
	}

	reportsDB, err := database.InitReportsDB(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize reports database connection: %v", err)
	}
	defer reportsDB.Close()

	gallery, err := recognition.LoadGallery(cfg.GalleryPath)
	if err != nil {
		if errors.Is(err, recognition.ErrGalleryMissing) {
			log.Fatalf("FATAL: Gallery file not found at %s. Enroll students before starting the server.", cfg.GalleryPath)
		}
		if errors.Is(err, recognition.ErrEmptyGallery) {
			log.Fatalf("FATAL: Gallery at %s contains no enrolled faces.", cfg.GalleryPath)
		}
		log.Fatalf("FATAL: Failed to load face gallery: %v", err)
	}
	log.Printf("Loaded face gallery: %d enrolled identities, dimension %d", gallery.Len(), gallery.Dimension())

	camera, err := media.OpenCamera(cfg.CameraDevice)
	if err != nil {
		log.Fatalf("FATAL: Failed to open camera device %d: %v", cfg.CameraDevice, err)
	}
	defer camera.Close()

	detector := media.NewDNNFaceDetector(cfg.FaceDNNNetConfigPath, cfg.FaceDNNNetModelPath)
	defer detector.Close()
	landmarks := media.NewLandmarkModel(cfg.LandmarkModelPath)
	embedder := media.NewEmbeddingModel(cfg.RecognitionModelPath, cfg.RecognitionModelName)

	locator, err := media.NewLocator(detector, landmarks, embedder, gallery)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize face locator: %v", err)
	}

	evidenceStore, err := media.NewEvidenceStore(cfg.EvidencePath, cfg.ThumbnailPath, cfg.ThumbnailMaxSize)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize evidence store: %v", err)
	}

	var csvLogger *logger.CSVLogger
	if cfg.AttendanceCSVPath != "" {
		csvLogger, err = logger.NewCSVLogger(cfg.AttendanceCSVPath)
		if err != nil {
			log.Fatalf("FATAL: Failed to initialize attendance CSV log: %v", err)
		}
		log.Printf("Attendance CSV log: %s", csvLogger.FilePath())
	} else {
		log.Println("Attendance CSV logging disabled")
	}

	studentRepo := repository.NewStudentRepository(gormDB)
	sessionRepo := repository.NewSessionRepository(gormDB)
	attendanceRepo := repository.NewAttendanceRepository(gormDB)

	sink := &workers.AttendanceSink{
		Repo:     attendanceRepo,
		CSV:      csvLogger,
		Evidence: evidenceStore,
	}

	gate := recognition.NewGate(cfg.MinConfidence)
	gate.MinEyePoints = cfg.MinEyePoints
	verifier := recognition.NewVerifier(
		camera,
		locator,
		evidenceStore,
		sink,
		gate,
		cfg.MaxRetries,
		time.Duration(cfg.RetryDelaySeconds)*time.Second,
	)

	hub := realtime.NewHub()
	go hub.Run()

	processor := workers.NewVerificationProcessor(verifier, hub, 16)
	defer processor.Stop()

	log.Printf("Using database: %s", cfg.DatabasePath)
	log.Printf("Storing attendance snapshots in: %s", cfg.EvidencePath)
	log.Printf("Verification policy: min confidence %d%%, max retries %d, retry delay %ds", cfg.MinConfidence, cfg.MaxRetries, cfg.RetryDelaySeconds)

	r := chi.NewRouter()

	corsOptions := cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173"}, //TODO: configurable
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}

	corsHandler := cors.New(corsOptions)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(corsHandler.Handler)

	authHandler := handlers.NewAuthHandler(studentRepo, cfg.JWTSecret, cfg.JWTExpiryHours)
	sessionHandler := &handlers.SessionHandler{SessionRepo: sessionRepo, AttendanceRepo: attendanceRepo}
	attendanceHandler := &handlers.AttendanceHandler{
		AttendanceRepo: attendanceRepo,
		Processor:      processor,
		ReportsDB:      reportsDB,
		EvidenceDir:    cfg.EvidencePath,
	}

	requireAuth := func(next http.Handler) http.Handler {
		return handlers.AuthMiddleware(studentRepo, authHandler.JWTSecret, next)
	}

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/register", authHandler.Register)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Get("/auth/me", authHandler.Me)

			r.Route("/attendance", func(r chi.Router) {
				r.Post("/mark", attendanceHandler.MarkAttendance)
				r.Get("/jobs/{job_id}", attendanceHandler.GetJob)
				r.Get("/history", attendanceHandler.History)
				r.Get("/evidence", attendanceHandler.ListEvidence)
			})

			r.Route("/sessions", func(r chi.Router) {
				r.Post("/", sessionHandler.CreateSession)
				r.Get("/", sessionHandler.ListSessions)
				r.Route("/{session_id}", func(r chi.Router) {
					r.Get("/", sessionHandler.GetSession)
					r.Put("/", sessionHandler.UpdateSession)
					r.Delete("/", sessionHandler.DeleteSession)
					r.Get("/attendance", sessionHandler.GetSessionAttendance)
				})
			})

			r.Route("/reports", func(r chi.Router) {
				r.Get("/sessions", attendanceHandler.SessionSummaries)
				r.Get("/daily", attendanceHandler.DailyCounts)
			})
		})

		evidenceSubDir := filepath.Base(cfg.EvidencePath)
		r.Get(fmt.Sprintf("/%s/*", evidenceSubDir), handlers.AssetServer(cfg.StoragePath, evidenceSubDir))
		log.Printf("Registered evidence server at /%s/*", evidenceSubDir)

		thumbnailSubDir := filepath.Base(cfg.ThumbnailPath)
		r.Get(fmt.Sprintf("/%s/*", thumbnailSubDir), handlers.AssetServer(cfg.StoragePath, thumbnailSubDir))
		log.Printf("Registered thumbnail server at /%s/*", thumbnailSubDir)
	})

	r.Get("/ws", hub.ServeWS)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	serverAddr := ":" + port
	fmt.Printf("Server starting on http://localhost:%s\n", port)
	log.Printf("Server listening on %s", serverAddr)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	log.Fatal(server.ListenAndServe())
}
