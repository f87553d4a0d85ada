package media

import (
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

const (
	evidenceJpegQuality  = 90
	thumbnailJpegQuality = 80
)

// EvidenceStore writes accepted verification frames as JPEG artifacts, with
// optional thumbnails for history views. Filenames embed the identity, a
// second-resolution timestamp and a short random suffix so that two accepts
// for the same identity within the same second cannot collide.
type EvidenceStore struct {
	evidenceDir  string
	thumbnailDir string
	thumbMaxSize int
}

// NewEvidenceStore creates the evidence and thumbnail directories.
func NewEvidenceStore(evidenceDir, thumbnailDir string, thumbMaxSize int) (*EvidenceStore, error) {
	for _, dir := range []string{evidenceDir, thumbnailDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create evidence directory %s: %w", dir, err)
		}
	}
	log.Printf("evidence: storing snapshots in %s", evidenceDir)
	return &EvidenceStore{
		evidenceDir:  evidenceDir,
		thumbnailDir: thumbnailDir,
		thumbMaxSize: thumbMaxSize,
	}, nil
}

// Dir returns the directory snapshots are written to.
func (s *EvidenceStore) Dir() string {
	return s.evidenceDir
}

// ThumbnailDir returns the directory thumbnails are written to.
func (s *EvidenceStore) ThumbnailDir() string {
	return s.thumbnailDir
}

// Save persists one frame as the evidence artifact for an accepted
// verification and returns the absolute path written.
func (s *EvidenceStore) Save(frame image.Image, identity string, when time.Time) (string, error) {
	suffix, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("failed to generate evidence suffix: %w", err)
	}

	filename := fmt.Sprintf("%s_%s_%s.jpg", identity, when.Format("20060102_150405"), suffix.String()[:8])
	savePath := filepath.Join(s.evidenceDir, filename)

	if err := imaging.Save(frame, savePath, imaging.JPEGQuality(evidenceJpegQuality)); err != nil {
		return "", fmt.Errorf("failed to save evidence snapshot to %s: %w", savePath, err)
	}

	log.Printf("evidence: saved snapshot %s", filename)
	return savePath, nil
}

// GenerateThumbnail creates a bounded-size preview of an evidence snapshot,
// reusing the snapshot's filename in the thumbnail directory. Returns the
// thumbnail filename.
func (s *EvidenceStore) GenerateThumbnail(evidencePath string) (string, error) {
	img, err := imaging.Open(evidencePath)
	if err != nil {
		return "", fmt.Errorf("failed to open evidence snapshot %s: %w", evidencePath, err)
	}

	thumb := imaging.Fit(img, s.thumbMaxSize, s.thumbMaxSize, imaging.Lanczos)

	filename := filepath.Base(evidencePath)
	thumbPath := filepath.Join(s.thumbnailDir, filename)
	if err := imaging.Save(thumb, thumbPath, imaging.JPEGQuality(thumbnailJpegQuality)); err != nil {
		return "", fmt.Errorf("failed to save thumbnail to %s: %w", thumbPath, err)
	}

	return filename, nil
}
