package recognition

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"sort"
)

var (
	// ErrGalleryMissing indicates the gallery file does not exist.
	ErrGalleryMissing = errors.New("gallery file does not exist")
	// ErrEmptyGallery indicates the gallery contains no enrolled entries.
	ErrEmptyGallery = errors.New("gallery contains no face embeddings")
)

// Gallery holds the enrolled (identity, embedding) pairs. It is loaded once
// at startup and is immutable for the process lifetime.
type Gallery struct {
	names   []string
	vectors [][]float32
}

// LoadGallery reads a JSON mapping of identity label -> embedding vector.
// All vectors must share the same dimension.
func LoadGallery(path string) (*Gallery, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s (run the enrollment encoder first)", ErrGalleryMissing, path)
		}
		return nil, fmt.Errorf("failed to read gallery file %s: %w", path, err)
	}

	var entries map[string][]float32
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse gallery file %s: %w", path, err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyGallery, path)
	}

	// Map iteration order is random; sort labels so matcher tie-breaking is
	// stable across process restarts.
	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)

	dim := len(entries[names[0]])
	vectors := make([][]float32, 0, len(names))
	for _, name := range names {
		vec := entries[name]
		if len(vec) == 0 {
			return nil, fmt.Errorf("gallery entry %q has an empty embedding", name)
		}
		if len(vec) != dim {
			return nil, fmt.Errorf("gallery entry %q has dimension %d, expected %d", name, len(vec), dim)
		}
		vectors = append(vectors, vec)
	}

	log.Printf("gallery: loaded %d enrolled identities (dim %d) from %s", len(names), dim, path)
	return &Gallery{names: names, vectors: vectors}, nil
}

// NewGallery builds a gallery from parallel name/vector slices. Used by tests
// and by callers that source enrollments from somewhere other than a file.
func NewGallery(names []string, vectors [][]float32) (*Gallery, error) {
	if len(names) != len(vectors) {
		return nil, fmt.Errorf("gallery names/vectors length mismatch: %d vs %d", len(names), len(vectors))
	}
	if len(names) == 0 {
		return nil, ErrEmptyGallery
	}
	return &Gallery{names: names, vectors: vectors}, nil
}

// Len returns the number of enrolled identities.
func (g *Gallery) Len() int {
	return len(g.names)
}

// Names returns the enrolled identity labels.
func (g *Gallery) Names() []string {
	return g.names
}

// Dimension returns the embedding dimension shared by all entries.
func (g *Gallery) Dimension() int {
	if len(g.vectors) == 0 {
		return 0
	}
	return len(g.vectors[0])
}

func (g *Gallery) entry(i int) (string, []float32) {
	return g.names[i], g.vectors[i]
}
