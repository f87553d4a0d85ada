package recognition

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeGalleryFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "encodings.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write gallery file: %v", err)
	}
	return path
}

func TestLoadGallery(t *testing.T) {
	path := writeGalleryFile(t, `{"alice": [0.1, 0.2], "bob": [0.3, 0.4]}`)

	g, err := LoadGallery(path)
	if err != nil {
		t.Fatalf("LoadGallery failed: %v", err)
	}
	if g.Len() != 2 {
		t.Errorf("Len = %d; want 2", g.Len())
	}
	if g.Dimension() != 2 {
		t.Errorf("Dimension = %d; want 2", g.Dimension())
	}

	names := g.Names()
	if len(names) != 2 || names[0] != "alice" || names[1] != "bob" {
		t.Errorf("Names = %v; want sorted [alice bob]", names)
	}
}

func TestLoadGalleryMissingFile(t *testing.T) {
	_, err := LoadGallery(filepath.Join(t.TempDir(), "nope.json"))
	if !errors.Is(err, ErrGalleryMissing) {
		t.Errorf("error = %v; want ErrGalleryMissing", err)
	}
}

func TestLoadGalleryEmpty(t *testing.T) {
	path := writeGalleryFile(t, `{}`)
	_, err := LoadGallery(path)
	if !errors.Is(err, ErrEmptyGallery) {
		t.Errorf("error = %v; want ErrEmptyGallery", err)
	}
}

func TestLoadGalleryDimensionMismatch(t *testing.T) {
	path := writeGalleryFile(t, `{"alice": [0.1, 0.2], "bob": [0.3]}`)
	_, err := LoadGallery(path)
	if err == nil {
		t.Error("LoadGallery accepted mismatched dimensions")
	}
}

func TestLoadGalleryMalformed(t *testing.T) {
	path := writeGalleryFile(t, `not json`)
	_, err := LoadGallery(path)
	if err == nil {
		t.Error("LoadGallery accepted malformed JSON")
	}
}

func TestNewGalleryEmpty(t *testing.T) {
	_, err := NewGallery(nil, nil)
	if !errors.Is(err, ErrEmptyGallery) {
		t.Errorf("error = %v; want ErrEmptyGallery", err)
	}
}
