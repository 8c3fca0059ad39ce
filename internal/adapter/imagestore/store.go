// Package imagestore persists in-memory bitmaps to temp files so a CLI
// tool can read them by path, and loads image files back into memory.
package imagestore

import (
	"fmt"
	"image"
	"image/jpeg"
	"log"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

const (
	filePrefix  = "doc_img_"
	jpegQuality = 90
)

// TempStore writes JPEG files into a directory, one uniquely named file
// per image. The zero directory means the system temp dir.
type TempStore struct {
	dir     string
	quality int
}

// NewTempStore creates a store writing into dir, or os.TempDir() when
// dir is empty.
func NewTempStore(dir string) *TempStore {
	if dir == "" {
		dir = os.TempDir()
	}
	return &TempStore{
		dir:     dir,
		quality: jpegQuality,
	}
}

// SetQuality overrides the JPEG encode quality (1-100).
func (s *TempStore) SetQuality(quality int) {
	if quality >= 1 && quality <= 100 {
		s.quality = quality
	}
}

// Save encodes each image to its own file and returns the paths in input
// order. On failure the paths written so far are returned alongside the
// error so the caller can still clean them up.
func (s *TempStore) Save(images []image.Image) ([]string, error) {
	paths := make([]string, 0, len(images))

	for i, img := range images {
		path := filepath.Join(s.dir, filePrefix+uuid.NewString()+".jpg")

		if err := s.writeJPEG(path, img); err != nil {
			return paths, fmt.Errorf("write image %d: %w", i+1, err)
		}
		paths = append(paths, path)
	}

	return paths, nil
}

// Cleanup removes the files best-effort. Removal failures are logged
// and never propagated.
func (s *TempStore) Cleanup(paths []string) {
	for _, path := range paths {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Printf("[WARN] imagestore: remove %s: %v", path, err)
		}
	}
}

func (s *TempStore) writeJPEG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: s.quality}); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}
