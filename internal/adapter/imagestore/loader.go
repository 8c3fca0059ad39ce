package imagestore

import (
	"fmt"
	"image"
	"os"

	// Register decoders for the formats analysis inputs arrive in.
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

// FileLoader decodes image files into in-memory bitmaps.
type FileLoader struct{}

// NewFileLoader creates a loader.
func NewFileLoader() *FileLoader {
	return &FileLoader{}
}

// Load decodes every path in order. The first unreadable or undecodable
// file fails the whole batch.
func (l *FileLoader) Load(paths []string) ([]image.Image, error) {
	images := make([]image.Image, 0, len(paths))

	for _, path := range paths {
		img, err := l.loadOne(path)
		if err != nil {
			return nil, err
		}
		images = append(images, img)
	}

	return images, nil
}

func (l *FileLoader) loadOne(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image %s: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode image %s: %w", path, err)
	}

	return img, nil
}
