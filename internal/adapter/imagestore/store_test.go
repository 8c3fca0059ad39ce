package imagestore_test

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bkyoung/doc-analyzer/internal/adapter/imagestore"
)

func testImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 60), G: uint8(y * 60), B: 128, A: 255})
		}
	}
	return img
}

func TestTempStoreSave(t *testing.T) {
	t.Run("writes one uniquely named jpeg per image", func(t *testing.T) {
		dir := t.TempDir()
		store := imagestore.NewTempStore(dir)

		paths, err := store.Save([]image.Image{testImage(), testImage()})
		require.NoError(t, err)
		require.Len(t, paths, 2)
		assert.NotEqual(t, paths[0], paths[1])

		for _, path := range paths {
			name := filepath.Base(path)
			assert.True(t, strings.HasPrefix(name, "doc_img_"))
			assert.True(t, strings.HasSuffix(name, ".jpg"))

			f, err := os.Open(path)
			require.NoError(t, err)
			_, format, err := image.Decode(f)
			f.Close()
			require.NoError(t, err)
			assert.Equal(t, "jpeg", format)
		}
	})

	t.Run("no images produces no files", func(t *testing.T) {
		store := imagestore.NewTempStore(t.TempDir())

		paths, err := store.Save(nil)
		require.NoError(t, err)
		assert.Empty(t, paths)
	})

	t.Run("unwritable directory returns paths written so far", func(t *testing.T) {
		store := imagestore.NewTempStore(filepath.Join(t.TempDir(), "missing"))

		paths, err := store.Save([]image.Image{testImage()})
		assert.Error(t, err)
		assert.Empty(t, paths)
	})
}

func TestTempStoreCleanup(t *testing.T) {
	t.Run("removes saved files", func(t *testing.T) {
		store := imagestore.NewTempStore(t.TempDir())

		paths, err := store.Save([]image.Image{testImage()})
		require.NoError(t, err)

		store.Cleanup(paths)
		for _, path := range paths {
			_, statErr := os.Stat(path)
			assert.True(t, os.IsNotExist(statErr))
		}
	})

	t.Run("tolerates already removed files", func(t *testing.T) {
		store := imagestore.NewTempStore(t.TempDir())
		store.Cleanup([]string{filepath.Join(t.TempDir(), "gone.jpg")})
	})
}

func TestFileLoader(t *testing.T) {
	t.Run("decodes png and jpeg files", func(t *testing.T) {
		dir := t.TempDir()

		pngPath := filepath.Join(dir, "page.png")
		f, err := os.Create(pngPath)
		require.NoError(t, err)
		require.NoError(t, png.Encode(f, testImage()))
		require.NoError(t, f.Close())

		store := imagestore.NewTempStore(dir)
		jpgPaths, err := store.Save([]image.Image{testImage()})
		require.NoError(t, err)

		loader := imagestore.NewFileLoader()
		images, err := loader.Load([]string{pngPath, jpgPaths[0]})
		require.NoError(t, err)
		require.Len(t, images, 2)
		assert.Equal(t, 4, images[0].Bounds().Dx())
	})

	t.Run("missing file fails the batch", func(t *testing.T) {
		loader := imagestore.NewFileLoader()

		_, err := loader.Load([]string{filepath.Join(t.TempDir(), "absent.png")})
		assert.Error(t, err)
	})

	t.Run("non-image content fails the batch", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "notes.txt")
		require.NoError(t, os.WriteFile(path, []byte("not an image"), 0o644))

		loader := imagestore.NewFileLoader()
		_, err := loader.Load([]string{path})
		assert.Error(t, err)
	})
}
