package imageio

import (
	"bytes"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"

	ierr "github.com/invoiceforge/invoiceforge/internal/errors"
)

func writeImage(t *testing.T, name string, encode func(f *os.File, img image.Image) error) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	img := image.NewRGBA(image.Rect(0, 0, 64, 32))
	require.NoError(t, encode(f, img))
	return path
}

func TestLoadDecodesFormats(t *testing.T) {
	tests := []struct {
		name   string
		file   string
		format string
		encode func(f *os.File, img image.Image) error
	}{
		{
			name: "png", file: "logo.png", format: "png",
			encode: func(f *os.File, img image.Image) error { return png.Encode(f, img) },
		},
		{
			name: "jpeg", file: "logo.jpg", format: "jpeg",
			encode: func(f *os.File, img image.Image) error { return jpeg.Encode(f, img, nil) },
		},
		{
			name: "bmp", file: "logo.bmp", format: "bmp",
			encode: func(f *os.File, img image.Image) error { return bmp.Encode(f, img) },
		},
	}

	loader := NewFileLoader()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeImage(t, tt.file, tt.encode)

			bitmap, err := loader.Load(path)
			require.NoError(t, err)
			assert.Equal(t, tt.format, bitmap.Format)
			assert.Equal(t, 64, bitmap.Width)
			assert.Equal(t, 32, bitmap.Height)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	loader := NewFileLoader()

	bitmap, err := loader.Load(filepath.Join(t.TempDir(), "nope.png"))
	assert.Nil(t, bitmap)
	assert.True(t, ierr.IsNotFound(err))
}

func TestLoadUndecodableFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "not-an-image.png")
	require.NoError(t, os.WriteFile(path, []byte("plain text"), 0o644))

	loader := NewFileLoader()
	bitmap, err := loader.Load(path)
	assert.Nil(t, bitmap)
	assert.True(t, ierr.IsInvalidOperation(err))
}

func TestEncodePNGRoundTrip(t *testing.T) {
	loader := NewFileLoader()
	path := writeImage(t, "logo.bmp", func(f *os.File, img image.Image) error {
		return bmp.Encode(f, img)
	})

	bitmap, err := loader.Load(path)
	require.NoError(t, err)

	data, err := EncodePNG(bitmap)
	require.NoError(t, err)

	decoded, format, err := image.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, 64, decoded.Bounds().Dx())
}
