package imageio

import (
	"bytes"
	"image"
	"image/png"
	"os"

	_ "image/gif"
	_ "image/jpeg"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	ierr "github.com/invoiceforge/invoiceforge/internal/errors"
)

// Bitmap is a decoded image together with its pixel dimensions
type Bitmap struct {
	Image  image.Image
	Format string
	Width  int
	Height int
}

// Loader abstracts image decoding away from the PDF renderer so a different
// decoder can be substituted without touching layout code.
type Loader interface {
	Load(path string) (*Bitmap, error)
}

type fileLoader struct{}

// NewFileLoader returns a Loader that reads from the local filesystem with
// the stdlib and x/image decoders registered: png, jpeg, gif, bmp, tiff
// and webp.
func NewFileLoader() Loader {
	return fileLoader{}
}

func (fileLoader) Load(path string) (*Bitmap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHintf("unable to open image %s", path).
			Mark(ierr.ErrNotFound)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHintf("unable to decode image %s", path).
			Mark(ierr.ErrInvalidOperation)
	}

	bounds := img.Bounds()
	return &Bitmap{
		Image:  img,
		Format: format,
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}, nil
}

// EncodePNG re-encodes a bitmap as PNG, the single interchange format handed
// to the PDF writer regardless of the source encoding.
func EncodePNG(b *Bitmap) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, b.Image); err != nil {
		return nil, ierr.WithError(err).
			WithHint("unable to encode image").
			Mark(ierr.ErrSystem)
	}
	return buf.Bytes(), nil
}
