package utils

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"io"

	"github.com/nfnt/resize"
)

var ErrUnsupportedImage = errors.New("unsupported image format")

type ProcessedImage struct {
	Data        []byte
	ContentType string
	Extension   string
	Width       int
	Height      int
}

// ProcessImage decodes r, shrinks it to fit in a maxSide square keeping the
// aspect ratio, and re-encodes it. PNG stays PNG; everything else becomes
// JPEG. Images already within bounds are only re-encoded.
func ProcessImage(r io.Reader, maxSide uint) (*ProcessedImage, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}

	if maxSide > 0 {
		img = resize.Thumbnail(maxSide, maxSide, img, resize.Lanczos3)
	}

	var buf bytes.Buffer
	processed := &ProcessedImage{
		Width:  img.Bounds().Dx(),
		Height: img.Bounds().Dy(),
	}

	if format == "png" {
		err = png.Encode(&buf, img)
		processed.ContentType = "image/png"
		processed.Extension = ".png"
	} else {
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality})
		processed.ContentType = "image/jpeg"
		processed.Extension = ".jpg"
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	processed.Data = buf.Bytes()
	return processed, nil
}
