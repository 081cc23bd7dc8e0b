package model

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"
)

// ErrInvalidImage is returned when the upload cannot be decoded as JPEG or PNG.
var ErrInvalidImage = errors.New("invalid image")

// DecodeImage decodes JPEG or PNG bytes, applying the EXIF orientation so
// phone photos reach the network upright.
func DecodeImage(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty upload", ErrInvalidImage)
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	return img, nil
}

// ImageTensor converts img to RGB, resizes it bilinearly to width x height
// and packs it as HWC float32 in 0..255. Alpha is dropped, not composited.
// EfficientNet scaling is part of the network graph, so no further
// normalization is applied here.
func ImageTensor(img image.Image, width, height int) ([]float32, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid target size %dx%d", width, height)
	}
	rgb := imaging.Clone(img)
	for i := 3; i < len(rgb.Pix); i += 4 {
		rgb.Pix[i] = 0xff
	}
	resized := imaging.Clone(resize.Resize(uint(width), uint(height), rgb, resize.Bilinear))

	b := resized.Bounds()
	if b.Dx() != width || b.Dy() != height {
		return nil, fmt.Errorf("resize produced %dx%d, want %dx%d", b.Dx(), b.Dy(), width, height)
	}
	out := make([]float32, 0, width*height*3)
	for y := 0; y < height; y++ {
		row := resized.Pix[y*resized.Stride : y*resized.Stride+width*4]
		for x := 0; x < width; x++ {
			p := row[x*4 : x*4+3]
			out = append(out, float32(p[0]), float32(p[1]), float32(p[2]))
		}
	}
	return out, nil
}

// Preprocess decodes data and returns its tensor at the target size.
func Preprocess(data []byte, width, height int) ([]float32, error) {
	img, err := DecodeImage(data)
	if err != nil {
		return nil, err
	}
	return ImageTensor(img, width, height)
}
