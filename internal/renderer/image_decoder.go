package renderer

import (
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/pkg/errors"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrDecode marks an image that could not be opened or decoded.
var ErrDecode = errors.New("image decode failed")

// DecodedImage is an RGBA8 image plus the channel count of its source.
type DecodedImage struct {
	Image
	Channels int
}

// ImageDecoder turns a path into RGBA pixels. Channels reports the source
// image's native channel count; the pixel data is always 4 channels.
type ImageDecoder interface {
	Decode(path string) (DecodedImage, error)
}

// FileDecoder decodes PNG, JPEG, BMP, TIFF and WebP files from disk.
type FileDecoder struct{}

func (FileDecoder) Decode(path string) (DecodedImage, error) {
	f, err := os.Open(path)
	if err != nil {
		return DecodedImage{}, errors.Wrap(ErrDecode, err.Error())
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return DecodedImage{}, errors.Wrapf(ErrDecode, "%s: %v", path, err)
	}
	return DecodedImage{Image: ToRGBA(img), Channels: channels(img)}, nil
}

// ToRGBA converts any image to tightly packed RGBA8 with its origin at 0,0.
func ToRGBA(img image.Image) Image {
	b := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Stride != b.Dx()*4 || b.Min != (image.Point{}) {
		rgba = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	}
	return Image{Width: b.Dx(), Height: b.Dy(), Pix: rgba.Pix}
}

func channels(img image.Image) int {
	switch img.(type) {
	case *image.Gray, *image.Gray16:
		return 1
	case *image.YCbCr:
		return 3
	}
	if o, ok := img.(interface{ Opaque() bool }); ok && o.Opaque() {
		return 3
	}
	return 4
}
