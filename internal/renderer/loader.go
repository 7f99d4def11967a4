package renderer

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"os"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// LoadImage decodes an image or mask file. PNG, JPEG, GIF, BMP, TIFF and WebP
// are recognised by content, not extension. The image is returned in its
// native colour model so Prepare can check the channel count.
func LoadImage(filename string) (image.Image, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", filename, err)
	}
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("%s image %s has no pixels", format, filename)
	}

	return img, nil
}

// WritePNG saves img as a PNG file
func WritePNG(filename string, img image.Image) error {
	outFile, err := os.Create(filename)
	if err != nil {
		return err
	}

	if err := png.Encode(outFile, img); err != nil {
		outFile.Close()
		return err
	}
	return outFile.Close()
}
