package loaders

import (
	"bytes"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/spaghettifunk/anima-resources/engine/resources"
)

type ImageLoader struct{}

func (il *ImageLoader) Load(name string, data []byte, siblings SiblingReader) (interface{}, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	// Normalise every format to 4 channel RGBA so the uploader has one path.
	b := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Stride != 4*b.Dx() {
		rgba = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	}

	return &resources.ImageResourceData{
		ChannelCount: 4,
		Width:        uint32(b.Dx()),
		Height:       uint32(b.Dy()),
		Pixels:       rgba.Pix,
	}, nil
}

func (il *ImageLoader) Unload(resource *resources.Resource) error {
	if data, ok := resource.Data.(*resources.ImageResourceData); ok {
		data.Pixels = nil
	}
	resource.Data = nil
	return nil
}
