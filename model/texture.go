// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package model

import (
	"image"
	"image/draw"
	"io"

	// Decoders registered for DecodeTexture
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/devblok/postfx/gfx"
)

// DecodeTexture decodes any registered image format into an 8-bit RGB
// texture. Rows are stored top to bottom, as decoded.
func DecodeTexture(r io.Reader) (Texture2D, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return Texture2D{}, "", err
	}
	return NewTexture(img), format, nil
}

// NewTexture converts an image into a tightly packed RGB texture.
func NewTexture(img image.Image) Texture2D {
	bounds := img.Bounds()
	return Texture2D{
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
		Format: gfx.RGB8,
		Pixels: GetPixels(img),
	}
}

// GetPixels transforms a given image into tightly packed RGB pixels
// by drawing the decoded image onto a controlled RGBA canvas and
// dropping the alpha channel.
func GetPixels(img image.Image) []uint8 {
	bounds := img.Bounds()
	canvas := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(canvas, canvas.Bounds(), img, bounds.Min, draw.Src)

	pixels := make([]uint8, 0, 3*bounds.Dx()*bounds.Dy())
	for idx := 0; idx < len(canvas.Pix); idx += 4 {
		pixels = append(pixels, canvas.Pix[idx], canvas.Pix[idx+1], canvas.Pix[idx+2])
	}
	return pixels
}
