// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package model loads host-side geometry and textures for upload.
package model

import (
	"errors"
	"fmt"

	"github.com/devblok/postfx/gfx"
)

// Components per vertex of each geometry stream
const (
	PositionComponents = 3
	NormalComponents   = 3
	CoordComponents    = 2
)

// package errors
var (
	ErrEmptyGeometry = errors.New("geometry has no vertices")
	ErrEmptyTexture  = errors.New("texture has no pixels")
)

// GeometryBuffer is an unindexed triangle list split into
// position, normal and texture coordinate streams.
// It is not modified after loading.
type GeometryBuffer struct {
	Positions []float32
	Normals   []float32
	Coords    []float32

	VertexCount int
}

// Validate checks that the geometry is non-empty and that every
// stream holds exactly VertexCount elements.
func (g GeometryBuffer) Validate() error {
	if g.VertexCount <= 0 {
		return ErrEmptyGeometry
	}
	if len(g.Positions) != g.VertexCount*PositionComponents {
		return fmt.Errorf("positions: expected %d floats, got %d", g.VertexCount*PositionComponents, len(g.Positions))
	}
	if len(g.Normals) != g.VertexCount*NormalComponents {
		return fmt.Errorf("normals: expected %d floats, got %d", g.VertexCount*NormalComponents, len(g.Normals))
	}
	if len(g.Coords) != g.VertexCount*CoordComponents {
		return fmt.Errorf("coords: expected %d floats, got %d", g.VertexCount*CoordComponents, len(g.Coords))
	}
	return nil
}

// Texture2D is a host-resident image ready for upload.
type Texture2D struct {
	Width  int
	Height int
	Format gfx.PixelFormat
	Pixels []byte
}

// Channels returns the number of 8-bit channels per pixel.
func (t Texture2D) Channels() int {
	return t.Format.Channels()
}

// Validate checks the dimensions and that Pixels covers the whole image.
func (t Texture2D) Validate() error {
	if t.Width <= 0 || t.Height <= 0 {
		return ErrEmptyTexture
	}
	if want := t.Width * t.Height * t.Channels(); len(t.Pixels) < want {
		return fmt.Errorf("pixels: expected %d bytes, got %d", want, len(t.Pixels))
	}
	return nil
}
