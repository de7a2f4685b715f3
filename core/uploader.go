// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/devblok/postfx/gfx"
	"github.com/devblok/postfx/model"
)

// Attribute slots shared by every program in the pipeline
const (
	PointSlot uint32 = 0
	CoordSlot uint32 = 1
)

// Geometry is a triangle list resident on the device.
type Geometry struct {
	Positions   gfx.Buffer
	Coords      gfx.Buffer
	VertexArray gfx.VertexArray
	VertexCount int32
}

// NewUploader creates an uploader that owns everything it puts on dev.
func NewUploader(dev gfx.Device, logger logrus.FieldLogger) *Uploader {
	return &Uploader{
		dev: dev,
		log: logger,
	}
}

// Uploader moves host resources to the device once, at initialisation.
// Every object it creates is freed by Release.
type Uploader struct {
	dev gfx.Device
	log logrus.FieldLogger

	buffers      []gfx.Buffer
	vertexArrays []gfx.VertexArray
	textures     []gfx.Texture
}

var _ gfx.Releasable = (*Uploader)(nil)

// Device returns the device resources are uploaded to.
func (u *Uploader) Device() gfx.Device {
	return u.dev
}

// UploadGeometry creates a position and a texture coordinate buffer
// holding exactly VertexCount elements each, bound to PointSlot and
// CoordSlot of a new vertex array. Normals are not uploaded.
func (u *Uploader) UploadGeometry(g model.GeometryBuffer) (Geometry, error) {
	if g.VertexCount <= 0 {
		return Geometry{}, errors.Wrap(ErrFatalConfiguration, "core.UploadGeometry(): "+model.ErrEmptyGeometry.Error())
	}
	if want := g.VertexCount * model.PositionComponents; len(g.Positions) != want {
		return Geometry{}, errors.Wrapf(ErrFatalConfiguration, "core.UploadGeometry(): %d position floats for %d vertices", len(g.Positions), g.VertexCount)
	}
	if want := g.VertexCount * model.CoordComponents; len(g.Coords) != want {
		return Geometry{}, errors.Wrapf(ErrFatalConfiguration, "core.UploadGeometry(): %d coord floats for %d vertices", len(g.Coords), g.VertexCount)
	}

	positions := u.dev.CreateBuffer(g.Positions)
	coords := u.dev.CreateBuffer(g.Coords)
	u.buffers = append(u.buffers, positions, coords)

	vao := u.dev.CreateVertexArray([]gfx.VertexAttribute{
		{Slot: PointSlot, Components: model.PositionComponents, Buffer: positions},
		{Slot: CoordSlot, Components: model.CoordComponents, Buffer: coords},
	})
	u.vertexArrays = append(u.vertexArrays, vao)

	u.log.WithField("vertices", g.VertexCount).Debug("geometry uploaded")
	return Geometry{
		Positions:   positions,
		Coords:      coords,
		VertexArray: vao,
		VertexCount: int32(g.VertexCount),
	}, nil
}

// UploadTexture creates a sampleable texture from host pixels.
func (u *Uploader) UploadTexture(t model.Texture2D, filter gfx.Filter, wrap gfx.Wrap) (gfx.Texture, error) {
	if t.Channels() == 0 {
		return 0, errors.Wrapf(ErrFatalConfiguration, "core.UploadTexture(): format %d has no host pixels", t.Format)
	}
	if err := t.Validate(); err != nil {
		return 0, errors.Wrap(ErrFatalConfiguration, "core.UploadTexture(): "+err.Error())
	}

	texture := u.dev.CreateTexture(gfx.TextureDescriptor{
		Width:  t.Width,
		Height: t.Height,
		Format: t.Format,
		Filter: filter,
		Wrap:   wrap,
	}, t.Pixels)
	u.textures = append(u.textures, texture)

	u.log.WithFields(logrus.Fields{
		"width":  t.Width,
		"height": t.Height,
	}).Debug("texture uploaded")
	return texture, nil
}

// Allocate creates texture storage without initial contents.
func (u *Uploader) Allocate(width, height int, format gfx.PixelFormat, filter gfx.Filter, wrap gfx.Wrap) (gfx.Texture, error) {
	if width <= 0 || height <= 0 {
		return 0, errors.Wrapf(ErrFatalConfiguration, "core.Allocate(): size %dx%d", width, height)
	}

	texture := u.dev.CreateTexture(gfx.TextureDescriptor{
		Width:  width,
		Height: height,
		Format: format,
		Filter: filter,
		Wrap:   wrap,
	}, nil)
	u.textures = append(u.textures, texture)
	return texture, nil
}

// Release implements interface
func (u *Uploader) Release() {
	for _, v := range u.vertexArrays {
		u.dev.DeleteVertexArray(v)
	}
	for _, b := range u.buffers {
		u.dev.DeleteBuffer(b)
	}
	for _, t := range u.textures {
		u.dev.DeleteTexture(t)
	}
	u.vertexArrays = nil
	u.buffers = nil
	u.textures = nil
}
