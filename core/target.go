// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"github.com/pkg/errors"

	"github.com/devblok/postfx/gfx"
)

// NewOffscreenTarget allocates a color and a depth texture of the given
// size through u and attaches both to a new framebuffer.
// The textures belong to u and are freed by its Release.
func NewOffscreenTarget(u *Uploader, width, height int) (*OffscreenTarget, error) {
	color, err := u.Allocate(width, height, gfx.RGB8, gfx.Linear, gfx.Repeat)
	if err != nil {
		return nil, errors.Wrap(err, "core.NewOffscreenTarget(): color")
	}
	depth, err := u.Allocate(width, height, gfx.Depth24, gfx.Nearest, gfx.ClampToEdge)
	if err != nil {
		return nil, errors.Wrap(err, "core.NewOffscreenTarget(): depth")
	}

	dev := u.Device()
	framebuffer, complete := dev.CreateFramebuffer(color, depth)
	if !complete {
		dev.DeleteFramebuffer(framebuffer)
		return nil, errors.Wrapf(ErrIncompleteTarget, "core.NewOffscreenTarget(): %dx%d", width, height)
	}

	return &OffscreenTarget{
		dev:         dev,
		framebuffer: framebuffer,
		color:       color,
		depth:       depth,
		width:       width,
		height:      height,
	}, nil
}

// OffscreenTarget is a framebuffer with sampleable color and depth
// attachments. It is written by one pass and then read by another,
// never both at once.
type OffscreenTarget struct {
	dev gfx.Device

	framebuffer gfx.Framebuffer
	color       gfx.Texture
	depth       gfx.Texture

	width, height int
	writing       bool
}

// BindForWriting makes the target the draw destination and
// sets the viewport to its size.
func (o *OffscreenTarget) BindForWriting() {
	o.dev.BindFramebuffer(o.framebuffer)
	o.dev.Viewport(o.width, o.height)
	o.writing = true
}

// UnbindForWriting restores the visible surface as draw destination.
func (o *OffscreenTarget) UnbindForWriting() {
	o.dev.BindFramebuffer(gfx.DefaultFramebuffer)
	o.writing = false
}

// BindForReading binds the color and depth attachments to texture units.
func (o *OffscreenTarget) BindForReading(unitColor, unitDepth uint32) error {
	if o.writing {
		return ErrTargetBusy
	}
	o.dev.BindTexture(unitColor, o.color)
	o.dev.BindTexture(unitDepth, o.depth)
	return nil
}

// Size returns the size the target was created with.
func (o *OffscreenTarget) Size() (width, height int) {
	return o.width, o.height
}

// Framebuffer returns the framebuffer handle.
func (o *OffscreenTarget) Framebuffer() gfx.Framebuffer {
	return o.framebuffer
}

// Attachments returns the color and depth textures.
func (o *OffscreenTarget) Attachments() (color, depth gfx.Texture) {
	return o.color, o.depth
}

// Destroy deletes the framebuffer.
func (o *OffscreenTarget) Destroy() {
	if o.framebuffer != 0 {
		o.dev.DeleteFramebuffer(o.framebuffer)
		o.framebuffer = 0
	}
}
