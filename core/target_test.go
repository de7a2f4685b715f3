// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core_test

import (
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/pkg/errors"

	"github.com/devblok/postfx/core"
	"github.com/devblok/postfx/gfx"
	"github.com/devblok/postfx/gfx/gfxtest"
)

func TestOffscreenTargetAttachments(t *testing.T) {
	c := qt.New(t)
	dev := gfxtest.NewDevice()
	logger, _ := nullLogger()

	target, err := core.NewOffscreenTarget(core.NewUploader(dev, logger), 800, 600)
	c.Assert(err, qt.IsNil)

	color, depth := target.Attachments()
	fbColor, fbDepth := dev.Attachments(target.Framebuffer())
	c.Assert(fbColor, qt.Equals, color)
	c.Assert(fbDepth, qt.Equals, depth)

	colorDesc, _ := dev.TextureDescriptor(color)
	c.Assert(colorDesc, qt.Equals, gfx.TextureDescriptor{
		Width: 800, Height: 600, Format: gfx.RGB8, Filter: gfx.Linear, Wrap: gfx.Repeat,
	})
	depthDesc, _ := dev.TextureDescriptor(depth)
	c.Assert(depthDesc, qt.Equals, gfx.TextureDescriptor{
		Width: 800, Height: 600, Format: gfx.Depth24, Filter: gfx.Nearest, Wrap: gfx.ClampToEdge,
	})
}

func TestOffscreenTargetSizeStable(t *testing.T) {
	c := qt.New(t)
	dev := gfxtest.NewDevice()
	logger, _ := nullLogger()

	target, err := core.NewOffscreenTarget(core.NewUploader(dev, logger), 640, 480)
	c.Assert(err, qt.IsNil)
	color, depth := target.Attachments()

	for idx := 0; idx < 3; idx++ {
		target.BindForWriting()
		c.Assert(dev.Framebuffer(), qt.Equals, target.Framebuffer())
		target.UnbindForWriting()
		c.Assert(dev.Framebuffer(), qt.Equals, gfx.DefaultFramebuffer)
		c.Assert(target.BindForReading(0, 1), qt.IsNil)

		w, h := target.Size()
		c.Assert([2]int{w, h}, qt.Equals, [2]int{640, 480})
		for _, tex := range []gfx.Texture{color, depth} {
			w, h := dev.TextureSize(tex)
			c.Assert([2]int{w, h}, qt.Equals, [2]int{640, 480})
		}
	}
	c.Assert(dev.Count("Viewport(640,480)"), qt.Equals, 3)
}

func TestOffscreenTargetBusy(t *testing.T) {
	c := qt.New(t)
	dev := gfxtest.NewDevice()
	logger, _ := nullLogger()

	target, err := core.NewOffscreenTarget(core.NewUploader(dev, logger), 64, 64)
	c.Assert(err, qt.IsNil)

	target.BindForWriting()
	c.Assert(target.BindForReading(0, 1), qt.Equals, core.ErrTargetBusy)
	c.Assert(dev.Count("BindTexture"), qt.Equals, 0)

	target.UnbindForWriting()
	c.Assert(target.BindForReading(0, 1), qt.IsNil)
	c.Assert(dev.Count("BindTexture"), qt.Equals, 2)
}

func TestOffscreenTargetIncomplete(t *testing.T) {
	c := qt.New(t)
	dev := gfxtest.NewDevice()
	dev.IncompleteFramebuffers = true
	logger, _ := nullLogger()

	_, err := core.NewOffscreenTarget(core.NewUploader(dev, logger), 64, 64)
	c.Assert(errors.Is(err, core.ErrIncompleteTarget), qt.IsTrue)
	c.Assert(dev.Count("DeleteFramebuffer"), qt.Equals, 1)
}

func TestOffscreenTargetZeroSize(t *testing.T) {
	c := qt.New(t)
	dev := gfxtest.NewDevice()
	logger, _ := nullLogger()

	_, err := core.NewOffscreenTarget(core.NewUploader(dev, logger), 0, 600)
	c.Assert(errors.Is(err, core.ErrFatalConfiguration), qt.IsTrue)
}
