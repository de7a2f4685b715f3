// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core_test

import (
	"context"
	"testing"

	qt "github.com/frankban/quicktest"
	glm "github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/devblok/postfx/core"
	"github.com/devblok/postfx/gfx"
	"github.com/devblok/postfx/gfx/gfxtest"
	"github.com/devblok/postfx/model"
)

func newDriver(c *qt.C, window *fakeWindow, assets core.Assets) (*core.FrameDriver, *gfxtest.Device) {
	dev := gfxtest.NewDevice()
	logger, _ := nullLogger()
	d, err := core.NewFrameDriver(window, dev, assets, core.DefaultConfiguration, logger)
	c.Assert(err, qt.IsNil)
	return d, dev
}

func TestFrameAdvancesAngleOnly(t *testing.T) {
	c := qt.New(t)
	window := &fakeWindow{width: 800, height: 600}
	d, dev := newDriver(c, window, testAssets())

	c.Assert(d.Frame(), qt.IsNil)

	state := d.State()
	c.Assert(state.Angle, qt.Equals, core.AngleStep)
	c.Assert(state.PointerX, qt.Equals, float32(0))
	c.Assert(state.PointerY, qt.Equals, float32(0))
	c.Assert(state.Effect, qt.Equals, int32(0))
	c.Assert(window.swaps, qt.Equals, 1)
	c.Assert(dev.Flushes, qt.Equals, 1)
	c.Assert(d.Frames(), qt.Equals, int64(1))
}

func TestFrameDrawCalls(t *testing.T) {
	c := qt.New(t)
	window := &fakeWindow{width: 800, height: 600}
	d, dev := newDriver(c, window, testAssets())
	rc := d.Context()

	c.Assert(d.Frame(), qt.IsNil)
	c.Assert(dev.Draws, qt.HasLen, 2)

	color, depth := rc.Target.Attachments()

	scene := dev.Draws[0]
	c.Assert(scene.Framebuffer, qt.Equals, rc.Target.Framebuffer())
	c.Assert(scene.Program, qt.Equals, rc.SceneProgram.Handle())
	c.Assert(scene.Mode, qt.Equals, gfx.Triangles)
	c.Assert(scene.Count, qt.Equals, int32(36))
	c.Assert(scene.DepthTest, qt.IsTrue)
	c.Assert(scene.Viewport, qt.Equals, [2]int{800, 600})

	composite := dev.Draws[1]
	c.Assert(composite.Framebuffer, qt.Equals, gfx.DefaultFramebuffer)
	c.Assert(composite.Program, qt.Equals, rc.CompositeProgram.Handle())
	c.Assert(composite.Mode, qt.Equals, gfx.TriangleFan)
	c.Assert(composite.Count, qt.Equals, int32(4))
	c.Assert(composite.DepthTest, qt.IsFalse)
	c.Assert(composite.Units[core.ColorUnit], qt.Equals, color)
	c.Assert(composite.Units[core.DepthUnit], qt.Equals, depth)

	scenep := rc.SceneProgram.Handle()
	view, _ := dev.Uniform(scenep, "viewMatrix")
	c.Assert(view, qt.Equals, [16]float32(core.ViewMatrix(0)))
	ident, _ := dev.Uniform(scenep, "modelMatrix")
	c.Assert(ident, qt.Equals, [16]float32(glm.Ident4()))
	proj, _ := dev.Uniform(scenep, "projMatrix")
	c.Assert(proj, qt.Equals, [16]float32(core.ProjectionMatrix(800, 600)))
	sampler, _ := dev.Uniform(scenep, "textureData")
	c.Assert(sampler, qt.Equals, int32(0))

	compositep := rc.CompositeProgram.Handle()
	samplers, _ := dev.Uniform(compositep, "textureData")
	c.Assert(samplers, qt.DeepEquals, []int32{0, 1})
}

func TestPointerFlipsY(t *testing.T) {
	c := qt.New(t)
	window := &fakeWindow{width: 800, height: 600}
	d, dev := newDriver(c, window, testAssets())

	d.PointerMoved(100, 50)
	state := d.State()
	c.Assert(state.PointerX, qt.Equals, float32(100))
	c.Assert(state.PointerY, qt.Equals, float32(550))

	c.Assert(d.Frame(), qt.IsNil)
	p := d.Context().CompositeProgram.Handle()
	x, ok := dev.Uniform(p, "mouseX")
	c.Assert(ok, qt.IsTrue)
	c.Assert(x, qt.Equals, float32(100))
	y, _ := dev.Uniform(p, "mouseY")
	c.Assert(y, qt.Equals, float32(550))
}

func TestKeySetsEffect(t *testing.T) {
	c := qt.New(t)
	window := &fakeWindow{width: 800, height: 600}
	d, dev := newDriver(c, window, testAssets())

	d.KeyPressed('3')
	c.Assert(d.State().Effect, qt.Equals, int32('3'))
	c.Assert(d.Frame(), qt.IsNil)

	effect, _ := dev.Uniform(d.Context().CompositeProgram.Handle(), "textureIndex")
	c.Assert(effect, qt.Equals, int32(51))
}

func TestEscapeTerminates(t *testing.T) {
	c := qt.New(t)
	window := &fakeWindow{width: 800, height: 600}
	d, dev := newDriver(c, window, testAssets())
	c.Assert(d.Frame(), qt.IsNil)

	d.KeyPressed(core.KeyEscape)
	c.Assert(d.Terminated(), qt.IsTrue)

	shaders, programs := dev.LiveShaders()
	c.Assert(shaders, qt.Equals, 0)
	c.Assert(programs, qt.Equals, 0)
	c.Assert(dev.Live(), qt.Equals, 0)

	draws := len(dev.Draws)
	c.Assert(d.Frame(), qt.Equals, core.ErrTerminated)
	c.Assert(dev.Draws, qt.HasLen, draws)
	c.Assert(window.swaps, qt.Equals, 1)

	// input after termination is ignored
	d.KeyPressed('1')
	c.Assert(d.State().Effect, qt.Equals, int32(0))
}

func TestRunUntilQuit(t *testing.T) {
	c := qt.New(t)
	window := &fakeWindow{
		width:  800,
		height: 600,
		events: []core.Event{
			core.PointerEvent{X: 10, Y: 20},
			core.KeyEvent{Code: '2'},
		},
		onSwap: func(w *fakeWindow) {
			if w.swaps == 3 {
				w.events = append(w.events, core.QuitEvent{})
			}
		},
	}
	d, _ := newDriver(c, window, testAssets())

	c.Assert(d.Run(context.Background()), qt.IsNil)
	c.Assert(window.swaps, qt.Equals, 3)
	c.Assert(d.Terminated(), qt.IsTrue)

	var angle float32
	for idx := 0; idx < 3; idx++ {
		angle += core.AngleStep
	}
	c.Assert(d.State(), qt.Equals, core.FrameState{
		Angle:    angle,
		PointerX: 10,
		PointerY: 580,
		Effect:   '2',
	})
}

func TestRunEscape(t *testing.T) {
	c := qt.New(t)
	window := &fakeWindow{
		width:  800,
		height: 600,
		events: []core.Event{core.KeyEvent{Code: core.KeyEscape}},
	}
	d, dev := newDriver(c, window, testAssets())

	c.Assert(d.Run(context.Background()), qt.IsNil)
	c.Assert(window.swaps, qt.Equals, 0)
	c.Assert(dev.Live(), qt.Equals, 0)
}

func TestRunCancelled(t *testing.T) {
	c := qt.New(t)
	window := &fakeWindow{width: 800, height: 600}
	d, _ := newDriver(c, window, testAssets())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c.Assert(d.Run(ctx), qt.Equals, context.Canceled)
	c.Assert(window.swaps, qt.Equals, 0)
	c.Assert(d.Terminated(), qt.IsTrue)
}

func TestRunCapped(t *testing.T) {
	c := qt.New(t)
	window := &fakeWindow{
		width:  64,
		height: 64,
		onSwap: func(w *fakeWindow) {
			if w.swaps == 2 {
				w.events = append(w.events, core.QuitEvent{})
			}
		},
	}
	cfg := core.DefaultConfiguration
	cfg.Time.FramesPerSecond = 1000

	logger, _ := nullLogger()
	d, err := core.NewFrameDriver(window, gfxtest.NewDevice(), testAssets(), cfg, logger)
	c.Assert(err, qt.IsNil)
	c.Assert(d.Run(context.Background()), qt.IsNil)
	c.Assert(d.Frames(), qt.Equals, int64(2))
}

func TestNewFrameDriverFatal(t *testing.T) {
	c := qt.New(t)
	logger, _ := nullLogger()

	dev := gfxtest.NewDevice()
	_, err := core.NewFrameDriver(&fakeWindow{}, dev, testAssets(), core.DefaultConfiguration, logger)
	c.Assert(errors.Is(err, core.ErrFatalConfiguration), qt.IsTrue)

	assets := testAssets()
	assets.Texture = model.Texture2D{}
	dev = gfxtest.NewDevice()
	_, err = core.NewFrameDriver(&fakeWindow{width: 800, height: 600}, dev, assets, core.DefaultConfiguration, logger)
	c.Assert(errors.Is(err, core.ErrFatalConfiguration), qt.IsTrue)
	c.Assert(err, qt.ErrorMatches, "texture: .*")
	c.Assert(dev.Live(), qt.Equals, 0)

	dev = gfxtest.NewDevice()
	dev.IncompleteFramebuffers = true
	_, err = core.NewFrameDriver(&fakeWindow{width: 800, height: 600}, dev, testAssets(), core.DefaultConfiguration, logger)
	c.Assert(errors.Is(err, core.ErrIncompleteTarget), qt.IsTrue)
	c.Assert(dev.Live(), qt.Equals, 0)
}

func TestBrokenShaderIsNotFatal(t *testing.T) {
	c := qt.New(t)
	logger, hook := nullLogger()
	dev := gfxtest.NewDevice()
	window := &fakeWindow{width: 800, height: 600}

	assets := testAssets()
	assets.SceneVertex = brokenSource
	d, err := core.NewFrameDriver(window, dev, assets, core.DefaultConfiguration, logger)
	c.Assert(err, qt.IsNil)

	var warnings []string
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			c.Assert(e.Data["program"], qt.Equals, core.SceneProgramName)
			warnings = append(warnings, e.Data["stage"].(string))
		}
	}
	c.Assert(warnings, qt.DeepEquals, []string{"vertex", "link"})

	c.Assert(d.Frame(), qt.IsNil)
	c.Assert(d.State().Angle, qt.Equals, core.AngleStep)
	c.Assert(dev.Draws, qt.HasLen, 1)
	c.Assert(dev.Draws[0].Mode, qt.Equals, gfx.TriangleFan)
}

func TestViewMatrix(t *testing.T) {
	c := qt.New(t)

	// camera sits on +Z looking at the origin
	eye := core.ViewMatrix(0).Inv().Mul4x1(glm.Vec4{0, 0, 0, 1})
	c.Assert(eye.ApproxEqual(glm.Vec4{0, 0, core.CameraRadius, 1}), qt.IsTrue)

	origin := core.ViewMatrix(1.3).Mul4x1(glm.Vec4{0, 0, 0, 1})
	c.Assert(origin.ApproxEqual(glm.Vec4{0, 0, -core.CameraRadius, 1}), qt.IsTrue)
}

func BenchmarkFrame(b *testing.B) {
	window := &fakeWindow{width: 800, height: 600}
	logger, _ := nullLogger()
	d, err := core.NewFrameDriver(window, gfxtest.NewDevice(), testAssets(), core.DefaultConfiguration, logger)
	if err != nil {
		b.Fatal(err)
	}
	for idx := 0; idx < b.N; idx++ {
		if err := d.Frame(); err != nil {
			b.Fatal(err)
		}
	}
}
