// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"context"
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/devblok/postfx/gfx"
	"github.com/devblok/postfx/model"
)

// Attribute names bound by the two programs
const (
	PointAttribute       = "inPoint"
	SceneCoordAttribute  = "inCoords"
	CompositeCoordAttrib = "inCoord"
)

// Program names used in diagnostics
const (
	SceneProgramName     = "scene"
	CompositeProgramName = "composite"
)

// FrameState is the mutable per-frame state. It is written by input
// handlers and by the scene pass, on the rendering thread only.
type FrameState struct {
	Angle    float32
	PointerX float32
	PointerY float32
	Effect   int32
}

// Assets are the host resources and shader sources the driver uploads.
type Assets struct {
	Geometry model.GeometryBuffer
	Texture  model.Texture2D

	SceneVertex       string
	SceneFragment     string
	CompositeVertex   string
	CompositeFragment string
}

// RenderContext owns everything the passes draw with.
// Passes receive it by reference on every frame.
type RenderContext struct {
	Device gfx.Device
	Log    logrus.FieldLogger

	Width, Height int
	State         FrameState

	Uploader         *Uploader
	SceneProgram     *ShaderProgram
	CompositeProgram *ShaderProgram
	Target           *OffscreenTarget

	Scene     *ScenePass
	Composite *CompositePass
}

// NewFrameDriver uploads assets, builds both programs and the offscreen
// target sized to the window. Shader diagnostics are logged and do not
// fail initialisation, invalid assets do.
func NewFrameDriver(window Window, dev gfx.Device, assets Assets, cfg Configuration, logger logrus.FieldLogger) (*FrameDriver, error) {
	width, height := window.Size()
	if width <= 0 || height <= 0 {
		return nil, errors.Wrapf(ErrFatalConfiguration, "core.NewFrameDriver(): window size %dx%d", width, height)
	}

	rc := &RenderContext{
		Device:   dev,
		Log:      logger,
		Width:    width,
		Height:   height,
		Uploader: NewUploader(dev, logger),
	}
	d := &FrameDriver{
		rc:     rc,
		window: window,
		cfg:    cfg,
	}
	if err := d.initialise(assets); err != nil {
		d.teardown()
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"width":    width,
		"height":   height,
		"vertices": assets.Geometry.VertexCount,
	}).Info("frame driver ready")
	return d, nil
}

// FrameDriver runs the scene pass, the composite pass and presents,
// once per frame, and routes input into the frame state.
type FrameDriver struct {
	rc     *RenderContext
	window Window
	cfg    Configuration

	frames     int64
	terminated bool
}

func (d *FrameDriver) initialise(assets Assets) error {
	rc := d.rc

	geometry, err := rc.Uploader.UploadGeometry(assets.Geometry)
	if err != nil {
		return errors.Wrap(err, "model")
	}
	diffuse, err := rc.Uploader.UploadTexture(assets.Texture, gfx.Nearest, gfx.Repeat)
	if err != nil {
		return errors.Wrap(err, "texture")
	}
	quad, err := rc.Uploader.UploadGeometry(FullScreenQuad())
	if err != nil {
		return errors.Wrap(err, "quad")
	}
	if rc.Target, err = NewOffscreenTarget(rc.Uploader, rc.Width, rc.Height); err != nil {
		return err
	}

	rc.SceneProgram = NewShaderProgram(rc.Device, SceneProgramName)
	if err := bindAttributes(rc.SceneProgram, SceneCoordAttribute); err != nil {
		return err
	}
	rc.SceneProgram.Compile(assets.SceneVertex, assets.SceneFragment).Log(rc.Log)

	rc.CompositeProgram = NewShaderProgram(rc.Device, CompositeProgramName)
	if err := bindAttributes(rc.CompositeProgram, CompositeCoordAttrib); err != nil {
		return err
	}
	rc.CompositeProgram.Compile(assets.CompositeVertex, assets.CompositeFragment).Log(rc.Log)

	rc.Scene = NewScenePass(rc.SceneProgram, geometry, diffuse)
	rc.Composite = NewCompositePass(rc.CompositeProgram, quad)

	rc.Device.ClearColor(0, 0, 0, 1)
	return nil
}

func bindAttributes(program *ShaderProgram, coord string) error {
	if err := program.BindAttribute(PointSlot, PointAttribute); err != nil {
		return err
	}
	return program.BindAttribute(CoordSlot, coord)
}

// Context returns the render context.
func (d *FrameDriver) Context() *RenderContext {
	return d.rc
}

// State returns a copy of the frame state.
func (d *FrameDriver) State() FrameState {
	return d.rc.State
}

// Frames returns the number of presented frames.
// It may be read from any goroutine.
func (d *FrameDriver) Frames() int64 {
	return atomic.LoadInt64(&d.frames)
}

// Terminated reports whether the driver has been shut down.
func (d *FrameDriver) Terminated() bool {
	return d.terminated
}

// Frame draws the scene pass, the composite pass and presents.
func (d *FrameDriver) Frame() error {
	if d.terminated {
		return ErrTerminated
	}
	if err := d.rc.Scene.Draw(d.rc); err != nil {
		return err
	}
	if err := d.rc.Composite.Draw(d.rc); err != nil {
		return err
	}
	d.rc.Device.Flush()
	d.window.Swap()
	atomic.AddInt64(&d.frames, 1)
	return nil
}

// KeyPressed shuts the driver down on KeyEscape, any other
// code becomes the effect index.
func (d *FrameDriver) KeyPressed(code byte) {
	if d.terminated {
		return
	}
	if code == KeyEscape {
		d.Shutdown()
		return
	}
	d.rc.State.Effect = int32(code)
}

// PointerMoved stores the pointer position with the Y axis flipped
// so that the origin is in the bottom left corner.
func (d *FrameDriver) PointerMoved(x, y float32) {
	d.rc.State.PointerX = x
	d.rc.State.PointerY = float32(d.rc.Height) - y
}

// Shutdown releases every device resource and terminates the driver.
func (d *FrameDriver) Shutdown() {
	if d.terminated {
		return
	}
	d.teardown()
	d.terminated = true
	d.rc.Log.Info("frame driver terminated")
}

func (d *FrameDriver) teardown() {
	rc := d.rc
	if rc.SceneProgram != nil {
		rc.SceneProgram.Destroy()
	}
	if rc.CompositeProgram != nil {
		rc.CompositeProgram.Destroy()
	}
	if rc.Target != nil {
		rc.Target.Destroy()
	}
	rc.Uploader.Release()
}

// Run drains window events and draws frames until the window quits,
// escape is pressed or ctx is done. Frames are paced by the
// configured frame rate when it is not zero.
func (d *FrameDriver) Run(ctx context.Context) error {
	timeService := NewTime(d.cfg.Time)
	defer timeService.Stop()

EventLoop:
	for {
		select {
		case <-ctx.Done():
			d.Shutdown()
			return ctx.Err()
		default:
		}

		for event := d.window.PollEvent(); event != nil; event = d.window.PollEvent() {
			switch et := event.(type) {
			case KeyEvent:
				d.KeyPressed(et.Code)
			case PointerEvent:
				d.PointerMoved(et.X, et.Y)
			case QuitEvent:
				d.Shutdown()
			}
			if d.terminated {
				break EventLoop
			}
		}

		if err := d.Frame(); err != nil {
			return err
		}

		if ticker := timeService.FpsTicker(); ticker != nil {
			select {
			case <-ctx.Done():
			case <-ticker.C:
			}
		}
	}
	return nil
}
