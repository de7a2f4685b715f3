// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"github.com/pkg/errors"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/devblok/postfx/core"
)

const windowTitle = "postfx"

type sdlHost struct {
	window  *sdl.Window
	context sdl.GLContext
}

func newSDLHost(cfg core.RendererConfiguration) (*sdlHost, error) {
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return nil, errors.Wrap(err, "sdl.Init()")
	}

	for attr, value := range map[sdl.GLattr]int{
		sdl.GL_CONTEXT_MAJOR_VERSION: 4,
		sdl.GL_CONTEXT_MINOR_VERSION: 1,
		sdl.GL_CONTEXT_PROFILE_MASK:  sdl.GL_CONTEXT_PROFILE_CORE,
		sdl.GL_CONTEXT_FLAGS:         sdl.GL_CONTEXT_FORWARD_COMPATIBLE_FLAG,
		sdl.GL_DOUBLEBUFFER:          1,
		sdl.GL_DEPTH_SIZE:            24,
	} {
		if err := sdl.GLSetAttribute(attr, value); err != nil {
			sdl.Quit()
			return nil, errors.Wrap(err, "sdl.GLSetAttribute()")
		}
	}

	window, err := sdl.CreateWindow(windowTitle,
		sdl.WINDOWPOS_UNDEFINED,
		sdl.WINDOWPOS_UNDEFINED,
		int32(cfg.ScreenWidth),
		int32(cfg.ScreenHeight),
		sdl.WINDOW_OPENGL)
	if err != nil {
		sdl.Quit()
		return nil, errors.Wrap(err, "sdl.CreateWindow()")
	}

	context, err := window.GLCreateContext()
	if err != nil {
		window.Destroy()
		sdl.Quit()
		return nil, errors.Wrap(err, "sdl.GLCreateContext()")
	}

	interval := 0
	if cfg.VSync {
		interval = 1
	}
	if err := sdl.GLSetSwapInterval(interval); err != nil {
		sdl.GLDeleteContext(context)
		window.Destroy()
		sdl.Quit()
		return nil, errors.Wrap(err, "sdl.GLSetSwapInterval()")
	}

	sdl.StartTextInput()
	return &sdlHost{window: window, context: context}, nil
}

// Size implements interface
func (h *sdlHost) Size() (int, int) {
	w, ht := h.window.GLGetDrawableSize()
	return int(w), int(ht)
}

// PollEvent implements interface
func (h *sdlHost) PollEvent() core.Event {
	for {
		switch et := sdl.PollEvent().(type) {
		case nil:
			return nil
		case *sdl.KeyboardEvent:
			if et.Type == sdl.KEYDOWN && et.Keysym.Sym == sdl.K_ESCAPE {
				return core.KeyEvent{Code: core.KeyEscape}
			}
		case *sdl.TextInputEvent:
			if et.Text[0] != 0 && et.Text[0] < 0x80 && et.Text[1] == 0 {
				return core.KeyEvent{Code: et.Text[0]}
			}
		case *sdl.MouseMotionEvent:
			ww, wh := h.window.GetSize()
			pw, ph := h.Size()
			return core.ScaledPointer(float64(et.X), float64(et.Y), int(ww), int(wh), pw, ph)
		case *sdl.QuitEvent:
			return core.QuitEvent{}
		}
	}
}

// Swap implements interface
func (h *sdlHost) Swap() {
	h.window.GLSwap()
}

func (h *sdlHost) Destroy() {
	sdl.StopTextInput()
	sdl.GLDeleteContext(h.context)
	h.window.Destroy()
	sdl.Quit()
}
