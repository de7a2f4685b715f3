// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/pkg/errors"

	"github.com/devblok/postfx/core"
)

// glfwHost queues the events delivered by glfw callbacks.
type glfwHost struct {
	window *glfw.Window
	events []core.Event
}

func newGLFWHost(cfg core.RendererConfiguration) (*glfwHost, error) {
	if err := glfw.Init(); err != nil {
		return nil, errors.Wrap(err, "glfw.Init()")
	}

	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.DepthBits, 24)
	glfw.WindowHint(glfw.Resizable, glfw.False)

	window, err := glfw.CreateWindow(int(cfg.ScreenWidth), int(cfg.ScreenHeight), windowTitle, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, errors.Wrap(err, "glfw.CreateWindow()")
	}
	window.MakeContextCurrent()

	if cfg.VSync {
		glfw.SwapInterval(1)
	} else {
		glfw.SwapInterval(0)
	}

	h := &glfwHost{window: window}
	window.SetKeyCallback(h.onKey)
	window.SetCharCallback(h.onChar)
	window.SetCursorPosCallback(h.onCursor)
	window.SetCloseCallback(h.onClose)
	return h, nil
}

func (h *glfwHost) onKey(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
	if action == glfw.Press && key == glfw.KeyEscape {
		h.events = append(h.events, core.KeyEvent{Code: core.KeyEscape})
	}
}

func (h *glfwHost) onChar(_ *glfw.Window, char rune) {
	if event, ok := core.CharEvent(char); ok {
		h.events = append(h.events, event)
	}
}

func (h *glfwHost) onCursor(w *glfw.Window, x, y float64) {
	ww, wh := w.GetSize()
	pw, ph := w.GetFramebufferSize()
	h.events = append(h.events, core.ScaledPointer(x, y, ww, wh, pw, ph))
}

func (h *glfwHost) onClose(_ *glfw.Window) {
	h.events = append(h.events, core.QuitEvent{})
}

// Size implements interface
func (h *glfwHost) Size() (int, int) {
	return h.window.GetFramebufferSize()
}

// PollEvent implements interface
func (h *glfwHost) PollEvent() core.Event {
	if len(h.events) == 0 {
		glfw.PollEvents()
	}
	if len(h.events) == 0 {
		return nil
	}
	event := h.events[0]
	h.events = h.events[1:]
	return event
}

// Swap implements interface
func (h *glfwHost) Swap() {
	h.window.SwapBuffers()
}

func (h *glfwHost) Destroy() {
	h.window.Destroy()
	glfw.Terminate()
}
