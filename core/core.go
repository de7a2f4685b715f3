// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package core implements the two-pass rendering pipeline. A scene pass
// draws a textured model into an offscreen target, and a composite pass
// samples the target's color and depth onto the visible surface.
package core

import (
	"github.com/pkg/errors"
)

// package errors
var (
	ErrFatalConfiguration = errors.New("fatal configuration error")
	ErrNotLinked          = errors.New("shader program is not linked")
	ErrAlreadyCompiled    = errors.New("shader program is already compiled")
	ErrIncompleteTarget   = errors.New("offscreen target is incomplete")
	ErrTargetBusy         = errors.New("offscreen target is bound for writing")
	ErrTerminated         = errors.New("frame driver is terminated")
)

// KeyEscape is the key code that terminates the frame driver.
const KeyEscape byte = 27

// Window is the visible surface and the source of input events.
// It is owned by the thread that owns the graphics context.
type Window interface {

	// Size returns the drawable size in pixels.
	Size() (width, height int)

	// PollEvent returns the next pending event, or nil
	// when the queue is drained.
	PollEvent() Event

	// Swap presents the default framebuffer.
	Swap()
}

// Event is an input event delivered by a Window.
type Event interface{}

// KeyEvent is a typed character, or KeyEscape.
type KeyEvent struct {
	Code byte
}

// CharEvent converts a typed character into a KeyEvent. Only ASCII
// characters are kept.
func CharEvent(char rune) (KeyEvent, bool) {
	if char <= 0 || char >= 0x80 {
		return KeyEvent{}, false
	}
	return KeyEvent{Code: byte(char)}, true
}

// PointerEvent is a pointer move in drawable pixels,
// with the origin in the top left corner.
type PointerEvent struct {
	X, Y float32
}

// ScaledPointer converts a pointer position in window coordinates into
// drawable pixels, which differ on high density displays.
func ScaledPointer(x, y float64, windowWidth, windowHeight, pixelWidth, pixelHeight int) PointerEvent {
	if windowWidth > 0 && windowHeight > 0 {
		x *= float64(pixelWidth) / float64(windowWidth)
		y *= float64(pixelHeight) / float64(windowHeight)
	}
	return PointerEvent{X: float32(x), Y: float32(y)}
}

// QuitEvent requests the window to close.
type QuitEvent struct{}
