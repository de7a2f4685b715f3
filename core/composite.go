// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"github.com/pkg/errors"

	"github.com/devblok/postfx/gfx"
	"github.com/devblok/postfx/model"
)

// Uniform names read by the composite program
const (
	TextureIndexUniform = "textureIndex"
	MouseXUniform       = "mouseX"
	MouseYUniform       = "mouseY"
)

// Texture units the offscreen attachments are bound to
const (
	ColorUnit uint32 = 0
	DepthUnit uint32 = 1
)

// QuadDepth is the z coordinate of the full screen quad.
const QuadDepth = -0.1

// FullScreenQuad returns the four corners of a quad covering the whole
// surface, in fan order, with texture coordinates spanning [0, 1].
func FullScreenQuad() model.GeometryBuffer {
	return model.GeometryBuffer{
		Positions: []float32{
			-1, -1, QuadDepth,
			1, -1, QuadDepth,
			1, 1, QuadDepth,
			-1, 1, QuadDepth,
		},
		Normals: []float32{
			0, 0, 1,
			0, 0, 1,
			0, 0, 1,
			0, 0, 1,
		},
		Coords: []float32{
			0, 0,
			1, 0,
			1, 1,
			0, 1,
		},
		VertexCount: 4,
	}
}

// NewCompositePass resolves the composite uniforms of program.
func NewCompositePass(program *ShaderProgram, quad Geometry) *CompositePass {
	return &CompositePass{
		program:  program,
		quad:     quad,
		samplers: location(program, TextureDataUniform),
		effect:   location(program, TextureIndexUniform),
		mouseX:   location(program, MouseXUniform),
		mouseY:   location(program, MouseYUniform),
	}
}

// CompositePass draws the offscreen target onto the visible surface
// through the composite program.
type CompositePass struct {
	program *ShaderProgram
	quad    Geometry

	samplers, effect, mouseX, mouseY gfx.Location
}

// Draw samples the color and depth attachments on a full screen quad.
// The effect index and pointer position are passed through unmodified.
func (p *CompositePass) Draw(rc *RenderContext) error {
	dev := rc.Device

	dev.BindFramebuffer(gfx.DefaultFramebuffer)
	dev.Viewport(rc.Width, rc.Height)
	dev.SetDepthTest(false)
	dev.Clear()

	if !p.program.Valid() {
		return nil
	}

	dev.UseProgram(p.program.Handle())
	if err := rc.Target.BindForReading(ColorUnit, DepthUnit); err != nil {
		return errors.Wrap(err, "core.CompositePass.Draw()")
	}
	dev.Uniform1iv(p.samplers, []int32{int32(ColorUnit), int32(DepthUnit)})
	dev.Uniform1i(p.effect, rc.State.Effect)
	dev.Uniform1f(p.mouseX, rc.State.PointerX)
	dev.Uniform1f(p.mouseY, rc.State.PointerY)
	dev.BindVertexArray(p.quad.VertexArray)
	dev.DrawArrays(gfx.TriangleFan, 0, p.quad.VertexCount)
	return nil
}
