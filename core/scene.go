// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"math"

	glm "github.com/go-gl/mathgl/mgl32"

	"github.com/devblok/postfx/gfx"
)

// Camera and animation constants of the scene pass
const (
	CameraRadius = 5
	FieldOfView  = 45
	NearPlane    = 0.1
	FarPlane     = 100

	// AngleStep is added to the camera angle once per frame.
	AngleStep float32 = math.Pi / 5000
)

// Uniform names read by the scene program
const (
	ModelMatrixUniform      = "modelMatrix"
	ViewMatrixUniform       = "viewMatrix"
	ProjectionMatrixUniform = "projMatrix"
	TextureDataUniform      = "textureData"
)

// DiffuseUnit is the texture unit the diffuse map is bound to.
const DiffuseUnit uint32 = 0

// ViewMatrix places the camera CameraRadius away from the origin,
// orbiting around the Y axis by angle radians.
func ViewMatrix(angle float32) glm.Mat4 {
	return glm.Translate3D(0, 0, -CameraRadius).Mul4(glm.HomogRotate3DY(angle))
}

// ProjectionMatrix is the scene perspective for a target of the given size.
func ProjectionMatrix(width, height int) glm.Mat4 {
	return glm.Perspective(glm.DegToRad(FieldOfView), float32(width)/float32(height), NearPlane, FarPlane)
}

// NewScenePass resolves the scene uniforms of program.
func NewScenePass(program *ShaderProgram, geometry Geometry, diffuse gfx.Texture) *ScenePass {
	p := &ScenePass{
		program:  program,
		geometry: geometry,
		diffuse:  diffuse,
	}
	p.model = location(program, ModelMatrixUniform)
	p.view = location(program, ViewMatrixUniform)
	p.projection = location(program, ProjectionMatrixUniform)
	p.sampler = location(program, TextureDataUniform)
	return p
}

// ScenePass draws the textured model into the offscreen target.
type ScenePass struct {
	program  *ShaderProgram
	geometry Geometry
	diffuse  gfx.Texture

	model, view, projection, sampler gfx.Location
}

// Draw clears the offscreen target and draws the model from the current
// camera angle, then advances the angle by AngleStep. A program that
// failed to link draws nothing but the angle still advances.
func (p *ScenePass) Draw(rc *RenderContext) error {
	dev := rc.Device
	width, height := rc.Target.Size()

	rc.Target.BindForWriting()
	dev.SetDepthTest(true)
	dev.Clear()

	if p.program.Valid() {
		dev.UseProgram(p.program.Handle())
		dev.UniformMatrix4(p.model, glm.Ident4())
		dev.UniformMatrix4(p.view, ViewMatrix(rc.State.Angle))
		dev.UniformMatrix4(p.projection, ProjectionMatrix(width, height))
		dev.BindTexture(DiffuseUnit, p.diffuse)
		dev.Uniform1i(p.sampler, int32(DiffuseUnit))
		dev.BindVertexArray(p.geometry.VertexArray)
		dev.DrawArrays(gfx.Triangles, 0, p.geometry.VertexCount)
	}

	rc.Target.UnbindForWriting()
	rc.State.Angle += AngleStep
	return nil
}

// location resolves a uniform, treating an unlinked program
// as one without uniforms.
func location(program *ShaderProgram, name string) gfx.Location {
	l, err := program.UniformLocation(name)
	if err != nil {
		return gfx.Unused
	}
	return l
}
