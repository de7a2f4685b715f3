// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package gfx defines the rendering device that the pipeline draws through.
// Renderers implement Device over a concrete graphics API.
package gfx

// Releasable defines any memory-occupying item that can be freed.
type Releasable interface {

	// Release releases memory occupied by the implementing structure.
	Release()
}

// Handles to device objects. The zero value never names a live object.
type (
	Buffer      uint32
	VertexArray uint32
	Texture     uint32
	Framebuffer uint32
	Shader      uint32
	Program     uint32
)

// DefaultFramebuffer is the visible surface.
const DefaultFramebuffer Framebuffer = 0

// Location is a uniform slot inside a linked program.
type Location int32

// Unused is returned for uniforms the program does not have,
// either undeclared or stripped by the compiler.
const Unused Location = -1

// ShaderStage identifies a programmable pipeline stage.
type ShaderStage int

// Identifies shader objects with their stages
const (
	VertexStage ShaderStage = iota
	FragmentStage
)

func (s ShaderStage) String() string {
	switch s {
	case VertexStage:
		return "vertex"
	case FragmentStage:
		return "fragment"
	}
	return "unknown"
}

// PixelFormat is the storage layout of a texture.
type PixelFormat int

// Supported texture formats
const (
	RGB8 PixelFormat = iota
	RGBA8
	Depth24
)

// Channels returns the number of 8-bit channels in host memory,
// depth textures have no host representation.
func (f PixelFormat) Channels() int {
	switch f {
	case RGB8:
		return 3
	case RGBA8:
		return 4
	}
	return 0
}

// Filter is the sampling filter used for both minification and magnification.
type Filter int

// Sampling filters
const (
	Nearest Filter = iota
	Linear
)

// Wrap is the texture coordinate wrapping mode for both axes.
type Wrap int

// Wrapping modes
const (
	Repeat Wrap = iota
	ClampToEdge
)

// TextureDescriptor describes texture storage and sampling.
type TextureDescriptor struct {
	Width  int
	Height int
	Format PixelFormat
	Filter Filter
	Wrap   Wrap
}

// Primitive is the topology used by a draw call.
type Primitive int

// Draw topologies
const (
	Triangles Primitive = iota
	TriangleFan
)

// VertexAttribute attaches a float buffer to an attribute slot.
type VertexAttribute struct {
	Slot       uint32
	Components int32
	Buffer     Buffer
}

// Device is a graphics device bound to the calling thread.
// It is not safe for concurrent use; every call must come from
// the thread that owns the context.
type Device interface {

	// CreateBuffer uploads float data into a static vertex buffer.
	CreateBuffer(data []float32) Buffer

	// BufferSize returns the size of a buffer's storage in bytes.
	BufferSize(Buffer) int

	// CreateVertexArray records attribute bindings into a vertex array.
	CreateVertexArray(attributes []VertexAttribute) VertexArray

	// CreateTexture allocates a 2-D texture, pixels may be nil
	// to allocate storage only.
	CreateTexture(desc TextureDescriptor, pixels []byte) Texture

	// TextureSize returns the dimensions of level 0 of a texture.
	TextureSize(Texture) (width, height int)

	// CreateFramebuffer bundles a color and a depth texture into a
	// render target. It reports whether the framebuffer is complete.
	CreateFramebuffer(color, depth Texture) (Framebuffer, bool)

	BindFramebuffer(Framebuffer)
	Viewport(width, height int)
	ClearColor(r, g, b, a float32)
	Clear()
	SetDepthTest(enabled bool)

	// CreateShader creates a shader object and sets its source.
	CreateShader(stage ShaderStage, source string) Shader

	// CompileShader compiles and reports success and the info log.
	CompileShader(Shader) (bool, string)

	CreateProgram() Program
	AttachShader(Program, Shader)
	BindAttribLocation(p Program, slot uint32, name string)

	// LinkProgram links and reports success and the info log.
	LinkProgram(Program) (bool, string)

	// ActiveUniforms lists the names of active uniforms in a linked
	// program, as reported by the driver.
	ActiveUniforms(Program) []string

	UniformLocation(p Program, name string) Location
	UseProgram(Program)

	UniformMatrix4(l Location, m [16]float32)
	Uniform1i(l Location, v int32)
	Uniform1iv(l Location, v []int32)
	Uniform1f(l Location, v float32)

	BindVertexArray(VertexArray)
	BindTexture(unit uint32, t Texture)
	DrawArrays(mode Primitive, first, count int32)
	Flush()

	DeleteBuffer(Buffer)
	DeleteVertexArray(VertexArray)
	DeleteTexture(Texture)
	DeleteFramebuffer(Framebuffer)
	DeleteShader(Shader)
	DeleteProgram(Program)
}
