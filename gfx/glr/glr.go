// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package glr implements the OpenGL 4.1 core profile renderer device.
package glr

import (
	"strings"

	"github.com/devblok/postfx/gfx"
	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/pkg/errors"
)

// New loads the OpenGL function pointers for the context current on the
// calling thread and returns a device bound to it.
func New() (*Device, error) {
	if err := gl.Init(); err != nil {
		return nil, errors.Wrap(err, "gl.Init()")
	}
	return &Device{
		version:  gl.GoStr(gl.GetString(gl.VERSION)),
		renderer: gl.GoStr(gl.GetString(gl.RENDERER)),
	}, nil
}

// Device is an OpenGL device.
type Device struct {
	version  string
	renderer string
}

// Version returns the driver's version string.
func (d *Device) Version() string {
	return d.version
}

// Renderer returns the driver's renderer string.
func (d *Device) Renderer() string {
	return d.renderer
}

var _ gfx.Device = (*Device)(nil)

// CreateBuffer implements interface
func (d *Device) CreateBuffer(data []float32) gfx.Buffer {
	var buffer uint32
	gl.GenBuffers(1, &buffer)
	gl.BindBuffer(gl.ARRAY_BUFFER, buffer)
	if len(data) > 0 {
		gl.BufferData(gl.ARRAY_BUFFER, 4*len(data), gl.Ptr(data), gl.STATIC_DRAW)
	} else {
		gl.BufferData(gl.ARRAY_BUFFER, 0, nil, gl.STATIC_DRAW)
	}
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	return gfx.Buffer(buffer)
}

// BufferSize implements interface
func (d *Device) BufferSize(b gfx.Buffer) int {
	var size int32
	gl.BindBuffer(gl.ARRAY_BUFFER, uint32(b))
	gl.GetBufferParameteriv(gl.ARRAY_BUFFER, gl.BUFFER_SIZE, &size)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	return int(size)
}

// CreateVertexArray implements interface
func (d *Device) CreateVertexArray(attributes []gfx.VertexAttribute) gfx.VertexArray {
	var vao uint32
	gl.GenVertexArrays(1, &vao)
	gl.BindVertexArray(vao)
	for _, attr := range attributes {
		gl.BindBuffer(gl.ARRAY_BUFFER, uint32(attr.Buffer))
		gl.VertexAttribPointerWithOffset(attr.Slot, attr.Components, gl.FLOAT, false, 0, 0)
		gl.EnableVertexAttribArray(attr.Slot)
	}
	gl.BindVertexArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	return gfx.VertexArray(vao)
}

func textureFormat(f gfx.PixelFormat) (internal int32, format, xtype uint32) {
	switch f {
	case gfx.RGBA8:
		return gl.RGBA8, gl.RGBA, gl.UNSIGNED_BYTE
	case gfx.Depth24:
		return gl.DEPTH_COMPONENT24, gl.DEPTH_COMPONENT, gl.FLOAT
	default:
		return gl.RGB8, gl.RGB, gl.UNSIGNED_BYTE
	}
}

// CreateTexture implements interface
func (d *Device) CreateTexture(desc gfx.TextureDescriptor, pixels []byte) gfx.Texture {
	var texture uint32
	gl.GenTextures(1, &texture)
	gl.BindTexture(gl.TEXTURE_2D, texture)

	internal, format, xtype := textureFormat(desc.Format)
	// RGB rows are not 4-byte aligned for odd widths
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	if len(pixels) > 0 {
		gl.TexImage2D(gl.TEXTURE_2D, 0, internal, int32(desc.Width), int32(desc.Height), 0, format, xtype, gl.Ptr(pixels))
	} else {
		gl.TexImage2D(gl.TEXTURE_2D, 0, internal, int32(desc.Width), int32(desc.Height), 0, format, xtype, nil)
	}

	filter := int32(gl.NEAREST)
	if desc.Filter == gfx.Linear {
		filter = gl.LINEAR
	}
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, filter)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, filter)

	wrap := int32(gl.REPEAT)
	if desc.Wrap == gfx.ClampToEdge {
		wrap = gl.CLAMP_TO_EDGE
	}
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, wrap)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, wrap)

	gl.BindTexture(gl.TEXTURE_2D, 0)
	return gfx.Texture(texture)
}

// TextureSize implements interface
func (d *Device) TextureSize(t gfx.Texture) (int, int) {
	var width, height int32
	gl.BindTexture(gl.TEXTURE_2D, uint32(t))
	gl.GetTexLevelParameteriv(gl.TEXTURE_2D, 0, gl.TEXTURE_WIDTH, &width)
	gl.GetTexLevelParameteriv(gl.TEXTURE_2D, 0, gl.TEXTURE_HEIGHT, &height)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	return int(width), int(height)
}

// CreateFramebuffer implements interface
func (d *Device) CreateFramebuffer(color, depth gfx.Texture) (gfx.Framebuffer, bool) {
	var fbo uint32
	gl.GenFramebuffers(1, &fbo)
	gl.BindFramebuffer(gl.FRAMEBUFFER, fbo)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, uint32(color), 0)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT, gl.TEXTURE_2D, uint32(depth), 0)
	complete := gl.CheckFramebufferStatus(gl.FRAMEBUFFER) == gl.FRAMEBUFFER_COMPLETE
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	return gfx.Framebuffer(fbo), complete
}

// BindFramebuffer implements interface
func (d *Device) BindFramebuffer(f gfx.Framebuffer) {
	gl.BindFramebuffer(gl.FRAMEBUFFER, uint32(f))
}

// Viewport implements interface
func (d *Device) Viewport(width, height int) {
	gl.Viewport(0, 0, int32(width), int32(height))
}

// ClearColor implements interface
func (d *Device) ClearColor(r, g, b, a float32) {
	gl.ClearColor(r, g, b, a)
}

// Clear implements interface
func (d *Device) Clear() {
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

// SetDepthTest implements interface
func (d *Device) SetDepthTest(enabled bool) {
	if enabled {
		gl.Enable(gl.DEPTH_TEST)
	} else {
		gl.Disable(gl.DEPTH_TEST)
	}
}

// CreateShader implements interface
func (d *Device) CreateShader(stage gfx.ShaderStage, source string) gfx.Shader {
	xtype := uint32(gl.VERTEX_SHADER)
	if stage == gfx.FragmentStage {
		xtype = gl.FRAGMENT_SHADER
	}
	shader := gl.CreateShader(xtype)
	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	return gfx.Shader(shader)
}

// CompileShader implements interface
func (d *Device) CompileShader(s gfx.Shader) (bool, string) {
	gl.CompileShader(uint32(s))

	var status int32
	gl.GetShaderiv(uint32(s), gl.COMPILE_STATUS, &status)
	if status == gl.TRUE {
		return true, ""
	}

	var logLength int32
	gl.GetShaderiv(uint32(s), gl.INFO_LOG_LENGTH, &logLength)
	log := strings.Repeat("\x00", int(logLength+1))
	gl.GetShaderInfoLog(uint32(s), logLength, nil, gl.Str(log))
	return false, strings.TrimRight(log, "\x00")
}

// CreateProgram implements interface
func (d *Device) CreateProgram() gfx.Program {
	return gfx.Program(gl.CreateProgram())
}

// AttachShader implements interface
func (d *Device) AttachShader(p gfx.Program, s gfx.Shader) {
	gl.AttachShader(uint32(p), uint32(s))
}

// BindAttribLocation implements interface
func (d *Device) BindAttribLocation(p gfx.Program, slot uint32, name string) {
	gl.BindAttribLocation(uint32(p), slot, gl.Str(name+"\x00"))
}

// LinkProgram implements interface
func (d *Device) LinkProgram(p gfx.Program) (bool, string) {
	gl.LinkProgram(uint32(p))

	var status int32
	gl.GetProgramiv(uint32(p), gl.LINK_STATUS, &status)
	if status == gl.TRUE {
		return true, ""
	}

	var logLength int32
	gl.GetProgramiv(uint32(p), gl.INFO_LOG_LENGTH, &logLength)
	log := strings.Repeat("\x00", int(logLength+1))
	gl.GetProgramInfoLog(uint32(p), logLength, nil, gl.Str(log))
	return false, strings.TrimRight(log, "\x00")
}

// ActiveUniforms implements interface
func (d *Device) ActiveUniforms(p gfx.Program) []string {
	var count, maxLength int32
	gl.GetProgramiv(uint32(p), gl.ACTIVE_UNIFORMS, &count)
	gl.GetProgramiv(uint32(p), gl.ACTIVE_UNIFORM_MAX_LENGTH, &maxLength)
	if count == 0 || maxLength == 0 {
		return nil
	}

	names := make([]string, 0, count)
	buf := make([]uint8, maxLength)
	for idx := uint32(0); idx < uint32(count); idx++ {
		var (
			length int32
			size   int32
			xtype  uint32
		)
		gl.GetActiveUniform(uint32(p), idx, maxLength, &length, &size, &xtype, &buf[0])
		names = append(names, string(buf[:length]))
	}
	return names
}

// UniformLocation implements interface
func (d *Device) UniformLocation(p gfx.Program, name string) gfx.Location {
	return gfx.Location(gl.GetUniformLocation(uint32(p), gl.Str(name+"\x00")))
}

// UseProgram implements interface
func (d *Device) UseProgram(p gfx.Program) {
	gl.UseProgram(uint32(p))
}

// UniformMatrix4 implements interface
func (d *Device) UniformMatrix4(l gfx.Location, m [16]float32) {
	gl.UniformMatrix4fv(int32(l), 1, false, &m[0])
}

// Uniform1i implements interface
func (d *Device) Uniform1i(l gfx.Location, v int32) {
	gl.Uniform1i(int32(l), v)
}

// Uniform1iv implements interface
func (d *Device) Uniform1iv(l gfx.Location, v []int32) {
	if len(v) == 0 {
		return
	}
	gl.Uniform1iv(int32(l), int32(len(v)), &v[0])
}

// Uniform1f implements interface
func (d *Device) Uniform1f(l gfx.Location, v float32) {
	gl.Uniform1f(int32(l), v)
}

// BindVertexArray implements interface
func (d *Device) BindVertexArray(v gfx.VertexArray) {
	gl.BindVertexArray(uint32(v))
}

// BindTexture implements interface
func (d *Device) BindTexture(unit uint32, t gfx.Texture) {
	gl.ActiveTexture(gl.TEXTURE0 + unit)
	gl.BindTexture(gl.TEXTURE_2D, uint32(t))
}

// DrawArrays implements interface
func (d *Device) DrawArrays(mode gfx.Primitive, first, count int32) {
	xmode := uint32(gl.TRIANGLES)
	if mode == gfx.TriangleFan {
		xmode = gl.TRIANGLE_FAN
	}
	gl.DrawArrays(xmode, first, count)
}

// Flush implements interface
func (d *Device) Flush() {
	gl.Flush()
}

// DeleteBuffer implements interface
func (d *Device) DeleteBuffer(b gfx.Buffer) {
	buffer := uint32(b)
	gl.DeleteBuffers(1, &buffer)
}

// DeleteVertexArray implements interface
func (d *Device) DeleteVertexArray(v gfx.VertexArray) {
	vao := uint32(v)
	gl.DeleteVertexArrays(1, &vao)
}

// DeleteTexture implements interface
func (d *Device) DeleteTexture(t gfx.Texture) {
	texture := uint32(t)
	gl.DeleteTextures(1, &texture)
}

// DeleteFramebuffer implements interface
func (d *Device) DeleteFramebuffer(f gfx.Framebuffer) {
	fbo := uint32(f)
	gl.DeleteFramebuffers(1, &fbo)
}

// DeleteShader implements interface
func (d *Device) DeleteShader(s gfx.Shader) {
	gl.DeleteShader(uint32(s))
}

// DeleteProgram implements interface
func (d *Device) DeleteProgram(p gfx.Program) {
	gl.DeleteProgram(uint32(p))
}
