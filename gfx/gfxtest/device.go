// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package gfxtest provides a recording gfx.Device for tests that
// run without a graphics context.
//
// Shaders are "compiled" by a shallow syntax check: the source must
// declare a main function and have balanced braces. Uniform declarations
// are scanned from the source so that linked programs report the same
// active uniforms a driver would, arrays included as "name[0]".
package gfxtest

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/devblok/postfx/gfx"
)

var uniformDecl = regexp.MustCompile(`(?m)^\s*uniform\s+(?:(?:lowp|mediump|highp)\s+)?\w+\s+([^;]+);`)

type shaderObject struct {
	stage    gfx.ShaderStage
	source   string
	compiled bool
	uniforms []string
}

type programObject struct {
	shaders   []gfx.Shader
	attribs   map[string]uint32
	linked    bool
	active    []string
	locations map[string]gfx.Location
	values    map[gfx.Location]interface{}
}

// Draw is a recorded draw call with the state it was issued under.
type Draw struct {
	Framebuffer gfx.Framebuffer
	Program     gfx.Program
	VertexArray gfx.VertexArray
	Mode        gfx.Primitive
	First       int32
	Count       int32
	DepthTest   bool
	Units       map[uint32]gfx.Texture
	Viewport    [2]int
}

// Device records calls and keeps enough object state to answer queries.
type Device struct {
	// IncompleteFramebuffers makes CreateFramebuffer report failure.
	IncompleteFramebuffers bool

	next uint32

	buffers      map[gfx.Buffer]int
	vertexArrays map[gfx.VertexArray][]gfx.VertexAttribute
	textures     map[gfx.Texture]gfx.TextureDescriptor
	framebuffers map[gfx.Framebuffer][2]gfx.Texture
	shaders      map[gfx.Shader]*shaderObject
	programs     map[gfx.Program]*programObject

	framebuffer gfx.Framebuffer
	program     gfx.Program
	vertexArray gfx.VertexArray
	depthTest   bool
	units       map[uint32]gfx.Texture
	viewport    [2]int

	// Calls lists every device call in issue order.
	Calls []string
	// Draws lists every draw call in issue order.
	Draws []Draw
	// Flushes counts Flush calls.
	Flushes int
}

// NewDevice creates an empty recording device.
func NewDevice() *Device {
	return &Device{
		buffers:      make(map[gfx.Buffer]int),
		vertexArrays: make(map[gfx.VertexArray][]gfx.VertexAttribute),
		textures:     make(map[gfx.Texture]gfx.TextureDescriptor),
		framebuffers: make(map[gfx.Framebuffer][2]gfx.Texture),
		shaders:      make(map[gfx.Shader]*shaderObject),
		programs:     make(map[gfx.Program]*programObject),
		units:        make(map[uint32]gfx.Texture),
	}
}

func (d *Device) handle() uint32 {
	d.next++
	return d.next
}

func (d *Device) record(format string, args ...interface{}) {
	d.Calls = append(d.Calls, fmt.Sprintf(format, args...))
}

var _ gfx.Device = (*Device)(nil)

// CreateBuffer implements interface
func (d *Device) CreateBuffer(data []float32) gfx.Buffer {
	b := gfx.Buffer(d.handle())
	d.buffers[b] = 4 * len(data)
	d.record("CreateBuffer(%d)", len(data))
	return b
}

// BufferSize implements interface
func (d *Device) BufferSize(b gfx.Buffer) int {
	return d.buffers[b]
}

// CreateVertexArray implements interface
func (d *Device) CreateVertexArray(attributes []gfx.VertexAttribute) gfx.VertexArray {
	v := gfx.VertexArray(d.handle())
	d.vertexArrays[v] = append([]gfx.VertexAttribute(nil), attributes...)
	d.record("CreateVertexArray(%d)", len(attributes))
	return v
}

// VertexAttributes returns the bindings recorded in a vertex array.
func (d *Device) VertexAttributes(v gfx.VertexArray) []gfx.VertexAttribute {
	return d.vertexArrays[v]
}

// CreateTexture implements interface
func (d *Device) CreateTexture(desc gfx.TextureDescriptor, pixels []byte) gfx.Texture {
	t := gfx.Texture(d.handle())
	d.textures[t] = desc
	d.record("CreateTexture(%dx%d)", desc.Width, desc.Height)
	return t
}

// TextureSize implements interface
func (d *Device) TextureSize(t gfx.Texture) (int, int) {
	desc := d.textures[t]
	return desc.Width, desc.Height
}

// TextureDescriptor returns the descriptor a texture was created with.
func (d *Device) TextureDescriptor(t gfx.Texture) (gfx.TextureDescriptor, bool) {
	desc, ok := d.textures[t]
	return desc, ok
}

// CreateFramebuffer implements interface
func (d *Device) CreateFramebuffer(color, depth gfx.Texture) (gfx.Framebuffer, bool) {
	f := gfx.Framebuffer(d.handle())
	d.framebuffers[f] = [2]gfx.Texture{color, depth}
	d.record("CreateFramebuffer")
	return f, !d.IncompleteFramebuffers
}

// Attachments returns the color and depth textures of a framebuffer.
func (d *Device) Attachments(f gfx.Framebuffer) (gfx.Texture, gfx.Texture) {
	a := d.framebuffers[f]
	return a[0], a[1]
}

// BindFramebuffer implements interface
func (d *Device) BindFramebuffer(f gfx.Framebuffer) {
	d.framebuffer = f
	d.record("BindFramebuffer(%d)", f)
}

// Framebuffer returns the bound framebuffer.
func (d *Device) Framebuffer() gfx.Framebuffer {
	return d.framebuffer
}

// Viewport implements interface
func (d *Device) Viewport(width, height int) {
	d.viewport = [2]int{width, height}
	d.record("Viewport(%d,%d)", width, height)
}

// ClearColor implements interface
func (d *Device) ClearColor(r, g, b, a float32) {
	d.record("ClearColor")
}

// Clear implements interface
func (d *Device) Clear() {
	d.record("Clear(%d)", d.framebuffer)
}

// SetDepthTest implements interface
func (d *Device) SetDepthTest(enabled bool) {
	d.depthTest = enabled
	d.record("SetDepthTest(%t)", enabled)
}

// CreateShader implements interface
func (d *Device) CreateShader(stage gfx.ShaderStage, source string) gfx.Shader {
	s := gfx.Shader(d.handle())
	d.shaders[s] = &shaderObject{stage: stage, source: source}
	d.record("CreateShader(%s)", stage)
	return s
}

// CompileShader implements interface
func (d *Device) CompileShader(s gfx.Shader) (bool, string) {
	obj, ok := d.shaders[s]
	if !ok {
		return false, "invalid shader object"
	}
	d.record("CompileShader(%s)", obj.stage)

	if !strings.Contains(obj.source, "main") {
		return false, "0:1(1): error: no function with name 'main'"
	}
	if strings.Count(obj.source, "{") != strings.Count(obj.source, "}") {
		return false, "0:1(1): error: syntax error, unexpected end of file"
	}

	obj.compiled = true
	obj.uniforms = nil
	for _, m := range uniformDecl.FindAllStringSubmatch(obj.source, -1) {
		for _, decl := range strings.Split(m[1], ",") {
			name := strings.TrimSpace(decl)
			if idx := strings.Index(name, "["); idx >= 0 {
				name = strings.TrimSpace(name[:idx]) + "[0]"
			}
			if name != "" {
				obj.uniforms = append(obj.uniforms, name)
			}
		}
	}
	return true, ""
}

// CreateProgram implements interface
func (d *Device) CreateProgram() gfx.Program {
	p := gfx.Program(d.handle())
	d.programs[p] = &programObject{
		attribs: make(map[string]uint32),
		values:  make(map[gfx.Location]interface{}),
	}
	d.record("CreateProgram")
	return p
}

// AttachShader implements interface
func (d *Device) AttachShader(p gfx.Program, s gfx.Shader) {
	if obj, ok := d.programs[p]; ok {
		obj.shaders = append(obj.shaders, s)
	}
	d.record("AttachShader")
}

// BindAttribLocation implements interface
func (d *Device) BindAttribLocation(p gfx.Program, slot uint32, name string) {
	if obj, ok := d.programs[p]; ok {
		obj.attribs[name] = slot
	}
	d.record("BindAttribLocation(%d,%s)", slot, name)
}

// AttribLocations returns the attribute bindings applied to a program.
func (d *Device) AttribLocations(p gfx.Program) map[string]uint32 {
	if obj, ok := d.programs[p]; ok {
		return obj.attribs
	}
	return nil
}

// LinkProgram implements interface
func (d *Device) LinkProgram(p gfx.Program) (bool, string) {
	obj, ok := d.programs[p]
	if !ok {
		return false, "invalid program object"
	}
	d.record("LinkProgram")

	stages := make(map[gfx.ShaderStage]bool)
	seen := make(map[string]bool)
	var active []string
	for _, s := range obj.shaders {
		sh, ok := d.shaders[s]
		if !ok || !sh.compiled {
			return false, "error: linking with uncompiled/unspecialized shader"
		}
		stages[sh.stage] = true
		for _, u := range sh.uniforms {
			if !seen[u] {
				seen[u] = true
				active = append(active, u)
			}
		}
	}
	if !stages[gfx.VertexStage] || !stages[gfx.FragmentStage] {
		return false, "error: program lacks a vertex or fragment shader"
	}

	sort.Strings(active)
	obj.linked = true
	obj.active = active
	obj.locations = make(map[string]gfx.Location)
	for idx, u := range active {
		obj.locations[u] = gfx.Location(idx)
		if strings.HasSuffix(u, "[0]") {
			obj.locations[strings.TrimSuffix(u, "[0]")] = gfx.Location(idx)
		}
	}
	return true, ""
}

// ActiveUniforms implements interface
func (d *Device) ActiveUniforms(p gfx.Program) []string {
	if obj, ok := d.programs[p]; ok && obj.linked {
		return append([]string(nil), obj.active...)
	}
	return nil
}

// UniformLocation implements interface
func (d *Device) UniformLocation(p gfx.Program, name string) gfx.Location {
	d.record("UniformLocation(%s)", name)
	obj, ok := d.programs[p]
	if !ok || !obj.linked {
		return gfx.Unused
	}
	if l, ok := obj.locations[name]; ok {
		return l
	}
	return gfx.Unused
}

// UseProgram implements interface
func (d *Device) UseProgram(p gfx.Program) {
	d.program = p
	d.record("UseProgram(%d)", p)
}

func (d *Device) setUniform(l gfx.Location, v interface{}) {
	if l < 0 {
		return
	}
	if obj, ok := d.programs[d.program]; ok && obj.linked {
		obj.values[l] = v
	}
}

// Uniform returns the last value uploaded to a named uniform of a program.
func (d *Device) Uniform(p gfx.Program, name string) (interface{}, bool) {
	obj, ok := d.programs[p]
	if !ok || !obj.linked {
		return nil, false
	}
	l, ok := obj.locations[name]
	if !ok {
		return nil, false
	}
	v, ok := obj.values[l]
	return v, ok
}

// UniformMatrix4 implements interface
func (d *Device) UniformMatrix4(l gfx.Location, m [16]float32) {
	d.setUniform(l, m)
	d.record("UniformMatrix4(%d)", l)
}

// Uniform1i implements interface
func (d *Device) Uniform1i(l gfx.Location, v int32) {
	d.setUniform(l, v)
	d.record("Uniform1i(%d)", l)
}

// Uniform1iv implements interface
func (d *Device) Uniform1iv(l gfx.Location, v []int32) {
	d.setUniform(l, append([]int32(nil), v...))
	d.record("Uniform1iv(%d)", l)
}

// Uniform1f implements interface
func (d *Device) Uniform1f(l gfx.Location, v float32) {
	d.setUniform(l, v)
	d.record("Uniform1f(%d)", l)
}

// BindVertexArray implements interface
func (d *Device) BindVertexArray(v gfx.VertexArray) {
	d.vertexArray = v
	d.record("BindVertexArray(%d)", v)
}

// BindTexture implements interface
func (d *Device) BindTexture(unit uint32, t gfx.Texture) {
	d.units[unit] = t
	d.record("BindTexture(%d,%d)", unit, t)
}

// DrawArrays implements interface
func (d *Device) DrawArrays(mode gfx.Primitive, first, count int32) {
	units := make(map[uint32]gfx.Texture, len(d.units))
	for k, v := range d.units {
		units[k] = v
	}
	d.Draws = append(d.Draws, Draw{
		Framebuffer: d.framebuffer,
		Program:     d.program,
		VertexArray: d.vertexArray,
		Mode:        mode,
		First:       first,
		Count:       count,
		DepthTest:   d.depthTest,
		Units:       units,
		Viewport:    d.viewport,
	})
	d.record("DrawArrays(%d)", count)
}

// Flush implements interface
func (d *Device) Flush() {
	d.Flushes++
	d.record("Flush")
}

// DeleteBuffer implements interface
func (d *Device) DeleteBuffer(b gfx.Buffer) {
	delete(d.buffers, b)
	d.record("DeleteBuffer")
}

// DeleteVertexArray implements interface
func (d *Device) DeleteVertexArray(v gfx.VertexArray) {
	delete(d.vertexArrays, v)
	d.record("DeleteVertexArray")
}

// DeleteTexture implements interface
func (d *Device) DeleteTexture(t gfx.Texture) {
	delete(d.textures, t)
	d.record("DeleteTexture")
}

// DeleteFramebuffer implements interface
func (d *Device) DeleteFramebuffer(f gfx.Framebuffer) {
	delete(d.framebuffers, f)
	d.record("DeleteFramebuffer")
}

// DeleteShader implements interface
func (d *Device) DeleteShader(s gfx.Shader) {
	delete(d.shaders, s)
	d.record("DeleteShader")
}

// DeleteProgram implements interface
func (d *Device) DeleteProgram(p gfx.Program) {
	delete(d.programs, p)
	d.record("DeleteProgram")
}

// Live returns the number of device objects that have not been deleted.
func (d *Device) Live() int {
	return len(d.buffers) + len(d.vertexArrays) + len(d.textures) +
		len(d.framebuffers) + len(d.shaders) + len(d.programs)
}

// LiveShaders returns the number of shader and program objects alive.
func (d *Device) LiveShaders() (shaders, programs int) {
	return len(d.shaders), len(d.programs)
}

// Compiled reports whether a shader object compiled successfully.
func (d *Device) Compiled(s gfx.Shader) bool {
	obj, ok := d.shaders[s]
	return ok && obj.compiled
}

// Count returns how many recorded calls start with prefix.
func (d *Device) Count(prefix string) int {
	var n int
	for _, c := range d.Calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}
