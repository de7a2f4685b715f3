// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/devblok/postfx/gfx"
)

// LinkStage names diagnostics produced while linking.
const LinkStage = "link"

// Diagnostic is a compile or link message for one stage of a program.
type Diagnostic struct {
	Program string
	Stage   string
	Message string
}

func (d Diagnostic) Error() string {
	return fmt.Sprintf("%s: %s: %s", d.Program, d.Stage, d.Message)
}

// Diagnostics are the messages collected by ShaderProgram.Compile.
// They are never fatal.
type Diagnostics []Diagnostic

// Err returns nil when there are no diagnostics, otherwise an error
// listing all of them.
func (d Diagnostics) Err() error {
	if len(d) == 0 {
		return nil
	}
	msgs := make([]string, 0, len(d))
	for _, diag := range d {
		msgs = append(msgs, diag.Error())
	}
	return errors.New(strings.Join(msgs, "; "))
}

// Log writes every diagnostic as a warning.
func (d Diagnostics) Log(logger logrus.FieldLogger) {
	for _, diag := range d {
		logger.WithFields(logrus.Fields{
			"program": diag.Program,
			"stage":   diag.Stage,
		}).Warn(diag.Message)
	}
}

type attribBinding struct {
	slot uint32
	name string
}

// NewShaderProgram creates an empty program. Attributes are bound
// with BindAttribute before Compile.
func NewShaderProgram(dev gfx.Device, name string) *ShaderProgram {
	return &ShaderProgram{
		dev:  dev,
		name: name,
	}
}

// ShaderProgram is a vertex and fragment stage pair linked into a program,
// together with the table of its active uniform locations.
type ShaderProgram struct {
	dev  gfx.Device
	name string

	attribs []attribBinding

	vertex   gfx.Shader
	fragment gfx.Shader
	program  gfx.Program

	compiled bool
	linked   bool
	uniforms map[string]gfx.Location
}

// Name returns the name diagnostics are reported under.
func (s *ShaderProgram) Name() string {
	return s.name
}

// BindAttribute binds a vertex input name to an attribute slot.
// It must be called before Compile.
func (s *ShaderProgram) BindAttribute(slot uint32, name string) error {
	if s.compiled {
		return errors.Wrap(ErrAlreadyCompiled, "core.BindAttribute(): "+name)
	}
	s.attribs = append(s.attribs, attribBinding{slot: slot, name: name})
	return nil
}

// Compile compiles both stages and links them. A stage that fails to
// compile is reported and the other stage is still compiled, and the
// link is always attempted. On link failure the program handle stays zero.
func (s *ShaderProgram) Compile(vertexSource, fragmentSource string) Diagnostics {
	if s.compiled {
		return Diagnostics{{Program: s.name, Stage: LinkStage, Message: ErrAlreadyCompiled.Error()}}
	}
	s.compiled = true

	var diags Diagnostics
	s.vertex = s.compileStage(gfx.VertexStage, vertexSource, &diags)
	s.fragment = s.compileStage(gfx.FragmentStage, fragmentSource, &diags)

	program := s.dev.CreateProgram()
	s.dev.AttachShader(program, s.vertex)
	s.dev.AttachShader(program, s.fragment)
	for _, a := range s.attribs {
		s.dev.BindAttribLocation(program, a.slot, a.name)
	}

	if ok, info := s.dev.LinkProgram(program); !ok {
		if info == "" {
			info = "link failed"
		}
		diags = append(diags, Diagnostic{Program: s.name, Stage: LinkStage, Message: info})
		s.dev.DeleteProgram(program)
		return diags
	}

	s.program = program
	s.linked = true
	s.uniforms = make(map[string]gfx.Location)
	for _, name := range s.dev.ActiveUniforms(program) {
		s.uniforms[uniformName(name)] = s.dev.UniformLocation(program, name)
	}
	return diags
}

func (s *ShaderProgram) compileStage(stage gfx.ShaderStage, source string, diags *Diagnostics) gfx.Shader {
	shader := s.dev.CreateShader(stage, source)
	if ok, info := s.dev.CompileShader(shader); !ok {
		if info == "" {
			info = "compilation failed"
		}
		*diags = append(*diags, Diagnostic{Program: s.name, Stage: stage.String(), Message: info})
	}
	return shader
}

// uniformName strips the array suffix drivers report for array uniforms.
func uniformName(name string) string {
	return strings.TrimSuffix(name, "[0]")
}

// UniformLocation looks a uniform up in the table built at link time.
// Uniforms the program does not have resolve to gfx.Unused.
func (s *ShaderProgram) UniformLocation(name string) (gfx.Location, error) {
	if !s.linked {
		return gfx.Unused, errors.Wrap(ErrNotLinked, "core.UniformLocation(): "+s.name)
	}
	if l, ok := s.uniforms[uniformName(name)]; ok {
		return l, nil
	}
	return gfx.Unused, nil
}

// Uniforms returns the names of the active uniforms.
func (s *ShaderProgram) Uniforms() []string {
	names := make([]string, 0, len(s.uniforms))
	for name := range s.uniforms {
		names = append(names, name)
	}
	return names
}

// Valid reports whether the program linked.
func (s *ShaderProgram) Valid() bool {
	return s.linked
}

// Handle returns the linked program, zero if linking failed.
func (s *ShaderProgram) Handle() gfx.Program {
	return s.program
}

// Stages returns the vertex and fragment shader objects.
func (s *ShaderProgram) Stages() (vertex, fragment gfx.Shader) {
	return s.vertex, s.fragment
}

// Destroy deletes the program and both stages. Safe to call twice.
func (s *ShaderProgram) Destroy() {
	if s.program != 0 {
		s.dev.DeleteProgram(s.program)
		s.program = 0
	}
	if s.vertex != 0 {
		s.dev.DeleteShader(s.vertex)
		s.vertex = 0
	}
	if s.fragment != 0 {
		s.dev.DeleteShader(s.fragment)
		s.fragment = 0
	}
	s.linked = false
	s.uniforms = nil
}
