// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core_test

import (
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/devblok/postfx/core"
	"github.com/devblok/postfx/gfx"
	"github.com/devblok/postfx/model"
)

const sceneVertexSource = `#version 410 core
in vec3 inPoint;
in vec2 inCoords;

uniform mat4 modelMatrix;
uniform mat4 viewMatrix;
uniform mat4 projMatrix;

out vec2 coords;

void main() {
	coords = inCoords;
	gl_Position = projMatrix * viewMatrix * modelMatrix * vec4(inPoint, 1.0);
}
`

const sceneFragmentSource = `#version 410 core
in vec2 coords;

uniform sampler2D textureData;

out vec4 outColor;

void main() {
	outColor = texture(textureData, coords);
}
`

const compositeVertexSource = `#version 410 core
in vec3 inPoint;
in vec2 inCoord;

out vec2 coord;

void main() {
	coord = inCoord;
	gl_Position = vec4(inPoint, 1.0);
}
`

const compositeFragmentSource = `#version 410 core
in vec2 coord;

uniform sampler2D textureData[2];
uniform int textureIndex;
uniform float mouseX;
uniform float mouseY;

out vec4 outColor;

void main() {
	outColor = texture(textureData[0], coord);
}
`

// brokenSource fails to compile on any device.
const brokenSource = `#version 410 core
void main() {
	gl_Position = vec4(0.0;
`

func cubeGeometry() model.GeometryBuffer {
	const n = 36
	return model.GeometryBuffer{
		Positions:   make([]float32, n*model.PositionComponents),
		Normals:     make([]float32, n*model.NormalComponents),
		Coords:      make([]float32, n*model.CoordComponents),
		VertexCount: n,
	}
}

func crateTexture() model.Texture2D {
	return model.Texture2D{
		Width:  256,
		Height: 256,
		Format: gfx.RGB8,
		Pixels: make([]byte, 256*256*3),
	}
}

func testAssets() core.Assets {
	return core.Assets{
		Geometry:          cubeGeometry(),
		Texture:           crateTexture(),
		SceneVertex:       sceneVertexSource,
		SceneFragment:     sceneFragmentSource,
		CompositeVertex:   compositeVertexSource,
		CompositeFragment: compositeFragmentSource,
	}
}

func nullLogger() (*logrus.Logger, *test.Hook) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return logger, hook
}

type fakeWindow struct {
	width, height int

	events []core.Event
	swaps  int

	// onSwap is called after every swap with the swap count.
	onSwap func(w *fakeWindow)
}

func (w *fakeWindow) Size() (int, int) {
	return w.width, w.height
}

func (w *fakeWindow) PollEvent() core.Event {
	if len(w.events) == 0 {
		return nil
	}
	e := w.events[0]
	w.events = w.events[1:]
	return e
}

func (w *fakeWindow) Swap() {
	w.swaps++
	if w.onSwap != nil {
		w.onSwap(w)
	}
}
