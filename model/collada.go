// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package model

import (
	"encoding/xml"
	"errors"
	"fmt"

	"github.com/devblok/postfx/util/collada"
)

// ImportCollada reads the first geometry of a Collada document and
// expands its indexed triangles into a GeometryBuffer. Missing normal
// or texture coordinate inputs are filled with zeroes.
func ImportCollada(fileContents []byte) (GeometryBuffer, error) {
	var colladaModel collada.Collada
	if err := xml.Unmarshal(fileContents, &colladaModel); err != nil {
		return GeometryBuffer{}, err
	}
	if len(colladaModel.Geometries) == 0 {
		return GeometryBuffer{}, errors.New("collada: document has no geometry")
	}

	mesh := colladaModel.Geometries[0].Mesh
	triangles := mesh.Triangles

	vertexInput, ok := triangles.Input("VERTEX")
	if !ok {
		return GeometryBuffer{}, errors.New("collada: triangles have no VERTEX input")
	}
	positionURL := vertexInput.Source
	if in, ok := mesh.Vertices.Input("POSITION"); ok {
		positionURL = in.Source
	}
	positions, err := findStream(&mesh, positionURL, PositionComponents)
	if err != nil {
		return GeometryBuffer{}, err
	}

	var normals, coords *stream
	if in, ok := triangles.Input("NORMAL"); ok {
		if normals, err = findStream(&mesh, in.Source, NormalComponents); err != nil {
			return GeometryBuffer{}, err
		}
		normals.offset = int(in.Offset)
	}
	if in, ok := triangles.Input("TEXCOORD"); ok {
		if coords, err = findStream(&mesh, in.Source, CoordComponents); err != nil {
			return GeometryBuffer{}, err
		}
		coords.offset = int(in.Offset)
	}
	positions.offset = int(vertexInput.Offset)

	stride := triangles.Stride()
	if stride == 0 || len(triangles.Index)%stride != 0 {
		return GeometryBuffer{}, fmt.Errorf("collada: index list of %d is not a multiple of %d", len(triangles.Index), stride)
	}

	count := len(triangles.Index) / stride
	geometry := GeometryBuffer{
		Positions:   make([]float32, 0, count*PositionComponents),
		Normals:     make([]float32, 0, count*NormalComponents),
		Coords:      make([]float32, 0, count*CoordComponents),
		VertexCount: count,
	}
	for idx := 0; idx < count; idx++ {
		indices := triangles.Index[stride*idx : stride*idx+stride]
		if geometry.Positions, err = positions.appendTo(geometry.Positions, indices); err != nil {
			return GeometryBuffer{}, err
		}
		if geometry.Normals, err = normals.appendTo(geometry.Normals, indices); err != nil {
			return GeometryBuffer{}, err
		}
		if geometry.Coords, err = coords.appendTo(geometry.Coords, indices); err != nil {
			return GeometryBuffer{}, err
		}
	}
	if normals == nil {
		geometry.Normals = make([]float32, count*NormalComponents)
	}
	if coords == nil {
		geometry.Coords = make([]float32, count*CoordComponents)
	}
	return geometry, nil
}

type stream struct {
	id         string
	data       []float32
	stride     int
	components int
	offset     int
}

func findStream(mesh *collada.Mesh, url string, components int) (*stream, error) {
	source, ok := mesh.FindSource(url)
	if !ok {
		return nil, fmt.Errorf("collada: source %s not found", url)
	}
	stride := source.Accessor.Stride
	if stride == 0 {
		stride = components
	}
	if stride < components {
		return nil, fmt.Errorf("collada: source %s has stride %d, need %d", url, stride, components)
	}
	return &stream{
		id:         source.ID,
		data:       source.Floats.Data,
		stride:     stride,
		components: components,
	}, nil
}

// appendTo appends the element referenced by indices.
func (s *stream) appendTo(dst []float32, indices []int) ([]float32, error) {
	if s == nil {
		return dst, nil
	}
	start := indices[s.offset] * s.stride
	if indices[s.offset] < 0 || start+s.components > len(s.data) {
		return dst, fmt.Errorf("collada: index %d out of range for %s", indices[s.offset], s.id)
	}
	return append(dst, s.data[start:start+s.components]...), nil
}
