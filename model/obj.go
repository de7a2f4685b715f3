// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package model

import (
	"fmt"
	"io"
	"math"

	"github.com/g3n/engine/loader/obj"
)

// missingIndex marks a face corner without a uv or normal reference.
const missingIndex = math.MaxUint32

// ImportOBJ reads a Wavefront .obj stream into a GeometryBuffer.
// Every object of the file is merged, polygons are split into a fan around
// their first corner. Corners without uv or normal references get zeros.
// Materials are not read.
func ImportOBJ(r io.Reader) (GeometryBuffer, error) {
	decoder, err := obj.DecodeReader(r, nil)
	if err != nil {
		return GeometryBuffer{}, fmt.Errorf("obj: %s", err)
	}

	var geometry GeometryBuffer
	for _, object := range decoder.Objects {
		for fi, face := range object.Faces {
			for idx := 2; idx < len(face.Vertices); idx++ {
				for _, corner := range []int{0, idx - 1, idx} {
					if err := geometry.appendCorner(decoder, face, corner); err != nil {
						return GeometryBuffer{}, fmt.Errorf("obj: %s face %d: %s", object.Name, fi+1, err)
					}
				}
			}
		}
	}
	return geometry, nil
}

func (g *GeometryBuffer) appendCorner(decoder *obj.Decoder, face obj.Face, corner int) error {
	vi := face.Vertices[corner]
	if err := checkIndex("vertex", vi, len(decoder.Vertices)/PositionComponents); err != nil {
		return err
	}
	g.Positions = append(g.Positions, decoder.Vertices[vi*3:vi*3+3]...)

	uv := []float32{0, 0}
	if ti := face.Uvs[corner]; ti != missingIndex {
		if err := checkIndex("uv", ti, len(decoder.Uvs)/CoordComponents); err != nil {
			return err
		}
		uv = decoder.Uvs[ti*2 : ti*2+2]
	}
	g.Coords = append(g.Coords, uv...)

	n := []float32{0, 0, 0}
	if ni := face.Normals[corner]; ni != missingIndex {
		if err := checkIndex("normal", ni, len(decoder.Normals)/NormalComponents); err != nil {
			return err
		}
		n = decoder.Normals[ni*3 : ni*3+3]
	}
	g.Normals = append(g.Normals, n...)

	g.VertexCount++
	return nil
}

// checkIndex reports 0-based decoder indices as the 1-based indices of
// the file.
func checkIndex(kind string, idx, count int) error {
	if idx < 0 || idx >= count {
		return fmt.Errorf("%s index %d out of range [1, %d]", kind, idx+1, count)
	}
	return nil
}
