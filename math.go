package vkframe

import (
	"encoding/binary"
	"math"

	lin "github.com/xlab/linmath"

	"github.com/andewx/vkframe/driver"
)

// Point is an offset in normalized device coordinates. It is pushed to
// the vertex stage as two 32-bit floats.
type Point lin.Vec2

// Bytes returns the push-constant encoding of p.
func (p Point) Bytes() []byte {
	return appendFloats(make([]byte, 0, pointSize), p[:]...)
}

const pointSize = 2 * 4

// Vertex is the input of the built-in pipeline: a 2D position at location
// 0 and an RGB color at location 1.
type Vertex struct {
	Pos   lin.Vec2
	Color lin.Vec3
}

const vertexSize = (2 + 3) * 4

// VertexBytes packs vs tightly in host byte order.
func VertexBytes(vs []Vertex) []byte {
	b := make([]byte, 0, len(vs)*vertexSize)
	for _, v := range vs {
		b = appendFloats(b, v.Pos[:]...)
		b = appendFloats(b, v.Color[:]...)
	}
	return b
}

// TriangleVertices is the colored triangle drawn by Graphics.Draw.
var TriangleVertices = []Vertex{
	{Pos: lin.Vec2{0.0, -0.5}, Color: lin.Vec3{1, 0, 0}},
	{Pos: lin.Vec2{0.5, 0.5}, Color: lin.Vec3{0, 1, 0}},
	{Pos: lin.Vec2{-0.5, 0.5}, Color: lin.Vec3{0, 0, 1}},
}

func vertexLayout() ([]driver.VertexBinding, []driver.VertexAttribute) {
	bindings := []driver.VertexBinding{{Binding: 0, Stride: vertexSize}}
	attributes := []driver.VertexAttribute{
		{Location: 0, Binding: 0, Format: driver.FormatR32g32Sfloat, Offset: 0},
		{Location: 1, Binding: 0, Format: driver.FormatR32g32b32Sfloat, Offset: 2 * 4},
	}
	return bindings, attributes
}

func appendFloats(b []byte, fs ...float32) []byte {
	for _, f := range fs {
		b = binary.NativeEndian.AppendUint32(b, math.Float32bits(f))
	}
	return b
}
