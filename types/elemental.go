package types

import (
	"fmt"
	"math"
	"sort"
)

/*
EdgeKey is an always positive number that stores an edge's vertices as indices in a way that can be compared
An edge between vertices [4] and [0] will always be stored as [0,4], in the ascending order of the index values
*/
type EdgeKey uint64

func NewEdgeKey(verts [2]int) (packed EdgeKey) {
	var (
		limit = math.MaxUint32
	)
	for _, vert := range verts {
		if vert < 0 || vert > limit {
			panic(fmt.Errorf("unable to pack two ints into a uint64, have %d and %d as inputs",
				verts[0], verts[1]))
		}
	}
	var i1, i2 int
	if verts[0] <= verts[1] {
		i1, i2 = verts[0], verts[1]
	} else {
		i1, i2 = verts[1], verts[0]
	}
	packed = EdgeKey(i1 + i2<<32)
	return
}

func (ek EdgeKey) GetVertices() (verts [2]int) {
	verts[1] = int(ek >> 32)
	verts[0] = int(ek & math.MaxUint32)
	return
}

// MaxFaceVertices is the vertex count of the largest supported cell face (a quad).
const MaxFaceVertices = 4

/*
FaceKey identifies a cell face independent of the order in which its vertices are listed: the
vertex indices are sorted ascending and unused slots hold -1. Two cells sharing a face produce
the same key.
*/
type FaceKey [MaxFaceVertices]int

func NewFaceKey(verts []int) (fk FaceKey) {
	if len(verts) > MaxFaceVertices {
		panic(fmt.Errorf("face has %d vertices, at most %d are supported", len(verts), MaxFaceVertices))
	}
	for i := range fk {
		fk[i] = -1
	}
	copy(fk[:], verts)
	sort.Ints(fk[:len(verts)])
	return
}
