// Package topology holds the static vertex/edge/face tables of the two cell
// kinds supported by the grids: hypercubes (Tesseract) and simplices.
//
// Hypercube vertex i sits at logical offset bit k of i along axis k. Hypercube
// face 2k+s holds the vertices whose bit k equals s, so its outward direction
// is -axis k for s == 0 and +axis k for s == 1. Simplex face i is the face
// opposite vertex i.
package topology

import (
	"fmt"

	"github.com/notargets/govis/types"
)

type Kind uint8

const (
	HypercubeKind Kind = iota
	SimplexKind
)

func (k Kind) String() string {
	return [...]string{"Hypercube", "Simplex"}[k]
}

type Topology struct {
	Kind        Kind
	Dim         int
	NumVertices int
	NumFaces    int
	Faces       [][]int  // Vertex indices of each face, ascending
	Edges       [][2]int // Vertex index pairs, lower first
	// Simplices decomposes the cell into d-simplices sharing vertex 0 and the
	// cell's last vertex. A simplex cell decomposes into itself.
	Simplices [][]int
}

var (
	tesseracts [types.MaxDim + 1]*Topology
	simplices  [types.MaxDim + 1]*Topology
)

func init() {
	for d := 1; d <= types.MaxDim; d++ {
		tesseracts[d] = newTesseract(d)
		simplices[d] = newSimplex(d)
	}
}

// Tesseract returns the hypercube topology of dimension dim.
func Tesseract(dim int) *Topology {
	checkDim(dim)
	return tesseracts[dim]
}

// Simplex returns the simplex topology of dimension dim.
func Simplex(dim int) *Topology {
	checkDim(dim)
	return simplices[dim]
}

func checkDim(dim int) {
	if dim < 1 || dim > types.MaxDim {
		panic(fmt.Errorf("cell dimension %d out of range [1,%d]", dim, types.MaxDim))
	}
}

// OppositeFace returns the face on the far side of the cell from face, or -1
// for simplices where faces have no opposite.
func (t *Topology) OppositeFace(face int) int {
	if t.Kind == SimplexKind {
		return -1
	}
	return face ^ 1
}

// FaceAxis returns the logical axis and side (0 or 1) of a hypercube face.
func (t *Topology) FaceAxis(face int) (axis, side int) {
	return face >> 1, face & 1
}

func (t *Topology) String() string {
	return fmt.Sprintf("%s%dD", t.Kind, t.Dim)
}

func newTesseract(dim int) (t *Topology) {
	t = &Topology{
		Kind:        HypercubeKind,
		Dim:         dim,
		NumVertices: 1 << dim,
		NumFaces:    2 * dim,
	}
	t.Faces = make([][]int, t.NumFaces)
	for k := 0; k < dim; k++ {
		for s := 0; s < 2; s++ {
			face := make([]int, 0, 1<<(dim-1))
			for v := 0; v < t.NumVertices; v++ {
				if (v>>k)&1 == s {
					face = append(face, v)
				}
			}
			t.Faces[2*k+s] = face
		}
	}
	for v := 0; v < t.NumVertices; v++ {
		for k := 0; k < dim; k++ {
			if v&(1<<k) == 0 {
				t.Edges = append(t.Edges, [2]int{v, v | 1<<k})
			}
		}
	}
	// Kuhn decomposition: one simplex per axis permutation, walking from the
	// origin corner to the far corner one axis at a time
	for _, perm := range permutations(dim) {
		simplex := make([]int, dim+1)
		for j, axis := range perm {
			simplex[j+1] = simplex[j] | 1<<axis
		}
		t.Simplices = append(t.Simplices, simplex)
	}
	return
}

func newSimplex(dim int) (t *Topology) {
	t = &Topology{
		Kind:        SimplexKind,
		Dim:         dim,
		NumVertices: dim + 1,
		NumFaces:    dim + 1,
	}
	t.Faces = make([][]int, t.NumFaces)
	for f := 0; f < t.NumFaces; f++ {
		for v := 0; v < t.NumVertices; v++ {
			if v != f {
				t.Faces[f] = append(t.Faces[f], v)
			}
		}
	}
	for i := 0; i < t.NumVertices; i++ {
		for j := i + 1; j < t.NumVertices; j++ {
			t.Edges = append(t.Edges, [2]int{i, j})
		}
	}
	all := make([]int, t.NumVertices)
	for i := range all {
		all[i] = i
	}
	t.Simplices = [][]int{all}
	return
}

func permutations(n int) (perms [][]int) {
	var (
		perm = make([]int, n)
		used = make([]bool, n)
		rec  func(pos int)
	)
	rec = func(pos int) {
		if pos == n {
			perms = append(perms, append([]int(nil), perm...))
			return
		}
		for i := 0; i < n; i++ {
			if !used[i] {
				used[i] = true
				perm[pos] = i
				rec(pos + 1)
				used[i] = false
			}
		}
	}
	rec(0)
	return
}
