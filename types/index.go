package types

import "fmt"

// Index is a multi-dimensional array index. Components beyond the array
// dimension are ignored and kept at zero.
type Index [MaxDim]int

func (I Index) Add(J Index) (r Index) {
	for i := range I {
		r[i] = I[i] + J[i]
	}
	return
}

// Offset returns I with delta added to component axis.
func (I Index) Offset(axis, delta int) Index {
	I[axis] += delta
	return I
}

func (I Index) String() string {
	return fmt.Sprintf("(%d, %d, %d)", I[0], I[1], I[2])
}

// Array describes a dense Dim dimensional array stored in row-minor (first
// axis fastest) order, addressed through per-axis strides.
type Array struct {
	Dim    int
	Size   Index
	Stride Index
}

func NewArray(dim int, size Index) (A Array) {
	if dim < 1 || dim > MaxDim {
		panic(fmt.Errorf("array dimension %d out of range [1,%d]", dim, MaxDim))
	}
	A.Dim = dim
	stride := 1
	for i := 0; i < dim; i++ {
		if size[i] < 0 {
			panic(fmt.Errorf("negative array size %v", size))
		}
		A.Size[i] = size[i]
		A.Stride[i] = stride
		stride *= size[i]
	}
	return
}

// Len returns the total number of array elements.
func (A Array) Len() (n int) {
	n = 1
	for i := 0; i < A.Dim; i++ {
		n *= A.Size[i]
	}
	return
}

func (A Array) Linear(I Index) (l int) {
	for i := 0; i < A.Dim; i++ {
		l += I[i] * A.Stride[i]
	}
	return
}

func (A Array) Unlinear(l int) (I Index) {
	for i := A.Dim - 1; i >= 0; i-- {
		I[i] = l / A.Stride[i]
		l -= I[i] * A.Stride[i]
	}
	return
}

func (A Array) Contains(I Index) bool {
	for i := 0; i < A.Dim; i++ {
		if I[i] < 0 || I[i] >= A.Size[i] {
			return false
		}
	}
	return true
}

// Next advances I to the following index in storage order and reports false
// once I has stepped past the last element.
func (A Array) Next(I *Index) bool {
	for i := 0; i < A.Dim; i++ {
		I[i]++
		if I[i] < A.Size[i] {
			return true
		}
		I[i] = 0
	}
	return false
}

// Shrink returns an array with every axis reduced by one, e.g. the cell
// array of a vertex array.
func (A Array) Shrink() Array {
	var size Index
	for i := 0; i < A.Dim; i++ {
		size[i] = A.Size[i] - 1
		if size[i] < 0 {
			size[i] = 0
		}
	}
	return NewArray(A.Dim, size)
}
