package topology

import "github.com/notargets/govis/types"

// MultilinearWeights fills w with the tensor-product basis weights of the 2^dim
// hypercube corners at local coordinates local.
func MultilinearWeights(dim int, local types.Point, w []float64) []float64 {
	n := 1 << dim
	w = w[:n]
	for v := 0; v < n; v++ {
		wv := 1.
		for k := 0; k < dim; k++ {
			if (v>>k)&1 == 1 {
				wv *= local[k]
			} else {
				wv *= 1 - local[k]
			}
		}
		w[v] = wv
	}
	return w
}

// MultilinearDerivatives fills dw[k][v] with the partial derivative of the
// weight of corner v along local axis k.
func MultilinearDerivatives(dim int, local types.Point, dw *[types.MaxDim][]float64) {
	n := 1 << dim
	for k := 0; k < dim; k++ {
		if cap(dw[k]) < n {
			dw[k] = make([]float64, n)
		}
		dw[k] = dw[k][:n]
		for v := 0; v < n; v++ {
			d := 1.
			for m := 0; m < dim; m++ {
				bit := (v >> m) & 1
				switch {
				case m == k && bit == 1:
				case m == k:
					d = -d
				case bit == 1:
					d *= local[m]
				default:
					d *= 1 - local[m]
				}
			}
			dw[k][v] = d
		}
	}
}

// Blend interpolates the 2^dim corner values with log2(2^dim) passes of
// pairwise linear blends. The values slice is used as scratch space.
func Blend(dim int, values []float64, local types.Point) float64 {
	n := 1 << dim
	for k := 0; k < dim; k++ {
		n >>= 1
		t := local[k]
		for i := 0; i < n; i++ {
			values[i] = values[2*i]*(1-t) + values[2*i+1]*t
		}
	}
	return values[0]
}

// BlendVectors is Blend for vector valued corners.
func BlendVectors(dim int, values []types.Vector, local types.Point) types.Vector {
	n := 1 << dim
	for k := 0; k < dim; k++ {
		n >>= 1
		t := local[k]
		for i := 0; i < n; i++ {
			a, b := values[2*i], values[2*i+1]
			values[i] = a.Scale(1 - t).Add(b.Scale(t))
		}
	}
	return values[0]
}
