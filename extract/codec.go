package extract

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/DataDog/zstd"

	"github.com/notargets/govis/types"
)

const fragmentMagic uint32 = 0x31465647 // "GVF1"

var order = binary.LittleEndian

type fragmentHeader struct {
	Magic        uint32
	Kind         uint32
	Arity        uint32 // 0 when the fragment holds no surface
	NumPolylines uint32
}

// countingWriter tracks the bytes passed to the underlying writer.
type countingWriter struct {
	w io.Writer
	n int64
}

func (cw *countingWriter) Write(b []byte) (n int, err error) {
	n, err = cw.w.Write(b)
	cw.n += int64(n)
	return
}

type countingReader struct {
	r io.Reader
	n int64
}

func (cr *countingReader) Read(b []byte) (n int, err error) {
	n, err = cr.r.Read(b)
	cr.n += int64(n)
	return
}

// blockCodec holds the scratch buffers reused across the blocks of one
// fragment.
type blockCodec struct {
	raw, packed []byte
	buf         bytes.Buffer
}

// writeBlock compresses one array with zstd and writes it behind its
// compressed length.
func (bc *blockCodec) writeBlock(w io.Writer, data any) (err error) {
	bc.buf.Reset()
	if err = binary.Write(&bc.buf, order, data); err != nil {
		return
	}
	if bc.buf.Len() == 0 {
		return binary.Write(w, order, int64(0))
	}
	if bc.packed, err = zstd.CompressLevel(bc.packed, bc.buf.Bytes(), 1); err != nil {
		return
	}
	if err = binary.Write(w, order, int64(len(bc.packed))); err != nil {
		return
	}
	_, err = w.Write(bc.packed)
	return
}

// readBlock reads and decompresses one block written by writeBlock.
func (bc *blockCodec) readBlock(r io.Reader) (raw []byte, err error) {
	var n int64
	if err = binary.Read(r, order, &n); err != nil {
		return
	}
	if n < 0 || n > math.MaxInt32 {
		return nil, fmt.Errorf("corrupt fragment block length %d", n)
	}
	if n == 0 {
		return bc.raw[:0], nil
	}
	bc.packed = types.GrowSlice(bc.packed[:0], int(n))
	if _, err = io.ReadFull(r, bc.packed); err != nil {
		return
	}
	if bc.raw, err = zstd.Decompress(bc.raw, bc.packed); err != nil {
		return
	}
	return bc.raw, nil
}

func (bc *blockCodec) writeFloats(w io.Writer, x []float64) error {
	return bc.writeBlock(w, x)
}

func (bc *blockCodec) readFloats(r io.Reader) (x []float64, err error) {
	raw, err := bc.readBlock(r)
	if err != nil {
		return
	}
	if len(raw)%8 != 0 {
		return nil, fmt.Errorf("float block of %d bytes", len(raw))
	}
	x = make([]float64, len(raw)/8)
	for i := range x {
		x[i] = math.Float64frombits(order.Uint64(raw[8*i:]))
	}
	return
}

func (bc *blockCodec) writePoints(w io.Writer, pts []types.Point) error {
	flat := make([]float64, 0, types.MaxDim*len(pts))
	for _, p := range pts {
		flat = append(flat, p[:]...)
	}
	return bc.writeFloats(w, flat)
}

func (bc *blockCodec) readPoints(r io.Reader) (pts []types.Point, err error) {
	flat, err := bc.readFloats(r)
	if err != nil {
		return
	}
	if len(flat)%types.MaxDim != 0 {
		return nil, fmt.Errorf("point block of %d values", len(flat))
	}
	pts = make([]types.Point, len(flat)/types.MaxDim)
	for i := range pts {
		copy(pts[i][:], flat[types.MaxDim*i:])
	}
	return
}

func (bc *blockCodec) writeVectors(w io.Writer, vecs []types.Vector) error {
	pts := make([]types.Point, len(vecs))
	for i, v := range vecs {
		pts[i] = types.Point(v)
	}
	return bc.writePoints(w, pts)
}

func (bc *blockCodec) readVectors(r io.Reader) (vecs []types.Vector, err error) {
	pts, err := bc.readPoints(r)
	if err != nil {
		return
	}
	vecs = make([]types.Vector, len(pts))
	for i, p := range pts {
		vecs[i] = types.Vector(p)
	}
	return
}

func (bc *blockCodec) writeIndices(w io.Writer, idx []int) error {
	x := make([]int32, len(idx))
	for i, v := range idx {
		x[i] = int32(v)
	}
	return bc.writeBlock(w, x)
}

func (bc *blockCodec) readIndices(r io.Reader) (idx []int, err error) {
	raw, err := bc.readBlock(r)
	if err != nil {
		return
	}
	if len(raw)%4 != 0 {
		return nil, fmt.Errorf("index block of %d bytes", len(raw))
	}
	idx = make([]int, len(raw)/4)
	for i := range idx {
		idx[i] = int(int32(order.Uint32(raw[4*i:])))
	}
	return
}

// WriteTo streams the fragment in a compact binary form: a fixed header,
// then one zstd compressed block per array.
func (f *Fragment) WriteTo(w io.Writer) (n int64, err error) {
	var (
		cw = &countingWriter{w: w}
		bc blockCodec
		hd = fragmentHeader{
			Magic:        fragmentMagic,
			Kind:         uint32(f.Kind),
			NumPolylines: uint32(len(f.Polylines)),
		}
	)
	if f.Surface != nil {
		hd.Arity = uint32(f.Surface.Arity)
	}
	if err = binary.Write(cw, order, hd); err != nil {
		return cw.n, err
	}
	if s := f.Surface; s != nil {
		if err = bc.writePoints(cw, s.Positions); err != nil {
			return cw.n, err
		}
		if err = bc.writeVectors(cw, s.Normals); err != nil {
			return cw.n, err
		}
		if err = bc.writeFloats(cw, s.Scalars); err != nil {
			return cw.n, err
		}
		if err = bc.writeIndices(cw, s.Indices); err != nil {
			return cw.n, err
		}
	}
	for _, pl := range f.Polylines {
		if err = bc.writePoints(cw, pl.Points); err != nil {
			return cw.n, err
		}
		if err = bc.writeFloats(cw, pl.Scalars); err != nil {
			return cw.n, err
		}
	}
	return cw.n, nil
}

// ReadFrom replaces the fragment with one read from r.
func (f *Fragment) ReadFrom(r io.Reader) (n int64, err error) {
	var (
		cr = &countingReader{r: r}
		bc blockCodec
		hd fragmentHeader
	)
	if err = binary.Read(cr, order, &hd); err != nil {
		return cr.n, err
	}
	if hd.Magic != fragmentMagic {
		return cr.n, fmt.Errorf("not a fragment stream, magic %#x", hd.Magic)
	}
	*f = Fragment{Kind: Kind(hd.Kind)}
	if hd.Arity != 0 {
		if hd.Arity != 2 && hd.Arity != 3 {
			return cr.n, fmt.Errorf("corrupt fragment surface arity %d", hd.Arity)
		}
		s := NewSurface(int(hd.Arity))
		if s.Positions, err = bc.readPoints(cr); err != nil {
			return cr.n, err
		}
		if s.Normals, err = bc.readVectors(cr); err != nil {
			return cr.n, err
		}
		if s.Scalars, err = bc.readFloats(cr); err != nil {
			return cr.n, err
		}
		if s.Indices, err = bc.readIndices(cr); err != nil {
			return cr.n, err
		}
		if len(s.Indices)%s.Arity != 0 {
			return cr.n, fmt.Errorf("%d indices for arity %d", len(s.Indices), s.Arity)
		}
		f.Surface = s
	}
	for i := uint32(0); i < hd.NumPolylines; i++ {
		pl := &Polyline{}
		if pl.Points, err = bc.readPoints(cr); err != nil {
			return cr.n, err
		}
		if pl.Scalars, err = bc.readFloats(cr); err != nil {
			return cr.n, err
		}
		f.Polylines = append(f.Polylines, pl)
	}
	return cr.n, nil
}
