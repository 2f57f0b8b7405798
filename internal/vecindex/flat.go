// Package vecindex provides an exact (flat) inner-product nearest-neighbor
// index. Every query is compared against every stored vector, guaranteeing
// exact top-K ranking at the corpus scales this service targets.
package vecindex

import (
	"encoding/binary"
	"fmt"
	"io"
	"sort"
)

// DimensionError reports a query whose dimensionality does not match the
// index. This is a programming error, not a user-facing condition.
type DimensionError struct {
	Query int
	Index int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("query dimension %d does not match index dimension %d", e.Query, e.Index)
}

// Hit is one search result: a row position and its inner-product score.
type Hit struct {
	Row   int
	Score float32
}

// Flat is an exhaustive inner-product index. It is built once, read-only
// afterwards, and safe for concurrent searches.
type Flat struct {
	dim  int
	vecs [][]float32
}

// Build constructs the index over all vectors. Vectors are copied so later
// mutation of the caller's slices cannot drift the index.
func Build(vectors [][]float32) (*Flat, error) {
	f := &Flat{}
	if len(vectors) == 0 {
		return f, nil
	}
	f.dim = len(vectors[0])
	f.vecs = make([][]float32, len(vectors))
	for i, v := range vectors {
		if len(v) != f.dim {
			return nil, fmt.Errorf("inconsistent vector dimensions: row %d has %d, expected %d", i, len(v), f.dim)
		}
		f.vecs[i] = append([]float32(nil), v...)
	}
	return f, nil
}

// Len returns the number of stored vectors.
func (f *Flat) Len() int { return len(f.vecs) }

// Dim returns the vector dimensionality, 0 for an empty index.
func (f *Flat) Dim() int { return f.dim }

// Search returns up to topK hits ranked by descending inner product, ties
// broken by ascending row index. topK is clamped to the number of stored
// vectors.
func (f *Flat) Search(query []float32, topK int) ([]Hit, error) {
	if len(f.vecs) == 0 || topK <= 0 {
		return nil, nil
	}
	if len(query) != f.dim {
		return nil, &DimensionError{Query: len(query), Index: f.dim}
	}

	hits := make([]Hit, len(f.vecs))
	for i, v := range f.vecs {
		hits[i] = Hit{Row: i, Score: dot(query, v)}
	}
	// Stable sort keeps equal scores in ascending row order.
	sort.SliceStable(hits, func(a, b int) bool {
		return hits[a].Score > hits[b].Score
	})

	if topK > len(hits) {
		topK = len(hits)
	}
	return hits[:topK], nil
}

const (
	indexMagic   = uint32(0x4d464c58) // "MFLX"
	indexVersion = uint32(1)
)

// WriteTo serializes the index in a byte-exact little-endian form:
// magic, version, dim, count, then the float32 payload row-major.
func (f *Flat) WriteTo(w io.Writer) (int64, error) {
	header := []uint32{indexMagic, indexVersion, uint32(f.dim), uint32(len(f.vecs))}
	var written int64
	for _, h := range header {
		if err := binary.Write(w, binary.LittleEndian, h); err != nil {
			return written, err
		}
		written += 4
	}
	for _, v := range f.vecs {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return written, err
		}
		written += int64(4 * len(v))
	}
	return written, nil
}

// ReadFrom deserializes an index written by WriteTo. A reloaded index
// reproduces identical search results for any query.
func ReadFrom(r io.Reader) (*Flat, error) {
	var magic, version, dim, count uint32
	for _, p := range []*uint32{&magic, &version, &dim, &count} {
		if err := binary.Read(r, binary.LittleEndian, p); err != nil {
			return nil, fmt.Errorf("reading index header: %w", err)
		}
	}
	if magic != indexMagic {
		return nil, fmt.Errorf("not a flat index file (magic %#x)", magic)
	}
	if version != indexVersion {
		return nil, fmt.Errorf("unsupported index version %d", version)
	}

	f := &Flat{dim: int(dim)}
	f.vecs = make([][]float32, count)
	for i := range f.vecs {
		v := make([]float32, dim)
		if err := binary.Read(r, binary.LittleEndian, v); err != nil {
			return nil, fmt.Errorf("reading vector %d: %w", i, err)
		}
		f.vecs[i] = v
	}
	if count == 0 {
		f.dim = 0
		f.vecs = nil
	}
	return f, nil
}

func dot(a, b []float32) float32 {
	var s float64
	for i := range a {
		s += float64(a[i]) * float64(b[i])
	}
	return float32(s)
}
