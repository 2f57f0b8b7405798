package feature

import "math"

// NormalizeVector L2-normalizes v in place so that inner product equals
// cosine similarity. Zero-norm vectors (degenerate empty documents) are left
// untouched rather than divided by zero.
func NormalizeVector(v []float32) {
	var sumSq float64
	for _, x := range v {
		sumSq += float64(x) * float64(x)
	}
	if sumSq == 0 {
		return
	}
	norm := math.Sqrt(sumSq)
	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}
}

// NormalizeRows applies NormalizeVector to every row.
func NormalizeRows(rows [][]float32) {
	for _, row := range rows {
		NormalizeVector(row)
	}
}
