package feature

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// DefaultComponents is the dimensionality of the latent embedding space.
const DefaultComponents = 256

// Reducer projects the sparse TF-IDF matrix onto a dense fixed-size latent
// space via truncated singular value decomposition. gonum's SVD is exact and
// deterministic, so identical corpora always produce identical embeddings.
type Reducer struct {
	Components int

	// components holds the truncated right singular vectors [V x k],
	// retained so out-of-sample TF-IDF rows can be projected later.
	components *mat.Dense
	fitted     bool
}

func NewReducer(components int) *Reducer {
	if components <= 0 {
		components = DefaultComponents
	}
	return &Reducer{Components: components}
}

// FitTransform decomposes X [N x V] and returns the documents projected into
// the k-dimensional latent space as float32 rows (U_k scaled by the singular
// values). k must satisfy k <= min(N, V) - 1 for the truncation to be
// well-defined.
func (r *Reducer) FitTransform(x mat.Matrix) ([][]float32, error) {
	if r.fitted {
		return nil, &ConfigError{Param: "reducer", Reason: "already fitted; one fit per training run"}
	}
	n, v := x.Dims()
	bound := n
	if v < bound {
		bound = v
	}
	if r.Components > bound-1 {
		return nil, &ConfigError{
			Param:  "n_components",
			Reason: fmt.Sprintf("%d exceeds min(docs, terms)-1 = %d", r.Components, bound-1),
		}
	}

	var svd mat.SVD
	if !svd.Factorize(x, mat.SVDThin) {
		return nil, fmt.Errorf("svd factorization failed to converge")
	}

	var u, rsv mat.Dense
	svd.UTo(&u)
	svd.VTo(&rsv)
	s := svd.Values(nil)

	k := r.Components
	r.components = mat.NewDense(v, k, nil)
	for i := 0; i < v; i++ {
		for j := 0; j < k; j++ {
			r.components.Set(i, j, rsv.At(i, j))
		}
	}
	r.fitted = true

	rows := make([][]float32, n)
	for i := 0; i < n; i++ {
		row := make([]float32, k)
		for j := 0; j < k; j++ {
			row[j] = float32(u.At(i, j) * s[j])
		}
		rows[i] = row
	}
	return rows, nil
}

// Transform projects one out-of-sample TF-IDF row [V] into the latent space.
func (r *Reducer) Transform(row []float64) ([]float32, error) {
	if !r.fitted {
		return nil, &ConfigError{Param: "reducer", Reason: "not fitted"}
	}
	v, k := r.components.Dims()
	if len(row) != v {
		return nil, &ConfigError{
			Param:  "tfidf row",
			Reason: fmt.Sprintf("length %d does not match vocabulary size %d", len(row), v),
		}
	}
	out := make([]float32, k)
	for j := 0; j < k; j++ {
		var dot float64
		for i := 0; i < v; i++ {
			dot += row[i] * r.components.At(i, j)
		}
		out[j] = float32(dot)
	}
	return out, nil
}
