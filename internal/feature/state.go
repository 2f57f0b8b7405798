package feature

import "github.com/music-engine/backend/internal/textnorm"

// State bundles the fitted vectorizer and reducer produced by one training
// run. It is immutable after training and is only needed to embed songs that
// were not part of the trained corpus; serving recommendations over the
// existing corpus does not require it.
type State struct {
	Vectorizer *Vectorizer
	Reducer    *Reducer
}

// Embed turns raw song text into a unit-length latent vector using the
// fitted feature state. Text with no in-vocabulary terms maps to the zero
// vector.
func (s *State) Embed(raw string) ([]float32, error) {
	row := s.Vectorizer.Transform(textnorm.Normalize(raw))
	emb, err := s.Reducer.Transform(row)
	if err != nil {
		return nil, err
	}
	NormalizeVector(emb)
	return emb, nil
}
