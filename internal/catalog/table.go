// Package catalog holds the song metadata table. Row position is the
// identity shared with the embeddings array and the vector index: row i of
// the table corresponds to row i of the embeddings for the lifetime of a
// trained bundle.
package catalog

// Song is one track in the corpus. Text is consumed only during training;
// the remaining optional columns are passed through unchanged.
type Song struct {
	Title       string `json:"song"`
	Artist      string `json:"artist"`
	Text        string `json:"text,omitempty"`
	Genre       string `json:"genre,omitempty"`
	Popularity  string `json:"popularity,omitempty"`
	ReleaseDate string `json:"release_date,omitempty"`
}

// Table is an order-preserving song list. It is never re-sorted or filtered
// after training, so positional identity stays aligned with the embeddings.
type Table []Song

// FindByTitle returns the first row whose title exactly matches, or -1. When
// several artists share a title the lowest row wins, deterministically.
func (t Table) FindByTitle(title string) int {
	for i := range t {
		if t[i].Title == title {
			return i
		}
	}
	return -1
}

// Titles returns all song titles in table order.
func (t Table) Titles() []string {
	out := make([]string, len(t))
	for i := range t {
		out[i] = t[i].Title
	}
	return out
}

// Artists returns the distinct artist names in first-appearance order.
func (t Table) Artists() []string {
	seen := make(map[string]bool, len(t))
	var out []string
	for i := range t {
		if a := t[i].Artist; a != "" && !seen[a] {
			seen[a] = true
			out = append(out, a)
		}
	}
	return out
}
