// Package artifacts persists and loads the trained bundle: the song table,
// the embeddings array and the vector index. The three files are versioned
// together; a bundle is valid only as a whole.
package artifacts

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/music-engine/backend/internal/catalog"
	"github.com/music-engine/backend/internal/vecindex"
)

const (
	TableFile      = "df.json"
	EmbeddingsFile = "music_embeddings.bin"
	IndexFile      = "music_flat.index"
)

// ConsistencyError reports a bundle whose parts do not agree (mismatched row
// counts, missing files). Fatal at load time: serving must refuse to start
// rather than run against inconsistent data.
type ConsistencyError struct {
	Reason string
}

func (e *ConsistencyError) Error() string {
	return "inconsistent artifact bundle: " + e.Reason
}

// Bundle is one training run's output. Immutable once loaded; safe to share
// across concurrent readers without locking.
type Bundle struct {
	Table      catalog.Table
	Embeddings [][]float32
	Index      *vecindex.Flat
}

// Validate cross-checks the bundle parts against each other.
func (b *Bundle) Validate() error {
	if len(b.Table) != len(b.Embeddings) {
		return &ConsistencyError{Reason: fmt.Sprintf(
			"song table has %d rows but embeddings have %d", len(b.Table), len(b.Embeddings))}
	}
	if b.Index == nil {
		return &ConsistencyError{Reason: "missing vector index"}
	}
	if b.Index.Len() != len(b.Embeddings) {
		return &ConsistencyError{Reason: fmt.Sprintf(
			"index holds %d vectors but embeddings have %d rows", b.Index.Len(), len(b.Embeddings))}
	}
	if len(b.Embeddings) > 0 && b.Index.Dim() != len(b.Embeddings[0]) {
		return &ConsistencyError{Reason: fmt.Sprintf(
			"index dimension %d does not match embedding dimension %d", b.Index.Dim(), len(b.Embeddings[0]))}
	}
	return nil
}

// Save publishes the bundle atomically: all three files are written into a
// temporary directory which is then renamed over the target, so readers
// never observe a partially written bundle.
func Save(dir string, b *Bundle) error {
	if err := b.Validate(); err != nil {
		return err
	}

	tmp := dir + ".tmp"
	if err := os.RemoveAll(tmp); err != nil {
		return fmt.Errorf("clearing staging directory: %w", err)
	}
	if err := os.MkdirAll(tmp, 0755); err != nil {
		return fmt.Errorf("creating staging directory: %w", err)
	}
	// No-op after a successful rename; reclaims the staging directory on
	// any failure path.
	defer os.RemoveAll(tmp)

	if err := writeTable(filepath.Join(tmp, TableFile), b.Table); err != nil {
		return err
	}
	if err := writeEmbeddings(filepath.Join(tmp, EmbeddingsFile), b.Embeddings); err != nil {
		return err
	}
	if err := writeIndex(filepath.Join(tmp, IndexFile), b.Index); err != nil {
		return err
	}

	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("removing previous bundle: %w", err)
	}
	if err := os.Rename(tmp, dir); err != nil {
		return fmt.Errorf("publishing bundle: %w", err)
	}
	return nil
}

// Load reads a bundle directory and verifies its consistency. A partial
// bundle is a fatal error, not a recoverable state.
func Load(dir string) (*Bundle, error) {
	table, err := readTable(filepath.Join(dir, TableFile))
	if err != nil {
		return nil, &ConsistencyError{Reason: err.Error()}
	}
	embeddings, err := readEmbeddings(filepath.Join(dir, EmbeddingsFile))
	if err != nil {
		return nil, &ConsistencyError{Reason: err.Error()}
	}
	index, err := readIndex(filepath.Join(dir, IndexFile))
	if err != nil {
		return nil, &ConsistencyError{Reason: err.Error()}
	}

	b := &Bundle{Table: table, Embeddings: embeddings, Index: index}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

func writeTable(path string, table catalog.Table) error {
	data, err := json.Marshal(table)
	if err != nil {
		return fmt.Errorf("marshaling song table: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing song table: %w", err)
	}
	return nil
}

func readTable(path string) (catalog.Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading song table: %w", err)
	}
	var table catalog.Table
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("decoding song table: %w", err)
	}
	return table, nil
}

// writeEmbeddings stores the array as a little-endian binary file: uint32
// row count, uint32 dimension, then row-major float32 data. Row i
// corresponds to song-table row i.
func writeEmbeddings(path string, rows [][]float32) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("writing embeddings: %w", err)
	}
	defer f.Close()

	dim := 0
	if len(rows) > 0 {
		dim = len(rows[0])
	}
	if err := binary.Write(f, binary.LittleEndian, uint32(len(rows))); err != nil {
		return fmt.Errorf("writing embeddings header: %w", err)
	}
	if err := binary.Write(f, binary.LittleEndian, uint32(dim)); err != nil {
		return fmt.Errorf("writing embeddings header: %w", err)
	}
	for i, row := range rows {
		if len(row) != dim {
			return fmt.Errorf("embedding row %d has dimension %d, expected %d", i, len(row), dim)
		}
		if err := binary.Write(f, binary.LittleEndian, row); err != nil {
			return fmt.Errorf("writing embedding row %d: %w", i, err)
		}
	}
	return nil
}

func readEmbeddings(path string) ([][]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading embeddings: %w", err)
	}
	defer f.Close()

	var count, dim uint32
	if err := binary.Read(f, binary.LittleEndian, &count); err != nil {
		return nil, fmt.Errorf("reading embeddings header: %w", err)
	}
	if err := binary.Read(f, binary.LittleEndian, &dim); err != nil {
		return nil, fmt.Errorf("reading embeddings header: %w", err)
	}
	rows := make([][]float32, count)
	for i := range rows {
		row := make([]float32, dim)
		if err := binary.Read(f, binary.LittleEndian, row); err != nil {
			return nil, fmt.Errorf("reading embedding row %d: %w", i, err)
		}
		rows[i] = row
	}
	return rows, nil
}

func writeIndex(path string, index *vecindex.Flat) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("writing index: %w", err)
	}
	defer f.Close()
	if _, err := index.WriteTo(f); err != nil {
		return fmt.Errorf("serializing index: %w", err)
	}
	return nil
}

func readIndex(path string) (*vecindex.Flat, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading index: %w", err)
	}
	defer f.Close()
	return vecindex.ReadFrom(f)
}
