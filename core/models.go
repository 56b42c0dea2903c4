package core

import (
	"encoding/binary"
	"encoding/hex"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing, so identical content
// always yields the same ID.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// ChunkID generates the ID for a chunk from its parent document path and
// sequence index. Chunk IDs are stable across re-ingestion of the same
// document.
func ChunkID(docPath string, seq int) ID {
	return IDFromContent(docPath + "#" + strconv.Itoa(seq))
}

// Fingerprint is a hex-encoded BLAKE2b-256 hash of a document's raw bytes.
// It is the sole signal used to decide whether a document changed between
// ingestion runs.
type Fingerprint string

// FingerprintFromBytes computes the fingerprint of raw document content.
// It is a pure function: byte-identical input always produces an identical
// fingerprint.
func FingerprintFromBytes(data []byte) Fingerprint {
	h, _ := blake2b.New(32, nil)
	h.Write(data)
	return Fingerprint(hex.EncodeToString(h.Sum(nil)))
}

// FingerprintFile streams a file through the hash without loading it into
// memory. Equivalent to FingerprintFromBytes over the file's contents.
func FingerprintFile(path string) (Fingerprint, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h, _ := blake2b.New(32, nil)
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return Fingerprint(hex.EncodeToString(h.Sum(nil))), nil
}

// Document describes one source file in the corpus.
type Document struct {
	Path        string      // Path relative to the corpus root; identity of the document
	Size        int64       // Raw byte size
	Fingerprint Fingerprint // Content hash of the raw bytes
	ProcessedAt time.Time   // When the document last completed ingestion
}

// Chunk is one overlapping token window cut from a document's extracted text.
// Chunks are owned by their parent document and are destroyed and regenerated
// as a set whenever the parent's fingerprint changes.
type Chunk struct {
	Id         ID
	DocPath    string    // Parent document path
	Seq        int       // Position within the document, starting at 0
	Text       string    // Window text
	StartToken int       // Token offset of the window start in the document
	EndToken   int       // Token offset one past the window end
	TokenCount int       // EndToken - StartToken
	Overlap    int       // Tokens shared with the previous chunk (0 for the first)
	Vector     []float32 // Embedding vector (populated before storage)
	Model      string    // Embedding model identifier
	InsertedAt time.Time
}

// DocState classifies a document during planning of an ingestion run.
type DocState int

const (
	// StateNew means the document has no entry in the fingerprint index.
	StateNew DocState = iota + 1
	// StateChanged means the document's fingerprint differs from the index.
	StateChanged
	// StateUnchanged means the fingerprint matches and the document is skipped.
	StateUnchanged
	// StateRemoved means the document is in the index but absent from the corpus.
	StateRemoved
)

// String returns the lower-case name of the state.
func (s DocState) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateChanged:
		return "changed"
	case StateUnchanged:
		return "unchanged"
	case StateRemoved:
		return "removed"
	}
	return "unknown"
}

// FingerprintRecord is the persisted fingerprint-index entry for a document.
type FingerprintRecord struct {
	Path        string
	Fingerprint Fingerprint
	Size        int64
	ChunkCount  int
	ProcessedAt time.Time
}

// SearchResult is a chunk returned from retrieval with its relevance score.
type SearchResult struct {
	Chunk *Chunk
	Score float32
}

// StoreStats summarizes the contents of the vector store.
type StoreStats struct {
	Documents int
	Chunks    int
}
