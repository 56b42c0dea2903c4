package badger

import (
	"encoding/binary"
	"fmt"
)

// Key prefixes for different data types
const (
	chunkRecordPrefix       = "chkrec"
	fingerprintRecordPrefix = "fprec"
)

// makeChunkKey generates a key for a chunk by document path and sequence
// index. The sequence is encoded BigEndian so a prefix scan over one
// document yields chunks in order.
func makeChunkKey(docPath string, seq int) []byte {
	prefix := makeChunkDocPrefix(docPath)
	buf := make([]byte, len(prefix)+4)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint32(buf[offset:], uint32(seq))
	return buf
}

// makeChunkDocPrefix generates the key prefix shared by all chunks of one
// document. The path length is part of the prefix so one document's prefix
// can never be a prefix of another's.
func makeChunkDocPrefix(docPath string) []byte {
	return []byte(fmt.Sprintf("%s:%d:%s:", chunkRecordPrefix, len(docPath), docPath))
}

// makeFingerprintKey generates a key for a fingerprint-index record.
func makeFingerprintKey(docPath string) []byte {
	return []byte(fmt.Sprintf("%s:%s", fingerprintRecordPrefix, docPath))
}
