// Copyright 2026 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import (
	"math"
	"time"

	com "github.com/mus-format/common-go"
	mus "github.com/mus-format/mus-go"
	"github.com/mus-format/mus-go/varint"
)

// MUS serializers for the records persisted in storage. Timestamps are
// stored as Unix microseconds, so round trips carry microsecond precision
// in UTC.
var (
	IDMUS                = idMUS{}
	FingerprintRecordMUS = fingerprintRecordMUS{}
	ChunkMUS             = chunkMUS{}
)

type idMUS struct{}

func (s idMUS) Marshal(v ID, bs []byte) (n int) {
	return varint.Uint64.Marshal(uint64(v), bs)
}

func (s idMUS) Unmarshal(bs []byte) (v ID, n int, err error) {
	num, n, err := varint.Uint64.Unmarshal(bs)
	return ID(num), n, err
}

func (s idMUS) Size(v ID) (size int) {
	return varint.Uint64.Size(uint64(v))
}

type fingerprintRecordMUS struct{}

func (s fingerprintRecordMUS) Marshal(v FingerprintRecord, bs []byte) (n int) {
	n = marshalString(v.Path, bs)
	n += marshalString(string(v.Fingerprint), bs[n:])
	n += varint.Int64.Marshal(v.Size, bs[n:])
	n += varint.Int.Marshal(v.ChunkCount, bs[n:])
	n += marshalTime(v.ProcessedAt, bs[n:])
	return
}

func (s fingerprintRecordMUS) Unmarshal(bs []byte) (v FingerprintRecord, n int, err error) {
	var n1 int
	v.Path, n, err = unmarshalString(bs)
	if err != nil {
		return
	}
	var fp string
	fp, n1, err = unmarshalString(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Fingerprint = Fingerprint(fp)
	v.Size, n1, err = varint.Int64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.ChunkCount, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.ProcessedAt, n1, err = unmarshalTime(bs[n:])
	n += n1
	return
}

func (s fingerprintRecordMUS) Size(v FingerprintRecord) (size int) {
	size = sizeString(v.Path)
	size += sizeString(string(v.Fingerprint))
	size += varint.Int64.Size(v.Size)
	size += varint.Int.Size(v.ChunkCount)
	size += sizeTime(v.ProcessedAt)
	return
}

type chunkMUS struct{}

func (s chunkMUS) Marshal(v Chunk, bs []byte) (n int) {
	n = IDMUS.Marshal(v.Id, bs)
	n += marshalString(v.DocPath, bs[n:])
	n += varint.Int.Marshal(v.Seq, bs[n:])
	n += marshalString(v.Text, bs[n:])
	n += varint.Int.Marshal(v.StartToken, bs[n:])
	n += varint.Int.Marshal(v.EndToken, bs[n:])
	n += varint.Int.Marshal(v.TokenCount, bs[n:])
	n += varint.Int.Marshal(v.Overlap, bs[n:])
	n += marshalVector(v.Vector, bs[n:])
	n += marshalString(v.Model, bs[n:])
	n += marshalTime(v.InsertedAt, bs[n:])
	return
}

func (s chunkMUS) Unmarshal(bs []byte) (v Chunk, n int, err error) {
	var n1 int
	v.Id, n, err = IDMUS.Unmarshal(bs)
	if err != nil {
		return
	}
	v.DocPath, n1, err = unmarshalString(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Seq, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Text, n1, err = unmarshalString(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.StartToken, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.EndToken, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.TokenCount, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Overlap, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Vector, n1, err = unmarshalVector(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Model, n1, err = unmarshalString(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.InsertedAt, n1, err = unmarshalTime(bs[n:])
	n += n1
	return
}

func (s chunkMUS) Size(v Chunk) (size int) {
	size = IDMUS.Size(v.Id)
	size += sizeString(v.DocPath)
	size += varint.Int.Size(v.Seq)
	size += sizeString(v.Text)
	size += varint.Int.Size(v.StartToken)
	size += varint.Int.Size(v.EndToken)
	size += varint.Int.Size(v.TokenCount)
	size += varint.Int.Size(v.Overlap)
	size += sizeVector(v.Vector)
	size += sizeString(v.Model)
	size += sizeTime(v.InsertedAt)
	return
}

// Length-prefixed string encoding.

func marshalString(v string, bs []byte) (n int) {
	n = varint.Int.Marshal(len(v), bs)
	n += copy(bs[n:], v)
	return
}

func unmarshalString(bs []byte) (v string, n int, err error) {
	l, n, err := varint.Int.Unmarshal(bs)
	if err != nil {
		return
	}
	if l < 0 {
		err = com.ErrNegativeLength
		return
	}
	if len(bs) < n+l {
		err = mus.ErrTooSmallByteSlice
		return
	}
	v = string(bs[n : n+l])
	n += l
	return
}

func sizeString(v string) (size int) {
	return varint.Int.Size(len(v)) + len(v)
}

// Vectors are stored as a length prefix followed by the IEEE 754 bits of
// each component.

func marshalVector(v []float32, bs []byte) (n int) {
	n = varint.Int.Marshal(len(v), bs)
	for _, f := range v {
		n += varint.Uint32.Marshal(math.Float32bits(f), bs[n:])
	}
	return
}

func unmarshalVector(bs []byte) (v []float32, n int, err error) {
	l, n, err := varint.Int.Unmarshal(bs)
	if err != nil {
		return
	}
	if l < 0 {
		err = com.ErrNegativeLength
		return
	}
	if l == 0 {
		return
	}
	v = make([]float32, l)
	var (
		bits uint32
		n1   int
	)
	for i := 0; i < l; i++ {
		bits, n1, err = varint.Uint32.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			v = nil
			return
		}
		v[i] = math.Float32frombits(bits)
	}
	return
}

func sizeVector(v []float32) (size int) {
	size = varint.Int.Size(len(v))
	for _, f := range v {
		size += varint.Uint32.Size(math.Float32bits(f))
	}
	return
}

// Timestamps as Unix microseconds.

func marshalTime(v time.Time, bs []byte) (n int) {
	return varint.Int64.Marshal(v.UnixMicro(), bs)
}

func unmarshalTime(bs []byte) (v time.Time, n int, err error) {
	micros, n, err := varint.Int64.Unmarshal(bs)
	if err != nil {
		return
	}
	v = time.UnixMicro(micros).UTC()
	return
}

func sizeTime(v time.Time) (size int) {
	return varint.Int64.Size(v.UnixMicro())
}
