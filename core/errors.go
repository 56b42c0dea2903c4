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

import "errors"

// Domain validation errors
var (
	// ErrInvalidChunk indicates a Chunk failed validation.
	ErrInvalidChunk = errors.New("invalid chunk")

	// ErrInvalidDocument indicates a Document failed validation.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrEmptyPath indicates a document path is empty.
	ErrEmptyPath = errors.New("document path cannot be empty")

	// ErrEmptyText indicates a chunk Text field is empty.
	ErrEmptyText = errors.New("chunk text cannot be empty")

	// ErrEmptyFingerprint indicates a document fingerprint is missing.
	ErrEmptyFingerprint = errors.New("fingerprint cannot be empty")

	// ErrInvalidChunkParams indicates chunk size/overlap parameters are
	// out of range (size must be positive, overlap non-negative and
	// strictly less than size).
	ErrInvalidChunkParams = errors.New("invalid chunk parameters")

	// ErrInvalidTokenSpan indicates a chunk's token offsets are inconsistent.
	ErrInvalidTokenSpan = errors.New("invalid token span")
)
