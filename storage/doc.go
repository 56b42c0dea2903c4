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


// Package storage provides the storage abstraction layer for the knowledge
// base.
//
// It defines two interfaces that decouple the ingestion pipeline from the
// storage backend:
//
//   - FingerprintIndex: the persisted document-path → fingerprint mapping
//     that drives incremental-update decisions
//   - VectorRepository: chunk vectors and metadata, with per-document
//     replace/delete and similarity queries
//
// Public constructors in backend packages return these interfaces to prevent
// accidental coupling to BadgerDB specifics; alternative backends only need
// to satisfy the same contracts.
//
// All implementations must be thread-safe, and all methods accept a
// context.Context for cancellation.
package storage
