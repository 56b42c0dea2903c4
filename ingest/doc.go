// Package ingest orchestrates incremental ingestion of a document corpus
// into the vector store.
//
// The Coordinator compares the current corpus against the fingerprint index,
// classifies each document (new, changed, unchanged, removed), and processes
// only the documents that need work: extract text, chunk it into overlapping
// token windows, embed the chunks, and atomically replace the document's
// chunk set in the store. The fingerprint record is written only after the
// store write succeeds, so an interrupted run re-processes at most the
// documents that had not completed.
//
// Documents are processed independently using a worker pool. A failure in one
// document is recorded in the run Summary and does not stop the run.
package ingest
