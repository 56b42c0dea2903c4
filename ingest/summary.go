package ingest

import (
	"slices"
	"strings"
	"sync"
	"time"
)

// Failure records a document that could not be processed during a run.
type Failure struct {
	Path string
	Err  error
}

// Summary reports the outcome of one ingestion run.
type Summary struct {
	Ingested      int // new and changed documents written to the store
	Skipped       int // unchanged documents, no work performed
	Removed       int // documents deleted from the store
	Failed        int // documents that errored; see Failures
	ChunksWritten int
	Failures      []Failure
	Elapsed       time.Duration
}

// Ok reports whether the run completed without any document failures.
func (s *Summary) Ok() bool {
	return s.Failed == 0
}

// summaryBuilder aggregates results from concurrent document tasks.
type summaryBuilder struct {
	mu      sync.Mutex
	summary Summary
}

func (b *summaryBuilder) addIngested(chunks int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.summary.Ingested++
	b.summary.ChunksWritten += chunks
}

func (b *summaryBuilder) addSkipped() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.summary.Skipped++
}

func (b *summaryBuilder) addRemoved() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.summary.Removed++
}

func (b *summaryBuilder) addFailure(path string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.summary.Failed++
	b.summary.Failures = append(b.summary.Failures, Failure{Path: path, Err: err})
}

func (b *summaryBuilder) build(elapsed time.Duration) *Summary {
	b.mu.Lock()
	defer b.mu.Unlock()
	summary := b.summary
	summary.Elapsed = elapsed
	slices.SortFunc(summary.Failures, func(a, b Failure) int {
		return strings.Compare(a.Path, b.Path)
	})
	return &summary
}
