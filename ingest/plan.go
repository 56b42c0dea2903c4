package ingest

import (
	"context"
	"slices"

	"github.com/poiesic/knowledge/core"
	"github.com/poiesic/knowledge/corpus"
	"github.com/poiesic/knowledge/storage"
)

// Source provides the documents to ingest. *corpus.Loader satisfies it.
type Source interface {
	// List returns the documents currently present, lexically ordered.
	List(ctx context.Context) ([]corpus.Entry, error)

	// Read returns the raw bytes of a listed document.
	Read(relPath string) ([]byte, error)
}

// PlannedDoc is one document's classification for a run.
type PlannedDoc struct {
	Path  string
	Size  int64
	State core.DocState
}

// Plan is the outcome of diffing the corpus against the fingerprint index.
type Plan struct {
	// Docs holds every document currently present, in corpus order.
	Docs []PlannedDoc

	// Removed holds indexed paths that are no longer present, ordered.
	Removed []string
}

// Pending returns the number of documents the run will touch: new and
// changed documents plus removals. Unchanged documents are not counted.
func (p *Plan) Pending() int {
	n := len(p.Removed)
	for _, doc := range p.Docs {
		if doc.State != core.StateUnchanged {
			n++
		}
	}
	return n
}

// BuildPlan classifies every document against the fingerprint index.
//
// A document is unchanged only when its current content hashes to the
// indexed fingerprint; force skips the comparison and marks every indexed
// document as changed. A document that cannot be read at plan time is
// classified as if it had changed, so the processing pass surfaces the
// read error as a per-document failure.
func BuildPlan(ctx context.Context, source Source, index storage.FingerprintIndex, force bool) (*Plan, error) {
	if source == nil {
		return nil, ErrSourceRequired
	}
	if index == nil {
		return nil, ErrIndexRequired
	}

	entries, err := source.List(ctx)
	if err != nil {
		return nil, err
	}

	records, err := index.All(ctx)
	if err != nil {
		return nil, err
	}

	indexed := make(map[string]*core.FingerprintRecord, len(records))
	for _, record := range records {
		indexed[record.Path] = record
	}

	plan := &Plan{Docs: make([]PlannedDoc, 0, len(entries))}

	seen := make(map[string]bool, len(entries))
	for _, entry := range entries {
		seen[entry.Path] = true
		plan.Docs = append(plan.Docs, PlannedDoc{
			Path:  entry.Path,
			Size:  entry.Size,
			State: classify(ctx, source, indexed[entry.Path], entry, force),
		})
	}

	for path := range indexed {
		if !seen[path] {
			plan.Removed = append(plan.Removed, path)
		}
	}
	slices.Sort(plan.Removed)

	return plan, nil
}

func classify(ctx context.Context, source Source, record *core.FingerprintRecord, entry corpus.Entry, force bool) core.DocState {
	if record == nil {
		return core.StateNew
	}
	if force {
		return core.StateChanged
	}

	data, err := source.Read(entry.Path)
	if err != nil {
		// Let the processing pass hit the same error and record it.
		return core.StateChanged
	}

	if core.FingerprintFromBytes(data) != record.Fingerprint {
		return core.StateChanged
	}
	return core.StateUnchanged
}
