package query

import (
	"context"
	"fmt"
	"time"

	"github.com/kestrel-dev/structindex/internal/index"
)

// Reindex rebuilds the index and installs it via Index.Replace, the
// only query-surface operation that mutates. Full forces a from-scratch
// build; otherwise the builder reuses unchanged files against the
// index's current snapshot, per spec §4.D.
func (e *Engine) Reindex(ctx context.Context, p ReindexParams) (ReindexResult, error) {
	if e.builder == nil {
		return ReindexResult{}, fmt.Errorf("reindex: engine has no builder configured")
	}
	t0 := time.Now()

	var next *index.ProjectIndex
	var err error
	if p.Full {
		next, err = e.builder.Build(ctx)
	} else {
		prev := e.idx.Snapshot()
		next, err = e.builder.Update(ctx, prev)
	}
	if err != nil {
		return ReindexResult{}, fmt.Errorf("reindex: %w", err)
	}

	e.idx.Replace(next)

	return ReindexResult{
		Files:    len(next.Files),
		Symbols:  len(next.Symbols),
		Warnings: len(next.Warnings),
		Elapsed:  time.Since(t0),
	}, nil
}
