// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package registry

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/pdiddy/asset-registrar/pkg/types"
)

// BatchResult holds the outcome of a batch registration run.
type BatchResult struct {
	Registered int
	Partial    int
	Failed     int

	// Skipped counts articles whose pass never started because the run
	// was interrupted.
	Skipped int

	// Results is aligned with the input articles. Entries of skipped
	// articles are nil.
	Results []*types.RegistrationResult
}

// Total returns the number of input articles, skipped ones included.
func (r BatchResult) Total() int {
	return r.Registered + r.Partial + r.Failed + r.Skipped
}

// HasFailures reports whether any article failed, registered partially or
// was skipped.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0 || r.Partial > 0 || r.Skipped > 0
}

// RegisterBatch runs one pass per article, at most Parallelism at a time,
// and prints one status line per article to w. An article whose pass
// returns a fatal error counts as failed; one with recorded errors or
// assets still pending counts as partial.
func (o *Orchestrator) RegisterBatch(ctx context.Context, articles []types.Article, w io.Writer) BatchResult {
	result := BatchResult{Results: make([]*types.RegistrationResult, len(articles))}

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		sem = make(chan struct{}, o.cfg.Parallelism)
	)
	started := 0
loop:
	for i, article := range articles {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			break loop
		}
		if ctx.Err() != nil {
			<-sem
			break loop
		}
		started++
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			res, err := o.Register(ctx, article)

			mu.Lock()
			defer mu.Unlock()
			result.Results[i] = res
			bucket := article.BucketName()
			switch {
			case err != nil:
				result.Failed++
				fmt.Fprintf(w, "failed:     %s (%v)\n", bucket, err)
			case res.HasErrors() || res.Pending() > 0:
				result.Partial++
				fmt.Fprintf(w, "partial:    %s (%d/%d registered, %d errors)\n",
					bucket, res.Registered(), res.Len(), len(res.Errors))
			default:
				result.Registered++
				fmt.Fprintf(w, "registered: %s (%d assets)\n", bucket, res.Len())
			}
		}()
	}
	wg.Wait()

	for _, article := range articles[started:] {
		result.Skipped++
		fmt.Fprintf(w, "skipped:    %s (interrupted)\n", article.BucketName())
	}

	if result.Skipped > 0 {
		fmt.Fprintf(w, "\nBatch summary: %d registered, %d partial, %d failed, %d skipped (total: %d)\n",
			result.Registered, result.Partial, result.Failed, result.Skipped, result.Total())
	} else {
		fmt.Fprintf(w, "\nBatch summary: %d registered, %d partial, %d failed (total: %d)\n",
			result.Registered, result.Partial, result.Failed, result.Total())
	}
	return result
}
