package ingest

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/hashicorp/go-multierror"

	"github.com/theirongolddev/afkmon/internal/apperr"
)

// BatchResult summarizes a bulk ingestion.
type BatchResult struct {
	Total    int
	Ingested int
	Rejected int
	Failed   int
	// Err aggregates every per-record failure, or is nil.
	Err error
}

// ProgressFunc is called after each record with the number processed so far.
type ProgressFunc func(current, total int)

// IngestAll ingests payloads for owner with a bounded worker pool. A failed
// record does not stop the others.
func (i *Ingestor) IngestAll(ctx context.Context, owner string, payloads []Payload, progressFn ProgressFunc) BatchResult {
	result := BatchResult{Total: len(payloads)}
	if len(payloads) == 0 {
		return result
	}

	numWorkers := runtime.GOMAXPROCS(0)
	if numWorkers < 1 {
		numWorkers = 4
	}
	if numWorkers > len(payloads) {
		numWorkers = len(payloads)
	}

	work := make(chan int, len(payloads))
	errs := make([]error, len(payloads))
	var wg sync.WaitGroup
	var processed atomic.Int64

	for idx := range payloads {
		work <- idx
	}
	close(work)

	wg.Add(numWorkers)
	for w := 0; w < numWorkers; w++ {
		go func() {
			defer wg.Done()
			for idx := range work {
				if err := ctx.Err(); err != nil {
					errs[idx] = err
				} else {
					_, errs[idx] = i.Ingest(ctx, owner, payloads[idx])
				}
				n := processed.Add(1)
				if progressFn != nil {
					progressFn(int(n), len(payloads))
				}
			}
		}()
	}

	wg.Wait()

	var merr *multierror.Error
	for idx, err := range errs {
		switch {
		case err == nil:
			result.Ingested++
			continue
		case apperr.Is(err, apperr.KindValidation):
			result.Rejected++
		default:
			result.Failed++
		}
		merr = multierror.Append(merr, fmt.Errorf("record %d (%s): %w", idx, payloads[idx].Session.ID, err))
	}
	result.Err = merr.ErrorOrNil()
	return result
}
