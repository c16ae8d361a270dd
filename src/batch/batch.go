// Package batch maps the kernel over an identifier pool on a bounded worker pool.
package batch

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/panjf2000/ants"

	"github.com/Blackdeer1524/lrand/src"
	"github.com/Blackdeer1524/lrand/src/idpool"
	"github.com/Blackdeer1524/lrand/src/kernel"
	"github.com/Blackdeer1524/lrand/src/storage"
)

const DefaultBlockSize = 4096

// Batch holds one result per pool element, in pool order.
type Batch struct {
	Variant kernel.Variant
	Results []kernel.Result

	Wrapped       int
	ZeroQuantized int
}

func (b *Batch) Len() int {
	return len(b.Results)
}

// Rows drops everything but identifier and L_RAND_WHOLE. Index is left unset.
func (b *Batch) Rows() []storage.Row {
	rows := make([]storage.Row, len(b.Results))
	for i, res := range b.Results {
		rows[i] = storage.Row{Identifier: res.Identifier, Whole: res.Whole}
	}

	return rows
}

// Evaluator owns a single worker pool and may be shared by concurrent callers.
type Evaluator struct {
	pool      *ants.Pool
	blockSize int
	log       src.Logger
}

func NewEvaluator(workers, blockSize int, log src.Logger) (*Evaluator, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}

	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, fmt.Errorf("failed to create worker pool: %w", err)
	}

	return &Evaluator{
		pool:      pool,
		blockSize: blockSize,
		log:       log,
	}, nil
}

func (e *Evaluator) Close() {
	e.pool.Release()
}

// Evaluate hashes every identifier of ids. The first failing identifier aborts the
// whole batch and no results are returned.
func (e *Evaluator) Evaluate(
	ctx context.Context,
	ids *idpool.Pool,
	v kernel.Variant,
) (*Batch, error) {
	if v != kernel.Exact && v != kernel.Approximate {
		return nil, fmt.Errorf("%w: %s", kernel.ErrUnsupportedVariant, v)
	}

	n := ids.Len()
	results := make([]kernel.Result, n)

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	var wg sync.WaitGroup
	for start := 0; start < n; start += e.blockSize {
		if ctx.Err() != nil {
			break
		}

		end := min(start+e.blockSize, n)

		wg.Add(1)
		err := e.pool.Submit(func() {
			defer wg.Done()

			if ctx.Err() != nil {
				return
			}

			for i := start; i < end; i++ {
				res, err := kernel.Evaluate(ids.At(i), v)
				if err != nil {
					cancel(err)
					return
				}
				results[i] = res
			}
		})
		if err != nil {
			wg.Done()
			cancel(fmt.Errorf("failed to submit block [%d, %d): %w", start, end, err))
			break
		}
	}
	wg.Wait()

	if err := context.Cause(ctx); err != nil {
		return nil, fmt.Errorf("failed to evaluate batch: %w", err)
	}

	b := &Batch{Variant: v, Results: results}
	e.collectDiagnostics(b)

	return b, nil
}

func (e *Evaluator) collectDiagnostics(b *Batch) {
	for _, res := range b.Results {
		if res.Wrapped {
			b.Wrapped++
			e.log.Debugw("SD' is not positive, wrapped by M",
				"identifier", res.Identifier,
				"variant", b.Variant.String(),
			)
		}
		if res.ZeroQuantized {
			b.ZeroQuantized++
			e.log.Warnw("L_RAND is zero",
				"identifier", res.Identifier,
				"variant", b.Variant.String(),
			)
		}
	}

	if b.Wrapped > 0 {
		e.log.Warnw("wraparound correction applied",
			"count", b.Wrapped,
			"batch_size", len(b.Results),
			"variant", b.Variant.String(),
		)
	}
}
