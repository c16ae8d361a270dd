// Package pipeline hashes every identifier of a contiguous domain and persists the
// results sorted by L_RAND.
package pipeline

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"runtime"
	"slices"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Blackdeer1524/lrand/src"
	"github.com/Blackdeer1524/lrand/src/audit"
	"github.com/Blackdeer1524/lrand/src/batch"
	"github.com/Blackdeer1524/lrand/src/idpool"
	"github.com/Blackdeer1524/lrand/src/kernel"
	"github.com/Blackdeer1524/lrand/src/storage"
)

const progressEvery = 100

var ErrNoOutputPath = errors.New("output path is empty")

type Evaluator interface {
	Evaluate(ctx context.Context, ids *idpool.Pool, v kernel.Variant) (*batch.Batch, error)
}

type Sink interface {
	Write(path, runID string, rows []storage.Row, includeWhole bool) error
}

type Request struct {
	Low  int64
	High int64

	ChunkLength int64
	Variant     kernel.Variant
	// Parallelism bounds the number of chunks in flight; zero means NumCPU.
	Parallelism int

	Path         string
	IncludeWhole bool
}

type Report struct {
	RunID   string
	Path    string
	Variant kernel.Variant

	Rows   int64
	Chunks int

	Wrapped       int64
	ZeroQuantized int64
	Collisions    int64

	Summary audit.Summary
	Elapsed time.Duration
}

type Pipeline struct {
	eval Evaluator
	sink Sink
	log  src.Logger
}

func New(eval Evaluator, sink Sink, log src.Logger) *Pipeline {
	return &Pipeline{
		eval: eval,
		sink: sink,
		log:  log,
	}
}

// Run evaluates [req.Low, req.High) chunk by chunk and writes the sorted dataset to
// req.Path. A failing chunk aborts the run and nothing is written.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Report, error) {
	started := time.Now()

	if req.Path == "" {
		return nil, ErrNoOutputPath
	}
	if req.Variant != kernel.Exact && req.Variant != kernel.Approximate {
		return nil, fmt.Errorf("%w: %s", kernel.ErrUnsupportedVariant, req.Variant)
	}
	if req.ChunkLength == 0 {
		req.ChunkLength = DefaultChunkLength
	}
	if req.Parallelism <= 0 {
		req.Parallelism = runtime.NumCPU()
	}

	chunks, err := Partition(req.Low, req.High, req.ChunkLength)
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	p.log.Infow("starting range enumeration",
		"run_id", runID,
		"low", req.Low,
		"high", req.High,
		"chunks", len(chunks),
		"chunk_length", req.ChunkLength,
		"parallelism", req.Parallelism,
		"variant", req.Variant.String(),
	)

	parts, wrapped, zero, err := p.dispatch(ctx, runID, chunks, req)
	if err != nil {
		p.log.Errorw("range enumeration failed", "run_id", runID, "error", err)
		return nil, fmt.Errorf("failed to enumerate [%d, %d): %w", req.Low, req.High, err)
	}

	rows := concat(parts, req.High-req.Low)
	sortByLRand(rows)

	summary, err := summarize(rows, audit.DefaultSampleSize)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize dataset: %w", err)
	}

	if err := p.sink.Write(req.Path, runID, rows, req.IncludeWhole); err != nil {
		p.log.Errorw("failed to persist dataset", "run_id", runID, "path", req.Path, "error", err)
		return nil, fmt.Errorf("failed to persist dataset: %w", err)
	}

	rep := &Report{
		RunID:         runID,
		Path:          req.Path,
		Variant:       req.Variant,
		Rows:          int64(len(rows)),
		Chunks:        len(chunks),
		Wrapped:       wrapped,
		ZeroQuantized: zero,
		Collisions:    audit.Collisions(rows),
		Summary:       summary,
		Elapsed:       time.Since(started),
	}

	p.log.Infow("range enumeration finished",
		"run_id", runID,
		"rows", rep.Rows,
		"wrapped", rep.Wrapped,
		"zero_quantized", rep.ZeroQuantized,
		"collisions", rep.Collisions,
		"max_l_rand", rep.Summary.Max,
		"path", rep.Path,
		"elapsed", rep.Elapsed,
	)

	return rep, nil
}

func (p *Pipeline) dispatch(
	ctx context.Context,
	runID string,
	chunks []Chunk,
	req Request,
) (parts [][]storage.Row, wrapped, zero int64, err error) {
	parts = make([][]storage.Row, len(chunks))

	var (
		wrappedCnt atomic.Int64
		zeroCnt    atomic.Int64
		doneCnt    atomic.Int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(req.Parallelism)

	for i, c := range chunks {
		if gctx.Err() != nil {
			break
		}

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			ids, err := idpool.Exhaustive(c.Start, c.End)
			if err != nil {
				return fmt.Errorf("chunk %d: %w", i, err)
			}

			b, err := p.eval.Evaluate(gctx, ids, req.Variant)
			if err != nil {
				return fmt.Errorf("chunk %d [%d, %d): %w", i, c.Start, c.End, err)
			}

			parts[i] = b.Rows()

			wrappedCnt.Add(int64(b.Wrapped))
			zeroCnt.Add(int64(b.ZeroQuantized))

			if n := doneCnt.Add(1); n%progressEvery == 0 || n == int64(len(chunks)) {
				p.log.Infow("chunks completed", "run_id", runID, "done", n, "total", len(chunks))
			}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, 0, 0, err
	}
	// the loop may have stopped early on a parent cancellation
	if err := ctx.Err(); err != nil {
		return nil, 0, 0, err
	}

	return parts, wrappedCnt.Load(), zeroCnt.Load(), nil
}

func concat(parts [][]storage.Row, total int64) []storage.Row {
	rows := make([]storage.Row, 0, total)
	for i := range parts {
		rows = append(rows, parts[i]...)
		parts[i] = nil
	}

	return rows
}

// sortByLRand orders rows by L_RAND descending, ties by identifier ascending, and
// assigns a dense index starting at 0.
func sortByLRand(rows []storage.Row) {
	slices.SortFunc(rows, func(a, b storage.Row) int {
		if c := cmp.Compare(b.Whole, a.Whole); c != 0 {
			return c
		}
		return cmp.Compare(a.Identifier, b.Identifier)
	})

	for i := range rows {
		rows[i].Index = int64(i)
	}
}

// summarize computes the distribution over at most limit evenly spaced rows. Min and
// Max are exact; rows must be sorted by L_RAND descending.
func summarize(rows []storage.Row, limit int) (audit.Summary, error) {
	s, err := audit.Summarize(strided(rows, limit))
	if err != nil {
		return audit.Summary{}, err
	}

	s.Max = float64(rows[0].Whole) / kernel.Scale
	s.Min = float64(rows[len(rows)-1].Whole) / kernel.Scale

	return s, nil
}

func strided(rows []storage.Row, limit int) []int64 {
	step := 1
	if len(rows) > limit {
		step = (len(rows) + limit - 1) / limit
	}

	out := make([]int64, 0, min(len(rows), limit))
	for i := 0; i < len(rows); i += step {
		out = append(out, rows[i].Whole)
	}

	return out
}
