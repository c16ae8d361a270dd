// Package idpool builds the sequences of identifiers fed to the kernel.
package idpool

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
)

// MaxSampleSize bounds sampled pools; larger sweeps must be exhaustive.
const MaxSampleSize = math.MaxInt32

var (
	ErrEmptyRange        = errors.New("high must be greater than low")
	ErrInvalidSampleSize = errors.New("invalid sample size")
	ErrRangeTooLarge     = errors.New("range is too large")
	ErrIndexOutOfRange   = errors.New("index out of range")
)

type Mode uint8

const (
	ModeExplicit Mode = iota
	ModeSampled
	ModeExhaustive
)

func (m Mode) String() string {
	switch m {
	case ModeExplicit:
		return "explicit"
	case ModeSampled:
		return "sampled"
	case ModeExhaustive:
		return "exhaustive"
	default:
		return fmt.Sprintf("Mode(%d)", uint8(m))
	}
}

// Pool is an ordered, read-only sequence of identifiers. Exhaustive pools are not
// materialised.
type Pool struct {
	mode Mode
	ids  []int64

	low    int64
	length int
}

func Explicit(ids []int64) *Pool {
	return &Pool{
		mode:   ModeExplicit,
		ids:    slices.Clone(ids),
		length: len(ids),
	}
}

// Sampled draws size identifiers uniformly from [low, high) and sorts them. The same
// seed always yields the same pool.
func Sampled(low, high int64, size int, seed uint64) (*Pool, error) {
	if high <= low {
		return nil, fmt.Errorf("%w: [%d, %d)", ErrEmptyRange, low, high)
	}
	if size < 0 || size > MaxSampleSize {
		return nil, fmt.Errorf("%w: %d not in [0, %d]", ErrInvalidSampleSize, size, MaxSampleSize)
	}

	span := uint64(high - low)
	r := rand.New(rand.NewPCG(seed, seed))
	ids := make([]int64, size)
	for i := range ids {
		ids[i] = low + int64(r.Uint64N(span))
	}
	slices.Sort(ids)

	return &Pool{mode: ModeSampled, ids: ids, length: size}, nil
}

func Exhaustive(low, high int64) (*Pool, error) {
	if high <= low {
		return nil, fmt.Errorf("%w: [%d, %d)", ErrEmptyRange, low, high)
	}

	span := uint64(high - low)
	if span > math.MaxInt {
		return nil, fmt.Errorf("%w: [%d, %d)", ErrRangeTooLarge, low, high)
	}

	return &Pool{mode: ModeExhaustive, low: low, length: int(span)}, nil
}

func (p *Pool) Mode() Mode {
	return p.mode
}

func (p *Pool) Len() int {
	return p.length
}

// At does not check bounds.
func (p *Pool) At(i int) int64 {
	if p.mode == ModeExhaustive {
		return p.low + int64(i)
	}

	return p.ids[i]
}

// Values materialises the pool.
func (p *Pool) Values() []int64 {
	if p.mode != ModeExhaustive {
		return slices.Clone(p.ids)
	}

	out := make([]int64, p.length)
	for i := range out {
		out[i] = p.low + int64(i)
	}

	return out
}

// Slice returns the sub-pool [i, j) sharing storage with p.
func (p *Pool) Slice(i, j int) (*Pool, error) {
	if i < 0 || j < i || j > p.length {
		return nil, fmt.Errorf("%w: [%d, %d) of %d", ErrIndexOutOfRange, i, j, p.length)
	}

	if p.mode == ModeExhaustive {
		return &Pool{mode: ModeExhaustive, low: p.low + int64(i), length: j - i}, nil
	}

	return &Pool{mode: p.mode, ids: p.ids[i:j], length: j - i}, nil
}
