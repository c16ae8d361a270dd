package idpool

import (
	"math"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExplicitIsVerbatim(t *testing.T) {
	in := []int64{5, 3, 3, 9}
	p := Explicit(in)
	in[0] = 100

	assert.Equal(t, ModeExplicit, p.Mode())
	assert.Equal(t, 4, p.Len())
	assert.Equal(t, []int64{5, 3, 3, 9}, p.Values())
	assert.Equal(t, int64(9), p.At(3))
}

func TestSampledIsSortedAndReproducible(t *testing.T) {
	a, err := Sampled(0, 999_999_999, 10, 0)
	require.NoError(t, err)
	b, err := Sampled(0, 999_999_999, 10, 0)
	require.NoError(t, err)
	c, err := Sampled(0, 999_999_999, 10, 1)
	require.NoError(t, err)

	assert.Equal(t, 10, a.Len())
	assert.Equal(t, a.Values(), b.Values())
	assert.NotEqual(t, a.Values(), c.Values())
	assert.True(t, slices.IsSorted(a.Values()))

	for _, id := range a.Values() {
		assert.GreaterOrEqual(t, id, int64(0))
		assert.Less(t, id, int64(999_999_999))
	}
}

func TestSampledEmpty(t *testing.T) {
	p, err := Sampled(1, 2, 0, 3)
	require.NoError(t, err)
	assert.Equal(t, 0, p.Len())
	assert.Empty(t, p.Values())
}

func TestExhaustive(t *testing.T) {
	p, err := Exhaustive(10, 15)
	require.NoError(t, err)

	assert.Equal(t, ModeExhaustive, p.Mode())
	assert.Equal(t, 5, p.Len())
	assert.Equal(t, []int64{10, 11, 12, 13, 14}, p.Values())
	assert.Equal(t, int64(12), p.At(2))
}

func TestSlice(t *testing.T) {
	ex, err := Exhaustive(100, 200)
	require.NoError(t, err)

	sub, err := ex.Slice(10, 13)
	require.NoError(t, err)
	assert.Equal(t, []int64{110, 111, 112}, sub.Values())

	explicit := Explicit([]int64{1, 2, 3, 4})
	sub, err = explicit.Slice(1, 3)
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 3}, sub.Values())

	_, err = explicit.Slice(3, 5)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	_, err = explicit.Slice(2, 1)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestValidation(t *testing.T) {
	_, err := Sampled(10, 10, 1, 0)
	assert.ErrorIs(t, err, ErrEmptyRange)

	_, err = Sampled(10, 5, 1, 0)
	assert.ErrorIs(t, err, ErrEmptyRange)

	_, err = Sampled(0, 10, -1, 0)
	assert.ErrorIs(t, err, ErrInvalidSampleSize)

	_, err = Sampled(0, 10, MaxSampleSize+1, 0)
	assert.ErrorIs(t, err, ErrInvalidSampleSize)

	_, err = Exhaustive(7, 7)
	assert.ErrorIs(t, err, ErrEmptyRange)

	_, err = Exhaustive(math.MinInt64, math.MaxInt64)
	assert.ErrorIs(t, err, ErrRangeTooLarge)
}
