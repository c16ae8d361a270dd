// Package jitter perturbs identifiers so that repeated kernel calls for the same
// identifier land on unrelated L_RAND values.
package jitter

import (
	"math/big"
	"slices"
	"time"
)

const microsPerSecond = 1_000_000

// OffsetAt returns the sub-second part of t in microseconds.
func OffsetAt(t time.Time) int64 {
	return (t.UnixMicro()%microsPerSecond + microsPerSecond) % microsPerSecond
}

// Apply reverses the decimal digits of id+offset. The sum is computed without
// overflow; a negative sum keeps its sign.
func Apply(id, offset int64) *big.Int {
	sum := new(big.Int).Add(big.NewInt(id), big.NewInt(offset))
	return reverseDigits(sum)
}

func ApplyAt(id int64, t time.Time) *big.Int {
	return Apply(id, OffsetAt(t))
}

// ApplyNow uses the wall clock and is therefore not reproducible.
func ApplyNow(id int64) *big.Int {
	return ApplyAt(id, time.Now())
}

func reverseDigits(x *big.Int) *big.Int {
	digits := []byte(new(big.Int).Abs(x).String())
	slices.Reverse(digits)

	out, _ := new(big.Int).SetString(string(digits), 10)
	if x.Sign() < 0 {
		out.Neg(out)
	}

	return out
}
