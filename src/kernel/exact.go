package kernel

import (
	"fmt"

	"github.com/cockroachdb/apd/v3"
)

// fixedPoint reproduces the COBOL picture arithmetic: ten significant digits,
// every intermediate truncated toward zero.
var fixedPoint = apd.Context{
	Precision:   Digits,
	MaxExponent: apd.MaxExponent,
	MinExponent: apd.MinExponent,
	Traps:       apd.DefaultTraps,
	Rounding:    apd.RoundDown,
}

var (
	decQ     = apd.New(Q, 0)
	decA     = apd.New(A, 0)
	decR     = apd.New(R, 0)
	decM     = apd.New(M, 0)
	decScale = apd.New(1, Digits)
)

func EvaluateExact(id int64) (Result, error) {
	if err := checkDomain(id); err != nil {
		return Result{}, err
	}

	var (
		seed = apd.New(id, 0)

		quot, hi, qhi, lo apd.Decimal
		alo, rhi, sd      apd.Decimal
		state             apd.Decimal
		ratio, lrand      apd.Decimal
		whole             apd.Decimal
	)

	if _, err := fixedPoint.Quo(&quot, seed, decQ); err != nil {
		return Result{}, fmt.Errorf("failed to divide %d by Q: %w", id, err)
	}
	if _, err := fixedPoint.Quantize(&hi, &quot, 0); err != nil {
		return Result{}, fmt.Errorf("failed to truncate W_HI of %d: %w", id, err)
	}
	if _, err := fixedPoint.Mul(&qhi, decQ, &hi); err != nil {
		return Result{}, fmt.Errorf("failed to multiply W_HI of %d: %w", id, err)
	}
	if _, err := fixedPoint.Sub(&lo, seed, &qhi); err != nil {
		return Result{}, fmt.Errorf("failed to compute W_LO of %d: %w", id, err)
	}

	if _, err := fixedPoint.Mul(&alo, decA, &lo); err != nil {
		return Result{}, fmt.Errorf("failed to multiply W_LO of %d: %w", id, err)
	}
	if _, err := fixedPoint.Mul(&rhi, decR, &hi); err != nil {
		return Result{}, fmt.Errorf("failed to multiply W_HI of %d: %w", id, err)
	}
	if _, err := fixedPoint.Sub(&sd, &alo, &rhi); err != nil {
		return Result{}, fmt.Errorf("failed to compute SD of %d: %w", id, err)
	}

	res := Result{Identifier: id, Variant: Exact}

	state.Set(&sd)
	if sd.Sign() <= 0 {
		res.Wrapped = true
		if _, err := fixedPoint.Add(&state, &sd, decM); err != nil {
			return Result{}, fmt.Errorf("failed to wrap SD of %d: %w", id, err)
		}
	}

	if state.Cmp(decM) == 0 {
		return Result{}, fmt.Errorf("%w: %d", ErrDegenerateSeed, id)
	}

	if _, err := fixedPoint.Quo(&ratio, &state, decM); err != nil {
		return Result{}, fmt.Errorf("failed to divide SD of %d by M: %w", id, err)
	}
	if _, err := fixedPoint.Quantize(&lrand, &ratio, -Digits); err != nil {
		return Result{}, fmt.Errorf("failed to quantize L_RAND of %d: %w", id, err)
	}
	if _, err := fixedPoint.Mul(&whole, &lrand, decScale); err != nil {
		return Result{}, fmt.Errorf("failed to scale L_RAND of %d: %w", id, err)
	}

	w, err := whole.Int64()
	if err != nil {
		return Result{}, fmt.Errorf("failed to convert L_RAND of %d: %w", id, err)
	}
	s, err := state.Int64()
	if err != nil {
		return Result{}, fmt.Errorf("failed to convert SD of %d: %w", id, err)
	}

	res.Whole = w
	res.State = s

	if lrand.IsZero() {
		remediateZero(&res)
	}

	return res, nil
}
