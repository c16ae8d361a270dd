package kernel

import (
	"fmt"
	"math"
)

// EvaluateApproximate runs the same recurrence in binary floating point. Its
// L_RAND_WHOLE may differ from the exact variant by one unit.
func EvaluateApproximate(id int64) (Result, error) {
	if err := checkDomain(id); err != nil {
		return Result{}, err
	}

	hi := id / Q
	lo := id % Q
	state := A*lo - R*hi

	res := Result{Identifier: id, Variant: Approximate}
	if state <= 0 {
		res.Wrapped = true
		state += M
	}

	if state == M {
		return Result{}, fmt.Errorf("%w: %d", ErrDegenerateSeed, id)
	}

	res.State = state
	res.Whole = int64(math.Floor(float64(state) / float64(M) * Scale))

	return res, nil
}
