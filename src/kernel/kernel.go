// Package kernel computes L_RAND, the legacy minimal-standard (Park-Miller) hash of a
// numeric identifier, in two variants: an exact fixed-point decimal rendition of the
// mainframe routine and an approximate float64 one.
package kernel

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cockroachdb/apd/v3"
)

const (
	Q int64 = 127773
	A int64 = 16807
	R int64 = 2836
	M int64 = 2147483647

	// Digits is the number of fractional digits kept in L_RAND.
	Digits = 10
	// Scale converts L_RAND into L_RAND_WHOLE.
	Scale = 1e10

	// MinIdentifier and MaxIdentifier bound the supported domain. Inside it only the
	// multiples of M listed in DegenerateIdentifiers fail, with ErrDegenerateSeed.
	MinIdentifier int64 = 0
	// MaxIdentifier is the largest identifier that fits the 10-digit decimal context.
	MaxIdentifier int64 = 9_999_999_999
)

// DegenerateIdentifiers are the identifiers of the supported domain whose generator
// state is zero.
var DegenerateIdentifiers = [...]int64{0, M, 2 * M, 3 * M, 4 * M}

var (
	ErrIdentifierOutOfRange = errors.New("identifier is outside of the supported domain")
	ErrDegenerateSeed       = errors.New("identifier maps to a zero generator state")
	ErrUnsupportedVariant   = errors.New("unsupported kernel variant")
)

type Variant uint8

const (
	Exact Variant = iota
	Approximate
)

func (v Variant) String() string {
	switch v {
	case Exact:
		return "exact"
	case Approximate:
		return "approximate"
	default:
		return fmt.Sprintf("Variant(%d)", uint8(v))
	}
}

func ParseVariant(s string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "exact":
		return Exact, nil
	case "approximate":
		return Approximate, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedVariant, s)
	}
}

// Result is the outcome of hashing a single identifier.
type Result struct {
	Identifier int64
	// Whole is L_RAND_WHOLE, i.e. L_RAND scaled by 1e10.
	Whole int64
	// State is SD' after the wraparound correction.
	State   int64
	Variant Variant

	Wrapped       bool
	ZeroQuantized bool
}

func (r Result) LRand() float64 {
	return float64(r.Whole) / Scale
}

func (r Result) Decimal() *apd.Decimal {
	return apd.New(r.Whole, -Digits)
}

// String renders L_RAND with exactly Digits fractional digits.
func (r Result) String() string {
	return r.Decimal().Text('f')
}

func Evaluate(id int64, v Variant) (Result, error) {
	switch v {
	case Exact:
		return EvaluateExact(id)
	case Approximate:
		return EvaluateApproximate(id)
	default:
		return Result{}, fmt.Errorf("%w: %s", ErrUnsupportedVariant, v)
	}
}

func checkDomain(id int64) error {
	if id < MinIdentifier || id > MaxIdentifier {
		return fmt.Errorf("%w: %d not in [%d, %d]", ErrIdentifierOutOfRange, id, MinIdentifier, MaxIdentifier)
	}

	return nil
}

// remediateZero mirrors the legacy routine: the state is pushed by M once more but
// the already truncated zero is what gets returned.
func remediateZero(r *Result) {
	r.ZeroQuantized = true
	r.State += M
}
