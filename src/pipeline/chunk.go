package pipeline

import (
	"errors"
	"fmt"
)

const DefaultChunkLength int64 = 100_000

var (
	ErrEmptyDomain        = errors.New("domain is empty")
	ErrInvalidChunkLength = errors.New("chunk length must be positive")
)

// Chunk is the half-open range [Start, End).
type Chunk struct {
	Start int64
	End   int64
}

func (c Chunk) Len() int64 {
	return c.End - c.Start
}

// Partition splits [low, high) into ceil((high-low)/length) contiguous chunks; only
// the last one may be shorter than length.
func Partition(low, high, length int64) ([]Chunk, error) {
	if high <= low {
		return nil, fmt.Errorf("%w: [%d, %d)", ErrEmptyDomain, low, high)
	}
	if length <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidChunkLength, length)
	}

	size := high - low
	n := size / length
	if size%length != 0 {
		n++
	}

	chunks := make([]Chunk, 0, n)
	for start := low; start < high; {
		end := high
		if high-start > length {
			end = start + length
		}
		chunks = append(chunks, Chunk{Start: start, End: end})
		start = end
	}

	return chunks, nil
}
