// Package fallback tries an ordered list of redundant endpoints and keeps
// the first one that yields data. Candidates are distinct endpoints, so a
// rejected candidate is never retried.
package fallback

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrEmpty marks a candidate that answered successfully with nothing.
var ErrEmpty = errors.New("candidate returned no items")

// ErrNoCandidates is returned when the candidate list is empty.
var ErrNoCandidates = errors.New("no candidates configured")

// Attempt records one rejected candidate.
type Attempt struct {
	Candidate string
	Err       error
}

// ExhaustedError is returned when every candidate was rejected.
type ExhaustedError struct {
	Attempts []Attempt
}

func (e *ExhaustedError) Error() string {
	tried := make([]string, len(e.Attempts))
	for i, a := range e.Attempts {
		tried[i] = a.Candidate
	}
	return fmt.Sprintf("all %d candidates failed (tried %s): last error: %v",
		len(e.Attempts), strings.Join(tried, ", "), e.Last())
}

// Last is the failure reported by the final candidate.
func (e *ExhaustedError) Last() error {
	if len(e.Attempts) == 0 {
		return ErrNoCandidates
	}
	return e.Attempts[len(e.Attempts)-1].Err
}

func (e *ExhaustedError) Unwrap() error { return e.Last() }

// Result is the accepted candidate and its items.
type Result[T any] struct {
	Candidate string
	Items     []T
	Rejected  []Attempt
}

// TryInOrder calls attempt for each candidate in order and returns the
// first non-empty, error-free result. onReject, if non-nil, observes every
// rejected candidate.
func TryInOrder[T any](
	ctx context.Context,
	candidates []string,
	attempt func(ctx context.Context, candidate string) ([]T, error),
	onReject func(candidate string, err error),
) (Result[T], error) {
	if len(candidates) == 0 {
		return Result[T]{}, &ExhaustedError{}
	}

	var rejected []Attempt
	for _, candidate := range candidates {
		if err := ctx.Err(); err != nil {
			rejected = append(rejected, Attempt{Candidate: candidate, Err: err})
			return Result[T]{Rejected: rejected}, &ExhaustedError{Attempts: rejected}
		}

		items, err := attempt(ctx, candidate)
		if err == nil && len(items) == 0 {
			err = ErrEmpty
		}
		if err != nil {
			rejected = append(rejected, Attempt{Candidate: candidate, Err: err})
			if onReject != nil {
				onReject(candidate, err)
			}
			continue
		}

		return Result[T]{Candidate: candidate, Items: items, Rejected: rejected}, nil
	}

	return Result[T]{Rejected: rejected}, &ExhaustedError{Attempts: rejected}
}
