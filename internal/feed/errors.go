package feed

import (
	"errors"
	"fmt"
)

// Feed failure kinds. A *FeedError matches its kind with errors.Is.
var (
	ErrFeedUnreachable = errors.New("feed unreachable")
	ErrFeedParse       = errors.New("feed parse error")
	ErrFeedEmpty       = errors.New("feed has no usable entries")
)

// FeedError is a classified failure of one feed endpoint.
type FeedError struct {
	Kind       error
	URL        string
	StatusCode int
	Cause      error
}

func (e *FeedError) Error() string {
	switch {
	case e.StatusCode > 0:
		return fmt.Sprintf("%v: HTTP %d for %s", e.Kind, e.StatusCode, e.URL)
	case e.Cause != nil:
		return fmt.Sprintf("%v: %v for %s", e.Kind, e.Cause, e.URL)
	default:
		return fmt.Sprintf("%v for %s", e.Kind, e.URL)
	}
}

func (e *FeedError) Is(target error) bool { return target == e.Kind }

func (e *FeedError) Unwrap() error { return e.Cause }

func unreachable(url string, cause error) *FeedError {
	return &FeedError{Kind: ErrFeedUnreachable, URL: url, Cause: cause}
}

func badStatus(url string, status int) *FeedError {
	return &FeedError{Kind: ErrFeedUnreachable, URL: url, StatusCode: status}
}

func parseFailure(url string, cause error) *FeedError {
	return &FeedError{Kind: ErrFeedParse, URL: url, Cause: cause}
}

func empty(url string) *FeedError {
	return &FeedError{Kind: ErrFeedEmpty, URL: url}
}
