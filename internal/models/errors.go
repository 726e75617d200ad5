package models

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyCorpus is returned when there is nothing to classify.
	ErrEmptyCorpus = errors.New("empty corpus: no content to analyze")

	// ErrMissingField marks a forum record without the expected text field.
	ErrMissingField = errors.New("missing field")

	ErrInvalidSubreddit = errors.New("invalid subreddit")
)

// FetchError reports a transport failure or non-success response from a forum
// source.
type FetchError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	switch {
	case e.Err != nil && e.StatusCode != 0:
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.StatusCode, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("%s: status %d", e.Op, e.StatusCode)
	}
}

func (e *FetchError) Unwrap() error { return e.Err }
