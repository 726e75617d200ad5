//go:build !hugot

package app

import (
	"errors"

	"github.com/spacesedan/subpulse/config"
	"github.com/spacesedan/subpulse/internal/sentiment"
)

// ErrHugotUnavailable is returned for CLASSIFIER=hugot in binaries built
// without the hugot tag.
var ErrHugotUnavailable = errors.New("hugot classifier not compiled in: rebuild with -tags hugot")

func newHugotClassifier(*config.Config) (sentiment.TextClassifier, func(), error) {
	return nil, nil, ErrHugotUnavailable
}
