//go:build hugot

package app

import (
	"log/slog"

	"github.com/spacesedan/subpulse/config"
	"github.com/spacesedan/subpulse/internal/clients/hugot"
	"github.com/spacesedan/subpulse/internal/sentiment"
)

func newHugotClassifier(cfg *config.Config) (sentiment.TextClassifier, func(), error) {
	path, err := hugot.EnsureModel(cfg.HugotModelPath, cfg.HugotModelName, "")
	if err != nil {
		return nil, nil, err
	}
	hc, err := hugot.NewClassifier(path)
	if err != nil {
		return nil, nil, err
	}
	closer := func() {
		if err := hc.Close(); err != nil {
			slog.Warn("[App] Failed to close hugot session", slog.String("error", err.Error()))
		}
	}
	return hc, closer, nil
}
