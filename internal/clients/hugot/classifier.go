// Package hugot runs text-classification ONNX models in process. Importing it
// links the ONNX runtime and tokenizers native libraries.
package hugot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"
	"github.com/spacesedan/subpulse/internal/models"
)

var ErrNoLabels = errors.New("pipeline returned no labels")

const HUGOT_DEFAULT_MODEL = "KnightsAnalytics/distilbert-base-uncased-finetuned-sst-2-english"

// Classifier is a TextClassifier backed by a local ONNX model.
type Classifier struct {
	session  *hugot.Session
	pipeline *pipelines.TextClassificationPipeline
	mu       sync.Mutex
}

// EnsureModel downloads modelName into modelDir unless modelPath already exists
// and returns the path to load.
func EnsureModel(modelPath, modelName, modelDir string) (string, error) {
	if _, err := os.Stat(modelPath); err == nil {
		slog.Info("[HugotClassifier] Using existing model", slog.String("path", modelPath))
		return modelPath, nil
	}

	if modelName == "" {
		modelName = HUGOT_DEFAULT_MODEL
	}
	if modelDir == "" {
		modelDir = filepath.Dir(modelPath)
	}
	if err := os.MkdirAll(modelDir, os.ModePerm); err != nil {
		return "", fmt.Errorf("create model directory: %w", err)
	}

	slog.Info("[HugotClassifier] Model not found, downloading...", slog.String("model", modelName))
	path, err := hugot.DownloadModel(modelName, modelDir, hugot.NewDownloadOptions())
	if err != nil {
		return "", fmt.Errorf("download model %s: %w", modelName, err)
	}
	slog.Info("[HugotClassifier] Model downloaded successfully", slog.String("path", path))
	return path, nil
}

func NewClassifier(modelPath string) (*Classifier, error) {
	session, err := hugot.NewORTSession()
	if err != nil {
		return nil, fmt.Errorf("initialize hugot session: %w", err)
	}

	config := hugot.TextClassificationConfig{
		ModelPath: modelPath,
		Name:      "subpulseSentimentPipeline",
	}
	pipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		session.Destroy()
		return nil, fmt.Errorf("initialize text classification pipeline: %w", err)
	}

	return &Classifier{session: session, pipeline: pipeline}, nil
}

func (h *Classifier) Classify(ctx context.Context, text string) (models.ClassificationResult, error) {
	if err := ctx.Err(); err != nil {
		return models.ClassificationResult{}, err
	}

	h.mu.Lock()
	output, err := h.pipeline.RunPipeline([]string{text})
	h.mu.Unlock()
	if err != nil {
		return models.ClassificationResult{}, fmt.Errorf("run pipeline: %w", err)
	}
	if len(output.ClassificationOutputs) == 0 {
		return models.ClassificationResult{}, ErrNoLabels
	}

	candidates := output.ClassificationOutputs[0]
	if len(candidates) == 0 {
		return models.ClassificationResult{}, ErrNoLabels
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.Score > best.Score {
			best = c
		}
	}
	return models.ClassificationResult{
		Label: models.NormalizeLabel(best.Label),
		Score: float64(best.Score),
	}, nil
}

func (h *Classifier) Close() error {
	return h.session.Destroy()
}
