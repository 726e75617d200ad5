package sentiment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/spacesedan/subpulse/internal/models"
	"golang.org/x/sync/errgroup"
)

var ErrInvalidScore = errors.New("classifier score outside [0,1]")

// TextClassifier labels a single piece of text.
type TextClassifier interface {
	Classify(ctx context.Context, text string) (models.ClassificationResult, error)
}

type Aggregator struct {
	maxLength   int
	concurrency int
	rule        LabelRule
}

type Option func(*Aggregator)

func WithMaxLength(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.maxLength = n
		}
	}
}

// WithConcurrency classifies up to n chunks at once.
func WithConcurrency(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.concurrency = n
		}
	}
}

func WithLabelRule(rule LabelRule) Option {
	return func(a *Aggregator) {
		if rule != nil {
			a.rule = rule
		}
	}
}

func NewAggregator(opts ...Option) *Aggregator {
	a := &Aggregator{
		maxLength:   DefaultMaxLength,
		concurrency: 1,
		rule:        LegacyThreshold,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze chunks corpus, classifies each chunk and aggregates the results with
// the legacy label rule, one chunk at a time.
func Analyze(ctx context.Context, corpus string, classifier TextClassifier, maxLength int) (models.Verdict, error) {
	return NewAggregator(WithMaxLength(maxLength)).Analyze(ctx, corpus, classifier)
}

func (a *Aggregator) Analyze(ctx context.Context, corpus string, classifier TextClassifier) (models.Verdict, error) {
	chunks := Chunk(corpus, a.maxLength)
	if len(chunks) == 0 {
		return models.Verdict{}, models.ErrEmptyCorpus
	}

	start := time.Now()
	results, err := a.classifyAll(ctx, chunks, classifier)
	if err != nil {
		return models.Verdict{}, err
	}

	verdict, err := Aggregate(results, a.rule)
	if err != nil {
		return models.Verdict{}, err
	}

	slog.Info("[SentimentAggregator] Corpus classified",
		slog.Int("chunks", verdict.Chunks),
		slog.String("label", string(verdict.Label)),
		slog.Float64("score", verdict.Score),
		slog.Duration("elapsed", time.Since(start)))
	return verdict, nil
}

// classifyAll returns results indexed by chunk position.
func (a *Aggregator) classifyAll(ctx context.Context, chunks []string, classifier TextClassifier) ([]models.ClassificationResult, error) {
	results := make([]models.ClassificationResult, len(chunks))

	if a.concurrency <= 1 {
		for i, chunk := range chunks {
			res, err := classifyChunk(ctx, classifier, i, chunk)
			if err != nil {
				return nil, err
			}
			results[i] = res
		}
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)
	for i, chunk := range chunks {
		g.Go(func() error {
			res, err := classifyChunk(gctx, classifier, i, chunk)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func classifyChunk(ctx context.Context, classifier TextClassifier, i int, chunk string) (models.ClassificationResult, error) {
	if err := ctx.Err(); err != nil {
		return models.ClassificationResult{}, err
	}
	res, err := classifier.Classify(ctx, chunk)
	if err != nil {
		return models.ClassificationResult{}, fmt.Errorf("classify chunk %d: %w", i, err)
	}
	if math.IsNaN(res.Score) || res.Score < 0 || res.Score > 1 {
		return models.ClassificationResult{}, fmt.Errorf("classify chunk %d: %w: %v", i, ErrInvalidScore, res.Score)
	}
	res.Label = models.NormalizeLabel(string(res.Label))
	return res, nil
}

// Aggregate sums the per-chunk scores, averages them over the chunk count and
// applies rule to the per-label sums. Labels other than POSITIVE and NEGATIVE
// only contribute to the average.
func Aggregate(results []models.ClassificationResult, rule LabelRule) (models.Verdict, error) {
	if len(results) == 0 {
		return models.Verdict{}, models.ErrEmptyCorpus
	}
	if rule == nil {
		rule = LegacyThreshold
	}

	var totalScore, totalPositive, totalNegative float64
	for _, r := range results {
		totalScore += r.Score
		switch r.Label {
		case models.LabelPositive:
			totalPositive += r.Score
		case models.LabelNegative:
			totalNegative += r.Score
		}
	}

	return models.Verdict{
		Label:  rule(totalPositive, totalNegative),
		Score:  totalScore / float64(len(results)),
		Chunks: len(results),
	}, nil
}
