package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/spacesedan/subpulse/internal/document"
	"github.com/spacesedan/subpulse/internal/models"
	"github.com/spacesedan/subpulse/internal/sentiment"
)

// Publisher receives finished reports. Delivery failures are logged and do not
// fail the analysis.
type Publisher interface {
	Publish(ctx context.Context, report models.Report) error
}

type Service struct {
	builder        *document.Builder
	builderOpts    []document.Option
	aggregator     *sentiment.Aggregator
	classifier     sentiment.TextClassifier
	classifierName string
	publisher      Publisher
	now            func() time.Time
	newID          func() string
}

type Option func(*Service)

func WithBuilderOptions(opts ...document.Option) Option {
	return func(s *Service) { s.builderOpts = append(s.builderOpts, opts...) }
}

func WithAggregatorOptions(opts ...sentiment.Option) Option {
	return func(s *Service) { s.aggregator = sentiment.NewAggregator(opts...) }
}

func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

func WithClassifierName(name string) Option {
	return func(s *Service) { s.classifierName = name }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(source document.ForumSource, classifier sentiment.TextClassifier, opts ...Option) *Service {
	s := &Service{
		aggregator: sentiment.NewAggregator(),
		classifier: classifier,
		now:        time.Now,
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.builder = document.NewBuilder(source, s.builderOpts...)
	return s
}

// Document returns the sanitized corpus for subreddit without classifying it.
func (s *Service) Document(ctx context.Context, subreddit string) (string, error) {
	return s.builder.Build(ctx, subreddit)
}

// Analyze builds the corpus for subreddit and classifies it. An empty corpus is
// reported as models.ErrEmptyCorpus.
func (s *Service) Analyze(ctx context.Context, subreddit string) (models.Report, error) {
	requestID := s.newID()
	logger := slog.With(slog.String("request_id", requestID), slog.String("subreddit", subreddit))

	corpus, err := s.builder.Build(ctx, subreddit)
	if err != nil {
		return models.Report{}, fmt.Errorf("build document: %w", err)
	}

	verdict, err := s.aggregator.Analyze(ctx, corpus, s.classifier)
	if err != nil {
		if errors.Is(err, models.ErrEmptyCorpus) {
			logger.Warn("[AnalysisService] Nothing to analyze")
			return models.Report{}, err
		}
		return models.Report{}, fmt.Errorf("analyze sentiment: %w", err)
	}

	name, _ := document.NormalizeSubreddit(subreddit)
	report := models.Report{
		RequestID:    requestID,
		Subreddit:    name,
		Classifier:   s.classifierName,
		Verdict:      verdict,
		CorpusLength: utf8.RuneCountInString(corpus),
		AnalyzedAt:   s.now().UTC(),
	}

	logger.Info("[AnalysisService] Analysis complete",
		slog.String("label", string(verdict.Label)),
		slog.Float64("score", verdict.Score),
		slog.Int("chunks", verdict.Chunks))

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, report); err != nil {
			logger.Warn("[AnalysisService] Failed to publish report",
				slog.String("error", err.Error()))
		}
	}
	return report, nil
}
