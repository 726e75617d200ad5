package app

import (
	"context"
	"fmt"
	"time"

	"github.com/spacesedan/subpulse/config"
	"github.com/spacesedan/subpulse/internal/analysis"
	"github.com/spacesedan/subpulse/internal/clients"
	"github.com/spacesedan/subpulse/internal/document"
	"github.com/spacesedan/subpulse/internal/monitoring"
	"github.com/spacesedan/subpulse/internal/sentiment"
	"golang.org/x/time/rate"
)

// App owns every collaborator built from a Config.
type App struct {
	Config     *config.Config
	Service    *analysis.Service
	Source     document.ForumSource
	Classifier sentiment.TextClassifier

	closers []func()
}

func New(cfg *config.Config) (*App, error) {
	a := &App{Config: cfg}

	source, err := a.newSource()
	if err != nil {
		a.Close()
		return nil, err
	}

	classifier, err := a.newClassifier()
	if err != nil {
		a.Close()
		return nil, err
	}

	opts := []analysis.Option{
		analysis.WithClassifierName(cfg.Classifier),
		analysis.WithBuilderOptions(document.WithConcurrency(cfg.FetchConcurrency)),
		analysis.WithAggregatorOptions(
			sentiment.WithMaxLength(cfg.ChunkSize),
			sentiment.WithConcurrency(cfg.ClassifyConcurrency),
			sentiment.WithLabelRule(sentiment.RuleByName(cfg.LabelRule)),
		),
	}

	if cfg.KafkaBroker != "" {
		publisher, err := clients.NewKafkaPublisher(cfg.KafkaBroker, cfg.KafkaVerdictTopic)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, publisher.Close)
		opts = append(opts, analysis.WithPublisher(publisher))
	}

	a.Source, a.Classifier = source, classifier
	a.Service = analysis.NewService(source, classifier, opts...)
	return a, nil
}

// HealthChecks probes the configured source with subreddit and the classifier
// with a short sample.
func (a *App) HealthChecks(subreddit string) []monitoring.Check {
	return []monitoring.Check{
		{
			Name: "source:" + a.Config.Source,
			Probe: func(ctx context.Context) error {
				_, err := a.Source.ListRecentPosts(ctx, subreddit)
				return err
			},
		},
		{
			Name: "classifier:" + a.Config.Classifier,
			Probe: func(ctx context.Context) error {
				_, err := a.Classifier.Classify(ctx, "subpulse health check")
				return err
			},
		},
	}
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func (a *App) newSource() (document.ForumSource, error) {
	cfg := a.Config
	if cfg.Source == config.SourceFile {
		return clients.NewFileSource(cfg.FixturePath)
	}

	limiter, err := a.newLimiter()
	if err != nil {
		return nil, err
	}

	opts := []clients.RedditOption{
		clients.WithRedditUserAgent(cfg.RedditUserAgent),
		clients.WithRedditLimits(cfg.RedditPostLimit, cfg.RedditCommentLimit),
		clients.WithRedditLimiter(limiter),
	}
	if cfg.RedditWindow > 0 {
		opts = append(opts, clients.WithTimeWindow(time.Now().Add(-cfg.RedditWindow), time.Time{}))
	}
	return clients.NewRedditClient(cfg.RedditClientID, cfg.RedditClientSecret, cfg.HTTPTimeout, opts...), nil
}

func (a *App) newLimiter() (clients.Limiter, error) {
	cfg := a.Config
	if cfg.ValkeyAddress == "" {
		return rate.NewLimiter(rate.Every(time.Minute/time.Duration(max(cfg.RedditRequestsPerMinute, 1))), 1), nil
	}

	vc, err := clients.NewValkeyClient(cfg.ValkeyAddress, cfg.ValkeyPassword, cfg.ValkeyTLS)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, vc.Close)
	return clients.NewValkeyRateLimiter(vc, clients.VALKEY_REDDIT_RATE_KEY, cfg.RedditRequestsPerMinute, time.Minute), nil
}

func (a *App) newClassifier() (sentiment.TextClassifier, error) {
	cfg := a.Config
	switch cfg.Classifier {
	case config.ClassifierVader:
		return sentiment.NewVaderClassifier(), nil
	case config.ClassifierOpenAI:
		return clients.NewOpenAIClassifier(clients.NewOpenAIClient(cfg.OpenAIAPIKey, ""), cfg.OpenAIModel), nil
	case config.ClassifierHugot:
		clf, closer, err := newHugotClassifier(cfg)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, closer)
		return clf, nil
	case config.ClassifierHuggingFace:
		return clients.NewHuggingFaceClient(cfg.HFModelURL, cfg.HFAPIToken, cfg.HTTPTimeout), nil
	default:
		return nil, fmt.Errorf("unknown classifier %q", cfg.Classifier)
	}
}
