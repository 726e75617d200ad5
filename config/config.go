package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	SourceReddit = "reddit"
	SourceFile   = "file"

	ClassifierHuggingFace = "huggingface"
	ClassifierVader       = "vader"
	ClassifierOpenAI      = "openai"
	ClassifierHugot       = "hugot"

	LabelRuleLegacy   = "legacy"
	LabelRuleMajority = "majority"
)

type Config struct {
	AppEnv   string
	LogLevel string

	Source      string
	FixturePath string

	RedditClientID          string
	RedditClientSecret      string
	RedditUserAgent         string
	RedditPostLimit         int
	RedditCommentLimit      int
	RedditRequestsPerMinute int
	RedditWindow            time.Duration

	Classifier     string
	HFAPIToken     string
	HFModelURL     string
	OpenAIAPIKey   string
	OpenAIModel    string
	HugotModelPath string
	HugotModelName string

	ChunkSize           int
	FetchConcurrency    int
	ClassifyConcurrency int
	LabelRule           string

	ValkeyAddress  string
	ValkeyPassword string
	ValkeyTLS      bool

	KafkaBroker       string
	KafkaVerdictTopic string

	HTTPTimeout time.Duration
}

// Load reads the process environment into a Config. Call LoadEnv first to pull
// in an env file.
func Load() (*Config, error) {
	cfg := &Config{
		AppEnv:   getString("APP_ENV", "dev"),
		LogLevel: getString("LOG_LEVEL", "info"),

		Source:      strings.ToLower(getString("SOURCE", SourceReddit)),
		FixturePath: os.Getenv("FIXTURE_PATH"),

		RedditClientID:     os.Getenv("REDDIT_CLIENT_ID"),
		RedditClientSecret: os.Getenv("REDDIT_CLIENT_SECRET"),
		RedditUserAgent:    getString("REDDIT_USER_AGENT", "subpulse-client/1.0 (+https://github.com/spacesedan/subpulse)"),

		Classifier:     strings.ToLower(getString("CLASSIFIER", ClassifierHuggingFace)),
		HFAPIToken:     os.Getenv("HF_API_TOKEN"),
		HFModelURL:     getString("HF_MODEL_URL", "https://api-inference.huggingface.co/models/distilbert-base-uncased-finetuned-sst-2-english"),
		OpenAIAPIKey:   os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:    getString("OPENAI_MODEL", "gpt-4o-mini"),
		HugotModelPath: getString("HUGOT_MODEL_PATH", "./models/distilbert-sst2"),
		HugotModelName: os.Getenv("HUGOT_MODEL_NAME"),

		LabelRule: strings.ToLower(getString("LABEL_RULE", LabelRuleLegacy)),

		ValkeyAddress:  os.Getenv("VALKEY_INIT_ADDRESS"),
		ValkeyPassword: os.Getenv("VALKEY_PASSWORD"),
		ValkeyTLS:      os.Getenv("VALKEY_TLS") == "true",

		KafkaBroker:       os.Getenv("KAFKA_BROKER"),
		KafkaVerdictTopic: getString("KAFKA_VERDICT_TOPIC", "subreddit-verdicts"),
	}

	var err error
	if cfg.RedditPostLimit, err = getInt("REDDIT_POST_LIMIT", 100); err != nil {
		return nil, err
	}
	if cfg.RedditCommentLimit, err = getInt("REDDIT_COMMENT_LIMIT", 100); err != nil {
		return nil, err
	}
	if cfg.RedditRequestsPerMinute, err = getInt("REDDIT_REQUESTS_PER_MINUTE", 60); err != nil {
		return nil, err
	}
	if cfg.ChunkSize, err = getInt("CHUNK_SIZE", 512); err != nil {
		return nil, err
	}
	if cfg.FetchConcurrency, err = getInt("FETCH_CONCURRENCY", 1); err != nil {
		return nil, err
	}
	if cfg.ClassifyConcurrency, err = getInt("CLASSIFY_CONCURRENCY", 1); err != nil {
		return nil, err
	}
	if cfg.HTTPTimeout, err = getDuration("HTTP_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.RedditWindow, err = getDuration("REDDIT_WINDOW", 0); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Source {
	case SourceReddit:
	case SourceFile:
		if c.FixturePath == "" {
			return errors.New("FIXTURE_PATH is required when SOURCE=file")
		}
	default:
		return fmt.Errorf("unknown SOURCE %q", c.Source)
	}

	switch c.Classifier {
	case ClassifierHuggingFace, ClassifierVader, ClassifierHugot:
	case ClassifierOpenAI:
		if c.OpenAIAPIKey == "" {
			return errors.New("OPENAI_API_KEY is required when CLASSIFIER=openai")
		}
	default:
		return fmt.Errorf("unknown CLASSIFIER %q", c.Classifier)
	}

	switch c.LabelRule {
	case LabelRuleLegacy, LabelRuleMajority:
	default:
		return fmt.Errorf("unknown LABEL_RULE %q", c.LabelRule)
	}

	if c.ChunkSize <= 0 {
		return fmt.Errorf("CHUNK_SIZE must be positive, got %d", c.ChunkSize)
	}
	if c.FetchConcurrency < 1 || c.ClassifyConcurrency < 1 {
		return errors.New("FETCH_CONCURRENCY and CLASSIFY_CONCURRENCY must be at least 1")
	}
	if c.RedditPostLimit < 1 || c.RedditPostLimit > 100 {
		return fmt.Errorf("REDDIT_POST_LIMIT must be between 1 and 100, got %d", c.RedditPostLimit)
	}
	if c.RedditCommentLimit < 1 || c.RedditCommentLimit > 100 {
		return fmt.Errorf("REDDIT_COMMENT_LIMIT must be between 1 and 100, got %d", c.RedditCommentLimit)
	}
	if c.RedditRequestsPerMinute < 1 {
		return fmt.Errorf("REDDIT_REQUESTS_PER_MINUTE must be at least 1, got %d", c.RedditRequestsPerMinute)
	}
	if c.RedditWindow < 0 {
		return fmt.Errorf("REDDIT_WINDOW must not be negative, got %s", c.RedditWindow)
	}
	return nil
}

func getString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", key, err)
	}
	return d, nil
}
