package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spacesedan/subpulse/config"
	"github.com/spacesedan/subpulse/internal/app"
	"github.com/spacesedan/subpulse/internal/logging"
	"github.com/spf13/cobra"
)

type contextKey string

const appKey contextKey = "app"

// flags holds command-line overrides applied on top of the environment.
type flags struct {
	chunkSize  int
	classifier string
	source     string
	fixture    string
	asJSON     bool
	publish    bool
}

func newRootCmd() *cobra.Command {
	f := &flags{}

	root := &cobra.Command{
		Use:           "subpulse",
		Short:         "Subreddit sentiment pulse",
		Long:          `subpulse reads recent posts and comments from a subreddit and reports its overall sentiment.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "help" {
				return nil
			}

			env := os.Getenv("APP_ENV")
			if env == "" {
				env = "dev"
			}
			config.LoadEnv(env)

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if err := f.apply(cmd, cfg); err != nil {
				return err
			}
			logging.InitLogger(cfg.LogLevel)

			a, err := app.New(cfg)
			if err != nil {
				return fmt.Errorf("failed to initialize app: %w", err)
			}
			cmd.SetContext(context.WithValue(cmd.Context(), appKey, a))
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&f.source, "source", "", "content source: reddit or file (overrides SOURCE)")
	pf.StringVar(&f.fixture, "fixture", "", "fixture JSON file, implies --source=file")

	root.AddCommand(newAnalyzeCmd(f), newDocumentCmd(), newDoctorCmd())
	return root
}

// apply copies explicitly set flags into cfg and re-validates it.
func (f *flags) apply(cmd *cobra.Command, cfg *config.Config) error {
	changed := cmd.Flags().Changed

	if changed("source") {
		cfg.Source = strings.ToLower(f.source)
	}
	if changed("fixture") {
		cfg.FixturePath = f.fixture
		if !changed("source") {
			cfg.Source = config.SourceFile
		}
	}
	if changed("chunk-size") {
		cfg.ChunkSize = f.chunkSize
	}
	if changed("classifier") {
		cfg.Classifier = strings.ToLower(f.classifier)
	}
	if changed("publish") && !f.publish {
		cfg.KafkaBroker = ""
	}
	return cfg.Validate()
}

func appFromContext(ctx context.Context) (*app.App, error) {
	a, ok := ctx.Value(appKey).(*app.App)
	if !ok || a == nil {
		return nil, fmt.Errorf("application instance not found in context")
	}
	return a, nil
}
