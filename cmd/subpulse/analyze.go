package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newAnalyzeCmd(f *flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <subreddit>",
		Short: "Classify the recent content of a subreddit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			report, err := a.Service.Analyze(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if f.asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}

			fmt.Fprintf(out, "r/%s: %s (score %.4f over %d chunks)\n",
				report.Subreddit, report.Verdict.Label, report.Verdict.Score, report.Verdict.Chunks)
			return nil
		},
	}

	cmd.Flags().IntVar(&f.chunkSize, "chunk-size", 512, "characters per classifier call")
	cmd.Flags().StringVar(&f.classifier, "classifier", "", "huggingface, vader, openai or hugot (overrides CLASSIFIER)")
	cmd.Flags().BoolVar(&f.asJSON, "json", false, "print the full report as JSON")
	cmd.Flags().BoolVar(&f.publish, "publish", true, "publish the report to Kafka when KAFKA_BROKER is set")
	return cmd
}
