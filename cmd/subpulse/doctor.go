package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spacesedan/subpulse/internal/monitoring"
	"github.com/spf13/cobra"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor [subreddit]",
		Short: "Check that the configured source and classifier respond",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			subreddit := "all"
			if len(args) == 1 {
				subreddit = args[0]
			}

			results := monitoring.Run(cmd.Context(), a.HealthChecks(subreddit), a.Config.HTTPTimeout)
			out := cmd.OutOrStdout()
			for _, r := range results {
				status := "ok"
				if !r.Healthy {
					status = "FAIL: " + r.Err.Error()
				}
				fmt.Fprintf(out, "%-24s %-8s %s\n", r.Name, r.Elapsed.Round(time.Millisecond), status)
			}

			if !monitoring.Healthy(results) {
				return errors.New("one or more checks failed")
			}
			return nil
		},
	}
}
