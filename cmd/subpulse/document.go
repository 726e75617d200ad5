package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDocumentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "document <subreddit>",
		Short: "Print the sanitized corpus built for a subreddit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			corpus, err := a.Service.Document(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), corpus)
			return nil
		},
	}
}
