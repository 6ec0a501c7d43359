package main

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

func newFetchCmd(opts *options) *cobra.Command {
	var indent bool

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch all feeds once and print the JSON response",
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := newFeedHandler(opts.cfg)
			if err != nil {
				return err
			}

			res, err := h.Build(cmd.Context())
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			if indent {
				enc.SetIndent("", "  ")
			}
			return enc.Encode(res)
		},
	}

	cmd.Flags().BoolVar(&indent, "indent", false, "pretty-print the JSON output")
	return cmd
}
