package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kokukuma/dcql-wallet/dcql"
)

func newQueryCommand() *cobra.Command {
	var queryPath string
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Parse a DCQL query and print it",
		RunE: func(cmd *cobra.Command, args []string) error {
			query, err := readQuery(queryPath)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			printHeader(out, "DCQL query %s", queryPath)
			fmt.Fprint(out, query.String())
			return nil
		},
	}
	cmd.Flags().StringVarP(&queryPath, "query", "q", "", "Path to the DCQL query JSON")
	_ = cmd.MarkFlagRequired("query")
	return cmd
}

func readQuery(path string) (*dcql.Query, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read query: %w", err)
	}
	return dcql.ParseQuery(data)
}
