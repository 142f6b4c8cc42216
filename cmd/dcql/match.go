package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kokukuma/dcql-wallet/dcql"
)

func newMatchCommand(root *rootOptions) *cobra.Command {
	var (
		queryPath       string
		credentialsPath string
		jsonOutput      bool
	)
	cmd := &cobra.Command{
		Use:   "match",
		Short: "Select the credentials satisfying a DCQL query",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := root.logger()
			if err != nil {
				return err
			}
			defer logger.Sync()

			query, err := readQuery(queryPath)
			if err != nil {
				return err
			}
			credentials, err := loadCredentials(credentialsPath)
			if err != nil {
				return err
			}

			responses, err := query.Execute(credentials, dcql.WithLogger(logger))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				fmt.Fprintln(out, string(dcql.MarshalResponses(responses)))
				return nil
			}
			printHeader(out, "%d credentials, %d responses", len(credentials), len(responses))
			fmt.Fprint(out, dcql.PrettyPrint(responses))
			return nil
		},
	}
	cmd.Flags().StringVarP(&queryPath, "query", "q", "", "Path to the DCQL query JSON")
	cmd.Flags().StringVarP(&credentialsPath, "credentials", "c", "", "Path to the credentials JSON")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	_ = cmd.MarkFlagRequired("query")
	_ = cmd.MarkFlagRequired("credentials")
	return cmd
}
