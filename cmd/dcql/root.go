package main

import (
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	headerColor = color.New(color.FgCyan, color.Bold)
	errorColor  = color.New(color.FgRed)
)

type rootOptions struct {
	noColor bool
	verbose bool
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "dcql",
		Short: "Match DCQL queries against local credentials",
		Long:  "dcql evaluates Digital Credentials Query Language queries (OpenID4VP) against mdoc and SD-JWT VC credentials read from a file.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.noColor {
				color.NoColor = true
			}
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "Disable colored output")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log matching decisions to stderr")

	cmd.AddCommand(newMatchCommand(opts))
	cmd.AddCommand(newQueryCommand())
	return cmd
}

func (o *rootOptions) logger() (*zap.Logger, error) {
	if !o.verbose {
		return zap.NewNop(), nil
	}
	return zap.NewDevelopment()
}

func printHeader(w io.Writer, format string, args ...interface{}) {
	headerColor.Fprintf(w, format+"\n", args...)
}

func printError(w io.Writer, err error) {
	errorColor.Fprintf(w, "error: %v\n", err)
}
