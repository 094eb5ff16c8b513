package cli

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type BuildInfo struct {
	Version   string
	Commit    string
	BuildTime string
}

func Execute(ctx context.Context, info BuildInfo) error {
	rootCmd := newRootCommand()
	rootCmd.AddCommand(
		newExtractCommand(ctx),
		newVersionCommand(info),
	)

	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tdlineage",
		Short: "Teradata SQL lineage extractor",
		Long: `tdlineage analyzes Teradata-dialect SQL text and produces a structured
lineage report: base tables read, columns referenced per table, constant-value
filters, CTE names, temp tables, write targets, created objects, invoked
functions and procedures, and a pseudocode rendering of every SELECT's
JOIN/WHERE/HAVING predicates.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

func newVersionCommand(info BuildInfo) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("tdlineage %s\n", info.Version)
			fmt.Printf("  commit:     %s\n", info.Commit)
			fmt.Printf("  built:      %s\n", info.BuildTime)
		},
	}
}

// newLogger returns a logrus.Logger for run-level diagnostic lines: text
// output to stderr, level gated by --verbose. The Report itself is never
// logged — only run-level counts.
func newLogger(verbose bool) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})

	if verbose {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.WarnLevel)
	}

	return log
}
