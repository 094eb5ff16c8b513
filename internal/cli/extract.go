package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/accented-ai/tdlineage/internal/config"
	"github.com/accented-ai/tdlineage/internal/lineage"
	"github.com/accented-ai/tdlineage/internal/sqlparse"
	"github.com/accented-ai/tdlineage/internal/util"
)

type extractConfig struct {
	file    string
	soft    bool
	dialect string
	verbose bool
	output  string
}

// envelope is the soft-mode error shape: with --soft, a parse or runtime
// failure prints this envelope in place of a lineage report and the process
// exits 0. Failing to read the input or write the output still fails.
type envelope struct {
	Error string `json:"error"`
	Type  string `json:"type"` // "parse" | "runtime"
}

func newExtractCommand(ctx context.Context) *cobra.Command {
	cfg := &extractConfig{}

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract a lineage report from Teradata SQL text",
		Long: `Parses one or more semicolon-separated Teradata SQL statements and prints
the aggregated lineage report as JSON: tables, columns, constant-value
filters, CTEs, temp tables, write targets, created objects, invoked
functions/procedures, and pseudocode JOIN/WHERE/HAVING renderings.`,
		Example: `  # Read from a file
  tdlineage extract --file query.sql

  # Read from stdin
  cat query.sql | tdlineage extract

  # Report parse/runtime errors in the JSON body instead of failing
  tdlineage extract --file query.sql --soft`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(ctx, cmd, cfg)
		},
	}

	cmd.Flags().StringVarP(&cfg.file, "file", "f", "",
		"path to a SQL file (defaults to stdin when omitted)")
	cmd.Flags().BoolVar(&cfg.soft, "soft", false,
		"report parse/runtime failures as a JSON envelope with exit code 0 instead of failing")
	cmd.Flags().StringVar(&cfg.dialect, "dialect", "",
		"SQL dialect tag recorded in _meta.dialect (default \"teradata\")")
	cmd.Flags().BoolVarP(&cfg.verbose, "verbose", "v", false,
		"log statement/warning counts to stderr")
	cmd.Flags().StringVarP(&cfg.output, "output", "o", "-",
		"output file path (use '-' for stdout)")

	return cmd
}

func runExtract(_ context.Context, cmd *cobra.Command, cfg *extractConfig) error {
	v := config.Load()
	_ = v.BindPFlag("soft", cmd.Flags().Lookup("soft"))
	_ = v.BindPFlag("verbose", cmd.Flags().Lookup("verbose"))

	settings := config.Resolve(v)
	if cfg.dialect != "" {
		settings.Dialect = cfg.dialect
	}

	log := newLogger(settings.Verbose)

	sql, err := readInput(cfg.file)
	if err != nil {
		return util.WrapError("read input", err)
	}

	report, envErr := extractReport(sql, settings.Dialect, log)
	if envErr != nil {
		if !settings.Soft {
			return envErr.err
		}

		return writeJSON(cfg.output, envErr.env)
	}

	log.Debugf("extracted %d statement(s), %d warning(s)", report.Meta.Statements, len(report.Warnings))

	return writeJSON(cfg.output, report)
}

// envelopeError pairs the strict-mode error (returned to cobra, which
// prints it and exits non-zero) with the soft-mode JSON envelope, so a
// single failure carries both representations.
type envelopeError struct {
	env envelope
	err error
}

// extractReport runs the parse + lineage pipeline, classifying any failure
// into the "parse" | "runtime" taxonomy.
func extractReport(sql, dialect string, log *logrus.Logger) (*lineage.Report, *envelopeError) {
	parser := sqlparse.New(sqlparse.WithDialect(dialect))

	result := parser.Parse(sql)
	if result.HasErrors() {
		first := result.Errors[0]

		return nil, &envelopeError{
			env: envelope{Error: first.Error(), Type: "parse"},
			err: fmt.Errorf("parse SQL: %w", first),
		}
	}

	log.Debugf("parsed %d statement(s)", len(result.Trees))

	report, err := lineage.Extract(result.Trees, dialect)
	if err != nil {
		return nil, &envelopeError{
			env: envelope{Error: err.Error(), Type: "runtime"},
			err: fmt.Errorf("extract lineage: %w", err),
		}
	}

	return report, nil
}

func readInput(path string) (string, error) {
	if path == "" {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", err
		}

		return string(b), nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	return string(b), nil
}

func writeJSON(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return util.WrapError("marshal JSON", err)
	}

	b = append(b, '\n')

	if path == "" || path == "-" {
		_, err := os.Stdout.Write(b)
		return util.WrapError("write stdout", err)
	}

	return util.WrapError("write output file", os.WriteFile(path, b, 0o600))
}
