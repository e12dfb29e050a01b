package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/vk/jilgraph/internal/analysis"
)

// newAnalyzeCmd builds the one-shot analyze command: parse both inputs,
// propagate, write the snapshot to stdout.
func newAnalyzeCmd(opts *globalOpts, errW io.Writer) *cobra.Command {
	var (
		jilPath    string
		reportPath string
		format     string
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze a JIL file and a status report, print the snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, model, err := opts.setup(cmd.Context(), errW)
			if err != nil {
				return err
			}
			if format != "json" && format != "yaml" {
				return &ExitError{Code: 2, Message: "invalid format: must be 'json' or 'yaml'"}
			}

			definitions, err := os.ReadFile(jilPath)
			if err != nil {
				return fmt.Errorf("reading definitions: %w", err)
			}
			report, err := os.ReadFile(reportPath)
			if err != nil {
				return fmt.Errorf("reading status report: %w", err)
			}

			result, err := analysis.Analyze(ctx, string(definitions), string(report), model.StatusCodes)
			if err != nil {
				return err
			}

			return writeResult(cmd.OutOrStdout(), result, format)
		},
	}

	cmd.Flags().StringVar(&jilPath, "jil", "", "path to the JIL job-definition file")
	cmd.Flags().StringVar(&reportPath, "report", "", "path to the status report file")
	cmd.Flags().StringVar(&format, "format", "json", "output format: 'json' or 'yaml'")
	_ = cmd.MarkFlagRequired("jil")
	_ = cmd.MarkFlagRequired("report")

	return cmd
}

// writeResult encodes the snapshot in the requested format.
func writeResult(w io.Writer, result *analysis.Result, format string) error {
	if format == "yaml" {
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(result)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
