package cli

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vk/jilgraph/internal/analysis"
	"github.com/vk/jilgraph/internal/ctxlog"
	"github.com/vk/jilgraph/internal/server"
)

// newServeCmd builds the serve command: analyze once, then expose the
// snapshot over the HTTP API until interrupted.
func newServeCmd(opts *globalOpts, errW io.Writer) *cobra.Command {
	var (
		jilPath    string
		reportPath string
		listen     string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the analysis snapshot over an HTTP JSON API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, model, err := opts.setup(cmd.Context(), errW)
			if err != nil {
				return err
			}
			if listen != "" {
				model.Listen = listen
			}

			definitions, err := os.ReadFile(jilPath)
			if err != nil {
				return fmt.Errorf("reading definitions: %w", err)
			}

			session, err := analysis.NewSession(ctx, string(definitions), model.StatusCodes)
			if err != nil {
				return fmt.Errorf("building dependency graph: %w", err)
			}

			var report []byte
			if reportPath != "" {
				if report, err = os.ReadFile(reportPath); err != nil {
					return fmt.Errorf("reading status report: %w", err)
				}
			}
			snapshot := session.Process(ctx, string(report))

			logger := ctxlog.FromContext(ctx)
			for _, d := range snapshot.Diagnostics {
				logger.Warn("Analysis diagnostic.", "kind", d.Kind, "job", d.Job, "detail", d.Detail)
			}

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			return server.New(session, snapshot).ListenAndServe(ctx, model.Listen)
		},
	}

	cmd.Flags().StringVar(&jilPath, "jil", "", "path to the JIL job-definition file")
	cmd.Flags().StringVar(&reportPath, "report", "", "path to the initial status report (optional; may be posted later)")
	cmd.Flags().StringVar(&listen, "listen", "", "listen address, e.g. ':8080' (overrides the config file)")
	_ = cmd.MarkFlagRequired("jil")

	return cmd
}
