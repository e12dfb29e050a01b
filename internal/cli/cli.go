// Package cli is responsible for the command tree, validating user input,
// and handling process-level concerns like exit codes. It translates CLI
// flags and the optional config file into the analyzer's configuration.
package cli

import (
	"context"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/vk/jilgraph/internal/config"
	"github.com/vk/jilgraph/internal/ctxlog"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// globalOpts holds persistent flags parsed before subcommand dispatch.
type globalOpts struct {
	configPath string
	logLevel   string
	logFormat  string
}

// NewRootCmd creates the root cobra command for jilgraph.
func NewRootCmd(errW io.Writer) *cobra.Command {
	opts := &globalOpts{}

	rootCmd := &cobra.Command{
		Use:   "jilgraph",
		Short: "Dependency and impact analyzer for JIL job networks",
		Long: `jilgraph - dependency and impact analyzer for JIL job networks

jilgraph parses a JIL job-definition file together with a status report,
builds the validated dependency graph, and propagates every job's derived
display state (color, condition truth, blocking ancestors) through the
network. Results are written as JSON or YAML, or served over an HTTP API
for a dashboard to render.`,
		SilenceErrors: true, // error printing happens in main
		SilenceUsage:  true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to an optional HCL config file")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "logging level: 'debug', 'info', 'warn', or 'error'")
	rootCmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "log output format: 'text' or 'json'")

	rootCmd.AddCommand(
		newAnalyzeCmd(opts, errW),
		newServeCmd(opts, errW),
	)

	return rootCmd
}

// Execute runs the root command with the given output writers. This is the
// main entry point from main.go.
func Execute(stdout, stderr io.Writer, args []string) error {
	rootCmd := NewRootCmd(stderr)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

// setup resolves the effective configuration (defaults, then file, then
// explicit flags) and returns a context carrying the configured logger.
func (o *globalOpts) setup(ctx context.Context, errW io.Writer) (context.Context, *config.Model, error) {
	model, err := config.Load(ctx, o.configPath)
	if err != nil {
		return ctx, nil, &ExitError{Code: 2, Message: err.Error()}
	}

	if o.logLevel != "" {
		model.LogLevel = o.logLevel
	}
	if o.logFormat != "" {
		model.LogFormat = o.logFormat
	}
	if err := model.Validate(); err != nil {
		return ctx, nil, &ExitError{Code: 2, Message: err.Error()}
	}

	logger := newLogger(model.LogLevel, model.LogFormat, errW)
	logger.Debug("Logger configured successfully.")
	return ctxlog.WithLogger(ctx, logger), model, nil
}

// newLogger creates and configures a new slog.Logger instance. It does not
// set the global logger, allowing for isolated logger instances.
func newLogger(levelStr, formatStr string, outW io.Writer) *slog.Logger {
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler

	if formatStr == "json" {
		handler = slog.NewJSONHandler(outW, handlerOpts)
	} else {
		handler = slog.NewTextHandler(outW, handlerOpts)
	}

	return slog.New(handler)
}
