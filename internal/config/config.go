// Package config loads the analyzer's optional HCL configuration file and
// merges it over built-in defaults. CLI flags take precedence over file
// values; the file takes precedence over defaults.
package config

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/jilgraph/internal/ctxlog"
)

// Model is the resolved analyzer configuration.
type Model struct {
	LogLevel  string
	LogFormat string
	Listen    string

	// StatusCodes extends or overrides the report ingestor's two-letter
	// code table (code -> status name).
	StatusCodes map[string]string
}

// Default returns the built-in configuration.
func Default() *Model {
	return &Model{
		LogLevel:  "info",
		LogFormat: "text",
		Listen:    ":8080",
	}
}

// fileSchema is the gohcl shape of a configuration file.
type fileSchema struct {
	Log    *logBlock    `hcl:"log,block"`
	Server *serverBlock `hcl:"server,block"`

	// status_codes is kept as an expression so the map can be walked with
	// cty and validated value by value.
	StatusCodes hcl.Expression `hcl:"status_codes,optional"`
}

type logBlock struct {
	Level  string `hcl:"level,optional"`
	Format string `hcl:"format,optional"`
}

type serverBlock struct {
	Listen string `hcl:"listen,optional"`
}

// Load parses the HCL file at path over the defaults. An empty path
// returns the defaults untouched.
func Load(ctx context.Context, path string) (*Model, error) {
	logger := ctxlog.FromContext(ctx)
	model := Default()
	if path == "" {
		return model, nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parsing config file %s: %w", path, diags)
	}

	var schema fileSchema
	if diags := gohcl.DecodeBody(file.Body, nil, &schema); diags.HasErrors() {
		return nil, fmt.Errorf("decoding config file %s: %w", path, diags)
	}

	if schema.Log != nil {
		if schema.Log.Level != "" {
			model.LogLevel = schema.Log.Level
		}
		if schema.Log.Format != "" {
			model.LogFormat = schema.Log.Format
		}
	}
	if schema.Server != nil && schema.Server.Listen != "" {
		model.Listen = schema.Server.Listen
	}

	codes, err := decodeStatusCodes(schema.StatusCodes)
	if err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	model.StatusCodes = codes

	if err := model.Validate(); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}

	logger.Debug("Configuration file loaded.", "path", path)
	return model, nil
}

// decodeStatusCodes evaluates the status_codes attribute into a string map.
func decodeStatusCodes(expr hcl.Expression) (map[string]string, error) {
	if expr == nil {
		return nil, nil
	}
	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return nil, fmt.Errorf("evaluating status_codes: %w", diags)
	}
	if val.IsNull() {
		return nil, nil
	}
	if !val.Type().IsObjectType() && !val.Type().IsMapType() {
		return nil, fmt.Errorf("status_codes must be a map of code to status name")
	}

	out := make(map[string]string)
	for code, v := range val.AsValueMap() {
		if v.Type() != cty.String {
			return nil, fmt.Errorf("status_codes[%s] must be a string", code)
		}
		out[code] = v.AsString()
	}
	return out, nil
}

// Validate checks the enumerated fields.
func (m *Model) Validate() error {
	switch m.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q: must be 'debug', 'info', 'warn', or 'error'", m.LogLevel)
	}
	switch m.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format %q: must be 'text' or 'json'", m.LogFormat)
	}
	return nil
}
