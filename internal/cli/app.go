// Package cli implements riskctl, the operator tool for model artifacts.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	urfave "github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/bibbank/creditrisk/internal/infrastructure/artifact"
)

const (
	formatJSON = "json"
	formatYAML = "yaml"
)

var (
	version = "v0.0.1-default"
	commit  = ""
	date    = ""
)

// Flag names shared by several commands.
const (
	flagLogLevel  = "log-level"
	flagFormat    = "format"
	flagModelDir  = "model-dir"
	flagModelFile = "model-file"
	flagONNXLib   = "onnx-runtime-lib"
)

// artifactFlags returns fresh flags locating the artifacts. urfave flags keep
// parse state, so every command gets its own instances.
func artifactFlags(extra ...urfave.Flag) []urfave.Flag {
	return append([]urfave.Flag{
		&urfave.StringFlag{
			Name:    flagModelDir,
			Usage:   "Directory holding the preprocessor and model artifacts",
			Value:   "model",
			Sources: urfave.EnvVars("MODEL_DIR"),
		},
		&urfave.StringFlag{
			Name:    flagModelFile,
			Usage:   "Model file name inside --model-dir (default: final_xgb_model.json, then .onnx)",
			Sources: urfave.EnvVars("MODEL_FILE"),
		},
		&urfave.StringFlag{
			Name:    flagONNXLib,
			Usage:   "Path to the onnxruntime shared library for .onnx models",
			Sources: urfave.EnvVars("ONNX_RUNTIME_LIB"),
		},
	}, extra...)
}

// app carries state shared by the subcommands.
type app struct {
	logger *slog.Logger
	stderr io.Writer
}

// Execute creates and runs riskctl.
func Execute() {
	if err := NewApp(os.Stderr).Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "riskctl:", err)
		os.Exit(1)
	}
}

// NewApp builds the root command. Logs go to stderr; command output goes
// to the command's Writer.
func NewApp(stderr io.Writer) *urfave.Command {
	a := &app{stderr: stderr, logger: slog.New(NewHandler(stderr, slog.LevelWarn, false))}

	return &urfave.Command{
		Name:            "riskctl",
		Version:         fmt.Sprintf("%s (%s - %s)", version, commit, date),
		Usage:           "Operator tool for the credit risk model artifacts",
		HideHelpCommand: true,
		ErrWriter:       stderr,
		Flags: []urfave.Flag{
			&urfave.StringFlag{
				Name:    flagLogLevel,
				Usage:   "Log level [debug, info, warn, error]",
				Value:   "warn",
				Sources: urfave.EnvVars("LOG_LEVEL"),
			},
			&urfave.StringFlag{
				Name:  flagFormat,
				Usage: "Output format [json, yaml]",
				Value: formatJSON,
			},
		},
		Commands: []*urfave.Command{
			a.checkCommand(),
			a.inspectCommand(),
			a.predictCommand(),
			a.tokenCommand(),
			a.devCertsCommand(),
		},
		Before: func(ctx context.Context, cmd *urfave.Command) (context.Context, error) {
			a.logger = slog.New(NewHandler(a.stderr, parseLevel(cmd.String(flagLogLevel)), isTerminal(a.stderr)))
			return ctx, nil
		},
	}
}

func (a *app) store(cmd *urfave.Command, forceWrapper bool) *artifact.Store {
	return artifact.NewStore(artifact.Config{
		Dir:            cmd.String(flagModelDir),
		ModelFile:      cmd.String(flagModelFile),
		ONNXRuntimeLib: cmd.String(flagONNXLib),
		ForceWrapper:   forceWrapper,
	}, a.logger)
}

// encode writes v to the root command's Writer in the --format encoding.
func encode(cmd *urfave.Command, v any) error {
	w := cmd.Root().Writer
	switch f := strings.ToLower(cmd.String(flagFormat)); f {
	case formatYAML, "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(v)
	case formatJSON, "":
		e := json.NewEncoder(w)
		e.SetIndent("", "  ")
		return e.Encode(v)
	default:
		return fmt.Errorf("unsupported format %q", f)
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}
