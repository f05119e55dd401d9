package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	urfave "github.com/urfave/cli/v3"

	"github.com/bibbank/creditrisk/internal/application/usecase"
	"github.com/bibbank/creditrisk/internal/domain/model"
	"github.com/bibbank/creditrisk/internal/infrastructure/artifact"
)

// CheckResult is the output of riskctl check.
type CheckResult struct {
	Error  string                `json:"error,omitempty" yaml:"error,omitempty"`
	Files  []artifact.FileStatus `json:"files" yaml:"files"`
	Loaded bool                  `json:"loaded" yaml:"loaded"`
}

func (a *app) checkCommand() *urfave.Command {
	return &urfave.Command{
		Name:  "check",
		Usage: "Verify that both artifacts exist and load",
		Flags: artifactFlags(),
		Action: func(ctx context.Context, cmd *urfave.Command) error {
			store := a.store(cmd, false)
			defer store.Close()

			files, err := store.Check()
			result := CheckResult{Files: files}
			if err == nil {
				_, err = store.Load(ctx)
			}
			if err != nil {
				result.Error = err.Error()
			} else {
				result.Loaded = true
			}

			if encErr := encode(cmd, result); encErr != nil {
				return encErr
			}
			if err != nil {
				return errors.New("artifacts are not usable")
			}
			return nil
		},
	}
}

func (a *app) inspectCommand() *urfave.Command {
	return &urfave.Command{
		Name:  "inspect",
		Usage: "Describe the preprocessor and the model after compatibility adaptation",
		Flags: artifactFlags(),
		Action: func(ctx context.Context, cmd *urfave.Command) error {
			store := a.store(cmd, false)
			defer store.Close()

			report, err := store.Inspect(ctx)
			if err != nil {
				return err
			}
			return encode(cmd, report)
		},
	}
}

func (a *app) predictCommand() *urfave.Command {
	return &urfave.Command{
		Name:  "predict",
		Usage: "Score one application record offline",
		Flags: artifactFlags(
			&urfave.StringFlag{
				Name:     "input",
				Aliases:  []string{"i"},
				Usage:    "JSON file with one application record, or - for stdin",
				Required: true,
			},
			&urfave.BoolFlag{
				Name:  "force-wrapper",
				Usage: "Score through the classifier wrapper instead of the booster",
			},
		),
		Action: func(ctx context.Context, cmd *urfave.Command) error {
			record, err := readRecord(cmd.String("input"), cmd.Root().Reader)
			if err != nil {
				return err
			}

			store := a.store(cmd, cmd.Bool("force-wrapper"))
			defer store.Close()

			artifacts, err := store.Load(ctx)
			if err != nil {
				return fmt.Errorf("load models: %w", err)
			}

			resp, err := usecase.NewAssessApplication(artifacts, nil, nil, a.logger).Execute(ctx, record)
			if err != nil {
				return err
			}
			return encode(cmd, resp)
		},
	}
}

func readRecord(name string, stdin io.Reader) (model.FeatureRecord, error) {
	var r io.Reader
	if name == "-" {
		if stdin == nil {
			stdin = os.Stdin
		}
		r = stdin
	} else {
		f, err := os.Open(name)
		if err != nil {
			return nil, fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		r = f
	}

	dec := json.NewDecoder(r)
	dec.UseNumber()

	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return nil, fmt.Errorf("decode input: %w", err)
	}
	if len(fields) == 0 {
		return nil, errors.New("no data provided")
	}
	return model.NewFeatureRecord(fields), nil
}
