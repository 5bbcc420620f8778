package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"k8s.io/utils/exec"
	benchxerrors "kubegems.io/benchx/pkg/errors"
	"kubegems.io/benchx/pkg/types"
)

// Sink receives the report once the model loop is over, failed or not.
type Sink interface {
	Publish(ctx context.Context, report *types.Report) error
}

type Harness struct {
	Options *Options
	Exec    exec.Interface
	Out     io.Writer
	ErrOut  io.Writer
	Sinks   []Sink

	now func() time.Time
}

func New(options *Options, executor exec.Interface, sinks ...Sink) *Harness {
	if executor == nil {
		executor = exec.New()
	}
	return &Harness{
		Options: options,
		Exec:    executor,
		Out:     os.Stdout,
		ErrOut:  os.Stderr,
		Sinks:   sinks,
		now:     time.Now,
	}
}

// Run does preflight, patch and echo, then runs every model in order and stops
// at the first failure. The returned report is nil when the run stopped
// before the first model.
func (h *Harness) Run(ctx context.Context) (*types.Report, error) {
	opts := h.Options
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	log := logr.FromContextOrDiscard(ctx)

	workdir := opts.Workdir
	if workdir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		workdir = wd
	}

	if err := Preflight(ctx, h.Exec, opts.Python, workdir, opts.Modules); err != nil {
		return nil, err
	}

	config, err := PatchBackend(ctx, opts.ConfigPath, opts.Backend, opts.StrictBackend)
	if err != nil {
		return nil, err
	}
	if err := EchoConfig(h.Out, config); err != nil {
		return nil, err
	}

	if opts.OutputDir != "" {
		if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
			return nil, fmt.Errorf("create output directory:%s %w", opts.OutputDir, err)
		}
	}

	report := &types.Report{
		ID:           uuid.NewString(),
		Started:      h.now(),
		Mode:         opts.Mode,
		Inference:    opts.Inference,
		Backend:      config.Backend,
		ConfigPath:   config.Path,
		ConfigDigest: config.Digest,
		Results:      []types.ModelResult{},
	}
	log = log.WithValues("run", report.ID)
	ctx = logr.NewContext(ctx, log)

	runErr := h.runModels(ctx, workdir, config, report)

	report.Finished = h.now()
	report.Status = types.StatusSucceeded
	if runErr != nil {
		report.Status = types.StatusFailed
	}
	log.Info("benchmarks finished", "status", report.Status, "duration", report.Duration())

	var sinkErr error
	for _, sink := range h.Sinks {
		if err := sink.Publish(ctx, report); err != nil {
			log.Error(err, "publish report")
			if sinkErr == nil {
				sinkErr = err
			}
		}
	}
	if runErr != nil {
		return report, runErr
	}
	return report, sinkErr
}

// EchoConfig writes the effective config, newline terminated.
func EchoConfig(w io.Writer, config *BackendConfig) error {
	content := config.Content
	if len(content) > 0 && content[len(content)-1] != '\n' {
		content = append(append([]byte{}, content...), '\n')
	}
	_, err := w.Write(content)
	return err
}

func (h *Harness) runModels(ctx context.Context, workdir string, config *BackendConfig, report *types.Report) error {
	opts := h.Options
	models := NormalizeModels(opts.Models)
	for i, model := range models {
		if err := ctx.Err(); err != nil {
			report.Skipped = append(report.Skipped, models[i:]...)
			return err
		}
		inv := Invocation{
			Python:    opts.Python,
			Script:    opts.Script,
			Workdir:   workdir,
			Mode:      opts.Mode,
			Model:     model,
			Inference: opts.Inference,
			Config:    config,
		}
		result, err := h.invoke(ctx, inv)
		report.Results = append(report.Results, result)
		if err != nil {
			report.Skipped = append(report.Skipped, models[i+1:]...)
			return err
		}
	}
	return nil
}

func (h *Harness) invoke(ctx context.Context, inv Invocation) (types.ModelResult, error) {
	log := logr.FromContextOrDiscard(ctx).WithValues("model", inv.Model)
	result := types.ModelResult{Name: inv.Model}

	stdout, stderr := h.Out, h.ErrOut
	if dir := h.Options.OutputDir; dir != "" {
		logfile := filepath.Join(dir, logFileName(inv.Model))
		f, err := os.Create(logfile)
		if err != nil {
			result.Status = types.StatusFailed
			result.ExitCode = -1
			result.Message = err.Error()
			return result, fmt.Errorf("create log file:%s %w", logfile, err)
		}
		defer f.Close()
		result.LogFile = filepath.Base(logfile)
		stdout, stderr = io.MultiWriter(h.Out, f), io.MultiWriter(h.ErrOut, f)
	}

	cmd := h.Exec.CommandContext(ctx, inv.Python, inv.Args()...)
	cmd.SetDir(inv.Workdir)
	cmd.SetEnv(append(os.Environ(), inv.Config.Env()...))
	cmd.SetStdout(stdout)
	cmd.SetStderr(stderr)

	log.Info("running benchmark", "command", inv.String())
	start := h.now()
	err := cmd.Run()
	result.Duration = h.now().Sub(start)

	if err != nil {
		code := -1
		var exitErr exec.ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.ExitStatus()
		}
		result.Status = types.StatusFailed
		result.ExitCode = code
		result.Message = err.Error()
		log.Error(err, "benchmark failed", "exitCode", code)
		return result, benchxerrors.NewInvocationFailedError(inv.Model, code, err)
	}
	result.Status = types.StatusSucceeded
	log.V(1).Info("benchmark done", "duration", result.Duration)
	return result, nil
}
