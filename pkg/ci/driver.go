package ci

import (
	"context"
	"errors"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/go-logr/logr"
	"k8s.io/apimachinery/pkg/util/sets"
	"k8s.io/utils/exec"
	benchxerrors "kubegems.io/benchx/pkg/errors"
)

type Options struct {
	Bazel               string
	Config              string
	ComputeCapabilities string
	GPUCount            int
	TestsPerGPU         int
	TagFilters          []string
	LangFilters         []string
	Timeouts            string
	RunUnder            string
	Targets             []string
}

func DefaultOptions() *Options {
	return &Options{
		Bazel:               "bazel",
		Config:              "cuda",
		ComputeCapabilities: "3.7",
		GPUCount:            4,
		TestsPerGPU:         8,
		TagFilters:          []string{"gpu", "-no_gpu", "-benchmark-test", "-no_oss", "-oss_serial"},
		LangFilters:         []string{"py"},
		Timeouts:            "300,450,1200,3600",
		RunUnder:            "//tensorflow/tools/ci_build/gpu_build:parallel_gpu_execute",
		Targets:             []string{"//tensorflow/...", "-//tensorflow/compiler/..."},
	}
}

func (o *Options) Validate() error {
	switch {
	case o.Bazel == "":
		return benchxerrors.NewParameterInvalidError("bazel binary is required")
	case o.GPUCount < 1:
		return benchxerrors.NewParameterInvalidError("gpu count must be at least 1")
	case o.TestsPerGPU < 1:
		return benchxerrors.NewParameterInvalidError("tests per gpu must be at least 1")
	case len(o.Targets) == 0:
		return benchxerrors.NewParameterInvalidError("at least one target is required")
	}
	return nil
}

// Jobs is the number of tests run at once, spread over all GPUs.
func (o *Options) Jobs() int {
	return o.GPUCount * o.TestsPerGPU
}

func (o *Options) Env() []string {
	return []string{
		"TF_NEED_CUDA=1",
		"TF_CUDA_COMPUTE_CAPABILITIES=" + o.ComputeCapabilities,
		"TF_GPU_COUNT=" + strconv.Itoa(o.GPUCount),
		"TF_TESTS_PER_GPU=" + strconv.Itoa(o.TestsPerGPU),
	}
}

func (o *Options) Args() []string {
	jobs := strconv.Itoa(o.Jobs())
	tags := joinFilters(o.TagFilters)
	args := []string{"test"}
	if o.Config != "" {
		args = append(args, "--config="+o.Config)
	}
	args = append(args,
		"-k",
		"--test_tag_filters="+tags,
		"--build_tag_filters="+tags,
	)
	if langs := joinFilters(o.LangFilters); langs != "" {
		args = append(args, "--test_lang_filters="+langs)
	}
	if o.Timeouts != "" {
		args = append(args, "--test_timeout", o.Timeouts)
	}
	args = append(args,
		"--build_tests_only",
		"--test_output=errors",
		"--test_env=TF_GPU_COUNT="+strconv.Itoa(o.GPUCount),
		"--test_env=TF_TESTS_PER_GPU="+strconv.Itoa(o.TestsPerGPU),
		"--jobs="+jobs,
		"--local_test_jobs="+jobs,
	)
	if o.RunUnder != "" {
		args = append(args, "--run_under="+o.RunUnder)
	}
	args = append(args, "--")
	return append(args, o.Targets...)
}

// CommandLine is the shell form of the invocation, env first.
func (o *Options) CommandLine() string {
	parts := append(o.Env(), o.Bazel)
	for _, arg := range o.Args() {
		parts = append(parts, shellQuote(arg))
	}
	return strings.Join(parts, " ")
}

// joinFilters drops empty and repeated filters, keeping first-seen order.
func joinFilters(filters []string) string {
	seen := sets.NewString()
	kept := make([]string, 0, len(filters))
	for _, filter := range filters {
		filter = strings.TrimSpace(filter)
		if filter == "" || seen.Has(filter) {
			continue
		}
		seen.Insert(filter)
		kept = append(kept, filter)
	}
	return strings.Join(kept, ",")
}

func shellQuote(s string) string {
	if s != "" && !strings.ContainsAny(s, " \t\n'\"\\$`*?;&|<>()[]{}!#~") {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

type TestDriver struct {
	Options *Options
	Exec    exec.Interface
	Out     io.Writer
	ErrOut  io.Writer
}

func NewTestDriver(options *Options, executor exec.Interface) *TestDriver {
	if executor == nil {
		executor = exec.New()
	}
	return &TestDriver{Options: options, Exec: executor, Out: os.Stdout, ErrOut: os.Stderr}
}

// Run delegates to the build tool. A non-zero exit becomes a TEST_FAILED
// error carrying the same exit code.
func (d *TestDriver) Run(ctx context.Context) error {
	opts := d.Options
	if err := opts.Validate(); err != nil {
		return err
	}
	log := logr.FromContextOrDiscard(ctx)

	cmd := d.Exec.CommandContext(ctx, opts.Bazel, opts.Args()...)
	cmd.SetEnv(append(os.Environ(), opts.Env()...))
	cmd.SetStdout(d.Out)
	cmd.SetStderr(d.ErrOut)

	log.Info("running tests", "jobs", opts.Jobs(), "gpus", opts.GPUCount, "computeCapabilities", opts.ComputeCapabilities)
	log.V(1).Info("command", "line", opts.CommandLine())
	if err := cmd.Run(); err != nil {
		var exitErr exec.ExitError
		if errors.As(err, &exitErr) {
			return benchxerrors.NewTestFailedError(opts.Bazel, exitErr.ExitStatus())
		}
		return err
	}
	return nil
}
