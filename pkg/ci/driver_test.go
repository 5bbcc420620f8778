package ci

import (
	"bytes"
	"context"
	"errors"
	"os"
	"reflect"
	"testing"

	"k8s.io/utils/exec"
	testingexec "k8s.io/utils/exec/testing"
	benchxerrors "kubegems.io/benchx/pkg/errors"
)

func TestOptionsArgs(t *testing.T) {
	tests := []struct {
		name   string
		modify func(o *Options)
		want   []string
	}{
		{
			name:   "default",
			modify: func(o *Options) {},
			want: []string{
				"test", "--config=cuda", "-k",
				"--test_tag_filters=gpu,-no_gpu,-benchmark-test,-no_oss,-oss_serial",
				"--build_tag_filters=gpu,-no_gpu,-benchmark-test,-no_oss,-oss_serial",
				"--test_lang_filters=py",
				"--test_timeout", "300,450,1200,3600",
				"--build_tests_only", "--test_output=errors",
				"--test_env=TF_GPU_COUNT=4", "--test_env=TF_TESTS_PER_GPU=8",
				"--jobs=32", "--local_test_jobs=32",
				"--run_under=//tensorflow/tools/ci_build/gpu_build:parallel_gpu_execute",
				"--", "//tensorflow/...", "-//tensorflow/compiler/...",
			},
		},
		{
			name: "minimal",
			modify: func(o *Options) {
				o.Config = ""
				o.GPUCount = 2
				o.TestsPerGPU = 3
				o.TagFilters = []string{"gpu", "gpu", " ", "-no_gpu"}
				o.LangFilters = nil
				o.Timeouts = ""
				o.RunUnder = ""
				o.Targets = []string{"//keras/..."}
			},
			want: []string{
				"test", "-k",
				"--test_tag_filters=gpu,-no_gpu",
				"--build_tag_filters=gpu,-no_gpu",
				"--build_tests_only", "--test_output=errors",
				"--test_env=TF_GPU_COUNT=2", "--test_env=TF_TESTS_PER_GPU=3",
				"--jobs=6", "--local_test_jobs=6",
				"--", "//keras/...",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := DefaultOptions()
			tt.modify(o)
			if got := o.Args(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Args() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOptionsEnvAndJobs(t *testing.T) {
	o := DefaultOptions()
	o.GPUCount = 8
	o.TestsPerGPU = 2
	o.ComputeCapabilities = "7.0,8.0"
	if o.Jobs() != 16 {
		t.Errorf("Jobs() = %d, want 16", o.Jobs())
	}
	want := []string{
		"TF_NEED_CUDA=1",
		"TF_CUDA_COMPUTE_CAPABILITIES=7.0,8.0",
		"TF_GPU_COUNT=8",
		"TF_TESTS_PER_GPU=2",
	}
	if got := o.Env(); !reflect.DeepEqual(got, want) {
		t.Errorf("Env() = %v, want %v", got, want)
	}
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(o *Options)
		wantErr bool
	}{
		{name: "default", modify: func(o *Options) {}},
		{name: "no gpus", modify: func(o *Options) { o.GPUCount = 0 }, wantErr: true},
		{name: "no tests per gpu", modify: func(o *Options) { o.TestsPerGPU = -1 }, wantErr: true},
		{name: "no targets", modify: func(o *Options) { o.Targets = nil }, wantErr: true},
		{name: "no bazel", modify: func(o *Options) { o.Bazel = "" }, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := DefaultOptions()
			tt.modify(o)
			if err := o.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCommandLine(t *testing.T) {
	o := &Options{
		Bazel:       "bazel",
		GPUCount:    1,
		TestsPerGPU: 1,
		TagFilters:  []string{"gpu"},
		Targets:     []string{"//a/...", "-//a/b:c d"},
	}
	want := "TF_NEED_CUDA=1 TF_CUDA_COMPUTE_CAPABILITIES= TF_GPU_COUNT=1 TF_TESTS_PER_GPU=1 bazel test -k " +
		"--test_tag_filters=gpu --build_tag_filters=gpu --build_tests_only --test_output=errors " +
		"--test_env=TF_GPU_COUNT=1 --test_env=TF_TESTS_PER_GPU=1 --jobs=1 --local_test_jobs=1 -- //a/... '-//a/b:c d'"
	if got := o.CommandLine(); got != want {
		t.Errorf("CommandLine() =\n%s\nwant\n%s", got, want)
	}
}

func TestTestDriverRun(t *testing.T) {
	tests := []struct {
		name     string
		runErr   error
		wantCode int
	}{
		{name: "pass", runErr: nil, wantCode: 0},
		{name: "test failures", runErr: exec.CodeExitError{Err: errors.New("exit status 3"), Code: 3}, wantCode: 3},
		{name: "build failure", runErr: exec.CodeExitError{Err: errors.New("exit status 1"), Code: 1}, wantCode: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var argv, env []string
			fc := &testingexec.FakeCmd{}
			fc.RunScript = []testingexec.FakeAction{
				func() ([]byte, []byte, error) {
					argv, env = fc.Argv, fc.Env
					return []byte("INFO: Build completed\n"), nil, tt.runErr
				},
			}
			fe := &testingexec.FakeExec{
				CommandScript: []testingexec.FakeCommandAction{
					func(cmd string, args ...string) exec.Cmd { return testingexec.InitFakeCmd(fc, cmd, args...) },
				},
			}
			out := &bytes.Buffer{}
			d := NewTestDriver(DefaultOptions(), fe)
			d.Out, d.ErrOut = out, out

			err := d.Run(context.Background())
			if got := benchxerrors.ExitCodeOf(err); got != tt.wantCode {
				t.Errorf("exit code = %d, want %d (err %v)", got, tt.wantCode, err)
			}
			if tt.wantCode != 0 && !benchxerrors.IsErrCode(err, benchxerrors.ErrCodeTestFailed) {
				t.Errorf("Run() error = %v, want %s", err, benchxerrors.ErrCodeTestFailed)
			}
			if want := append([]string{"bazel"}, DefaultOptions().Args()...); !reflect.DeepEqual(argv, want) {
				t.Errorf("argv = %v, want %v", argv, want)
			}
			if want := append(os.Environ(), DefaultOptions().Env()...); !reflect.DeepEqual(env, want) {
				t.Errorf("env tail = %v", env[len(os.Environ()):])
			}
			if out.String() != "INFO: Build completed\n" {
				t.Errorf("output = %q", out.String())
			}
		})
	}
}
