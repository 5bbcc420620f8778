package ci

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"k8s.io/utils/exec"
	testingexec "k8s.io/utils/exec/testing"
	benchxerrors "kubegems.io/benchx/pkg/errors"
)

func TestCICmd(t *testing.T) {
	tests := []struct {
		name         string
		args         []string
		runErr       error
		wantCalls    int
		wantExitCode int
		wantOut      []string
	}{
		{
			name:    "print only",
			args:    []string{"--print", "--gpu-count", "2", "//keras/..."},
			wantOut: []string{"TF_GPU_COUNT=2", "bazel test", "--jobs=16", "-- //keras/..."},
		},
		{
			name:      "passed",
			args:      []string{},
			wantCalls: 1,
			wantOut:   []string{"tests passed"},
		},
		{
			name:         "exit code forwarded",
			args:         []string{},
			runErr:       exec.CodeExitError{Err: errors.New("exit status 3"), Code: 3},
			wantCalls:    1,
			wantExitCode: 3,
		},
		{
			name:         "invalid gpu count",
			args:         []string{"--gpu-count", "0"},
			wantExitCode: benchxerrors.ExitCodeInvalid,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			fe := &testingexec.FakeExec{}
			fe.CommandScript = []testingexec.FakeCommandAction{
				func(cmd string, args ...string) exec.Cmd {
					calls++
					fc := &testingexec.FakeCmd{
						RunScript: []testingexec.FakeAction{
							func() ([]byte, []byte, error) { return []byte("tests passed\n"), nil, tt.runErr },
						},
					}
					return testingexec.InitFakeCmd(fc, cmd, args...)
				},
			}
			out := &bytes.Buffer{}
			cmd := newCICmd(fe)
			cmd.SetOut(out)
			cmd.SetErr(out)
			cmd.SetArgs(tt.args)

			err := cmd.ExecuteContext(context.Background())
			if code := benchxerrors.ExitCodeOf(err); code != tt.wantExitCode {
				t.Errorf("exit code = %d, want %d (err %v)", code, tt.wantExitCode, err)
			}
			if calls != tt.wantCalls {
				t.Errorf("bazel calls = %d, want %d", calls, tt.wantCalls)
			}
			for _, want := range tt.wantOut {
				if !strings.Contains(out.String(), want) {
					t.Errorf("output missing %q:\n%s", want, out.String())
				}
			}
		})
	}
}
