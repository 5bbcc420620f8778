package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsErrCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code ErrCode
		want bool
	}{
		{name: "nil", err: nil, code: ErrCodeInternal, want: false},
		{name: "direct", err: NewBackendKeyMissingError("keras.json"), code: ErrCodeBackendKeyMissing, want: true},
		{name: "wrapped", err: fmt.Errorf("patch: %w", NewPreflightFailedError("keras", "")), code: ErrCodePreflightFailed, want: true},
		{name: "other code", err: NewConfigInvalidError("bad"), code: ErrCodeInternal, want: false},
		{name: "plain error", err: errors.New("boom"), code: ErrCodeInternal, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsErrCode(tt.err, tt.code); got != tt.want {
				t.Errorf("IsErrCode() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDetailOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "plain", err: errors.New("boom"), want: ""},
		{name: "preflight output", err: fmt.Errorf("run: %w", NewPreflightFailedError("keras", "ModuleNotFoundError: No module named 'keras'")), want: "ModuleNotFoundError: No module named 'keras'"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetailOf(tt.err); got != tt.want {
				t.Errorf("DetailOf() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExitCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", err: nil, want: 0},
		{name: "plain", err: errors.New("boom"), want: ExitCodeGeneric},
		{name: "preflight", err: NewPreflightFailedError("keras", "ModuleNotFoundError"), want: ExitCodePreflight},
		{name: "invocation wrapped", err: fmt.Errorf("run: %w", NewInvocationFailedError("resnet50", 7, errors.New("exit status 7"))), want: ExitCodeInvocation},
		{name: "test tool exit code", err: NewTestFailedError("bazel", 3), want: 3},
		{name: "test tool killed", err: NewTestFailedError("bazel", -1), want: ExitCodeGeneric},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCodeOf(tt.err); got != tt.want {
				t.Errorf("ExitCodeOf() = %v, want %v", got, tt.want)
			}
		})
	}
}
