package errors

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	ErrCodeInvalidParameter  ErrCode = "INVALID_PARAMETER"
	ErrCodeConfigInvalid     ErrCode = "CONFIG_INVALID"
	ErrCodePreflightFailed   ErrCode = "PREFLIGHT_FAILED"
	ErrCodeBackendKeyMissing ErrCode = "BACKEND_KEY_MISSING"
	ErrCodeInvocationFailed  ErrCode = "INVOCATION_FAILED"
	ErrCodeTestFailed        ErrCode = "TEST_FAILED"
	ErrCodeStorageUnknown    ErrCode = "STORAGE_UNKNOWN"
	ErrCodeRunNotFound       ErrCode = "RUN_NOT_FOUND"
	ErrCodeUnauthorized      ErrCode = "UNAUTHORIZED"
	ErrCodeInternal          ErrCode = "INTERNAL"
)

const (
	ExitCodeGeneric           = 1
	ExitCodeInvalid           = 2
	ExitCodePreflight         = 3
	ExitCodeBackendKeyMissing = 4
	ExitCodeInvocation        = 5
)

type ErrCode string

type ErrorInfo struct {
	ExitCode   int     `json:"-"`
	HttpStatus int     `json:"-"`
	Code       ErrCode `json:"code"`
	Message    string  `json:"message"`
	Detail     string  `json:"detail,omitempty"`
}

func (e ErrorInfo) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func IsErrCode(err error, code ErrCode) bool {
	if err == nil {
		return false
	}
	info := ErrorInfo{}
	if errors.As(err, &info) {
		return info.Code == code
	}
	return false
}

// DetailOf returns the detail carried by err, such as the output of a failed
// import, or "" when there is none.
func DetailOf(err error) string {
	info := ErrorInfo{}
	if errors.As(err, &info) {
		return info.Detail
	}
	return ""
}

// ExitCodeOf returns the process exit code for err, 0 when err is nil.
func ExitCodeOf(err error) int {
	if err == nil {
		return 0
	}
	info := ErrorInfo{}
	if errors.As(err, &info) && info.ExitCode != 0 {
		return info.ExitCode
	}
	return ExitCodeGeneric
}

func NewParameterInvalidError(msg string) ErrorInfo {
	return ErrorInfo{ExitCode: ExitCodeInvalid, HttpStatus: http.StatusBadRequest, Code: ErrCodeInvalidParameter, Message: msg}
}

func NewConfigInvalidError(msg string) ErrorInfo {
	return ErrorInfo{ExitCode: ExitCodeInvalid, Code: ErrCodeConfigInvalid, Message: msg}
}

func NewPreflightFailedError(module string, output string) ErrorInfo {
	return ErrorInfo{
		ExitCode: ExitCodePreflight,
		Code:     ErrCodePreflightFailed,
		Message:  fmt.Sprintf("import %s failed", module),
		Detail:   output,
	}
}

func NewBackendKeyMissingError(path string) ErrorInfo {
	return ErrorInfo{
		ExitCode: ExitCodeBackendKeyMissing,
		Code:     ErrCodeBackendKeyMissing,
		Message:  fmt.Sprintf("no \"backend\" key in %s", path),
	}
}

func NewInvocationFailedError(model string, exitCode int, err error) ErrorInfo {
	return ErrorInfo{
		ExitCode: ExitCodeInvocation,
		Code:     ErrCodeInvocationFailed,
		Message:  fmt.Sprintf("benchmark %s exited with code %d", model, exitCode),
		Detail:   err.Error(),
	}
}

// NewTestFailedError keeps the external tool's exit code so it becomes ours.
func NewTestFailedError(tool string, exitCode int) ErrorInfo {
	if exitCode <= 0 {
		exitCode = ExitCodeGeneric
	}
	return ErrorInfo{
		ExitCode: exitCode,
		Code:     ErrCodeTestFailed,
		Message:  fmt.Sprintf("%s exited with code %d", tool, exitCode),
	}
}

func NewStorageUnknownError(bucket string) ErrorInfo {
	return ErrorInfo{ExitCode: ExitCodeGeneric, Code: ErrCodeStorageUnknown, Message: fmt.Sprintf("bucket: %s not found", bucket)}
}

func NewRunNotFoundError(id string) ErrorInfo {
	return ErrorInfo{
		ExitCode:   ExitCodeGeneric,
		HttpStatus: http.StatusNotFound,
		Code:       ErrCodeRunNotFound,
		Message:    fmt.Sprintf("run %s not found", id),
	}
}

func NewUnauthorizedError(err error) ErrorInfo {
	return ErrorInfo{
		ExitCode:   ExitCodeGeneric,
		HttpStatus: http.StatusUnauthorized,
		Code:       ErrCodeUnauthorized,
		Message:    "unauthorized",
		Detail:     err.Error(),
	}
}

func NewInternalError(err error) ErrorInfo {
	return ErrorInfo{ExitCode: ExitCodeGeneric, Code: ErrCodeInternal, Message: err.Error()}
}
