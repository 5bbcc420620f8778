package harness

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/go-logr/logr"
	"github.com/opencontainers/go-digest"
	benchxerrors "kubegems.io/benchx/pkg/errors"
)

// BackendEnv overrides the backend in keras.json for a single process.
const BackendEnv = "KERAS_BACKEND"

// backendPattern matches every `"backend": "<value>"` in the file, not only
// the top-level key. Key and value must sit on the same line.
var backendPattern = regexp.MustCompile(`"backend"[ \t]*:[ \t]*"[^"\n]*"`)

// BackendConfig is the effective config handed to every invocation.
type BackendConfig struct {
	Path string
	// Backend is empty when the file was left unpatched.
	Backend string
	Content []byte
	Digest  digest.Digest
	// Patched is false when the file had no backend key and was left as is.
	Patched bool
}

// Env is empty for an unpatched config so the child sees the file untouched.
func (c *BackendConfig) Env() []string {
	if c == nil || !c.Patched {
		return nil
	}
	return []string{BackendEnv + "=" + c.Backend}
}

// PatchBackend rewrites the backend value in the file at path. A file without
// the key is left unchanged, or rejected when strict is set.
func PatchBackend(ctx context.Context, path string, backend string, strict bool) (*BackendConfig, error) {
	log := logr.FromContextOrDiscard(ctx).WithValues("path", path)

	if backend == "" || strings.ContainsAny(backend, "\"\\\n") {
		return nil, benchxerrors.NewParameterInvalidError(fmt.Sprintf("invalid backend %q", backend))
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, benchxerrors.NewConfigInvalidError(fmt.Sprintf("stat config %s: %v", path, err))
	}
	if info.IsDir() {
		return nil, benchxerrors.NewConfigInvalidError(fmt.Sprintf("config %s is a directory", path))
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, benchxerrors.NewConfigInvalidError(fmt.Sprintf("read config %s: %v", path, err))
	}

	if !backendPattern.Match(content) {
		if strict {
			return nil, benchxerrors.NewBackendKeyMissingError(path)
		}
		log.Info("no backend key in config, leaving it unchanged")
		return &BackendConfig{
			Path:    path,
			Content: content,
			Digest:  digest.FromBytes(content),
		}, nil
	}

	patched := backendPattern.ReplaceAllLiteral(content, []byte(fmt.Sprintf(`"backend": "%s"`, backend)))
	if !bytes.Equal(patched, content) {
		if err := os.WriteFile(path, patched, info.Mode().Perm()); err != nil {
			return nil, fmt.Errorf("write config %s: %w", path, err)
		}
		log.Info("backend patched", "backend", backend)
	} else {
		log.V(1).Info("backend already set", "backend", backend)
	}
	return &BackendConfig{
		Path:    path,
		Backend: backend,
		Content: patched,
		Digest:  digest.FromBytes(patched),
		Patched: true,
	}, nil
}
