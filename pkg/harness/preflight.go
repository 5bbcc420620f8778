package harness

import (
	"context"
	"strings"

	"github.com/go-logr/logr"
	"golang.org/x/sync/errgroup"
	"k8s.io/utils/exec"
	benchxerrors "kubegems.io/benchx/pkg/errors"
)

// Preflight imports every module with the given interpreter from workdir, the
// directory the benchmarks run in. The first failed import fails the whole check.
func Preflight(ctx context.Context, executor exec.Interface, python string, workdir string, modules []string) error {
	log := logr.FromContextOrDiscard(ctx)

	eg, ctx := errgroup.WithContext(ctx)
	for _, module := range modules {
		module := module
		eg.Go(func() error {
			log.V(1).Info("checking import", "python", python, "module", module)
			cmd := executor.CommandContext(ctx, python, "-c", "import "+module)
			if workdir != "" {
				cmd.SetDir(workdir)
			}
			out, err := cmd.CombinedOutput()
			if err != nil {
				detail := strings.TrimSpace(string(out))
				if detail == "" {
					detail = err.Error()
				}
				log.Error(err, "import failed", "module", module, "output", detail)
				return benchxerrors.NewPreflightFailedError(module, detail)
			}
			return nil
		})
	}
	return eg.Wait()
}
