package ci

import (
	"fmt"

	"github.com/spf13/cobra"
	"k8s.io/utils/exec"
	"kubegems.io/benchx/pkg/ci"
	"kubegems.io/benchx/pkg/version"
)

func NewCICmd() *cobra.Command {
	return newCICmd(exec.New())
}

func newCICmd(executor exec.Interface) *cobra.Command {
	options := ci.DefaultOptions()
	printOnly := false
	cmd := &cobra.Command{
		Use:   "ci [targets...]",
		Short: "run the tensorflow gpu test suite through bazel",
		Example: `
  benchx ci
  benchx ci --gpu-count 2 --tests-per-gpu 4 //tensorflow/python/...
  benchx ci --print
		`,
		Version:      version.Get().String(),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				options.Targets = args
			}
			if err := options.Validate(); err != nil {
				return err
			}
			if printOnly {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), options.CommandLine())
				return err
			}
			driver := ci.NewTestDriver(options, executor)
			driver.Out, driver.ErrOut = cmd.OutOrStdout(), cmd.ErrOrStderr()
			return driver.Run(cmd.Context())
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&options.Bazel, "bazel", options.Bazel, "bazel binary")
	flags.StringVar(&options.Config, "config", options.Config, "bazel --config value")
	flags.StringVar(&options.ComputeCapabilities, "compute-capabilities", options.ComputeCapabilities, "cuda compute capabilities")
	flags.IntVar(&options.GPUCount, "gpu-count", options.GPUCount, "number of gpus")
	flags.IntVar(&options.TestsPerGPU, "tests-per-gpu", options.TestsPerGPU, "tests run at once on each gpu")
	flags.StringSliceVar(&options.TagFilters, "tag-filters", options.TagFilters, "test and build tag filters")
	flags.StringSliceVar(&options.LangFilters, "lang-filters", options.LangFilters, "test language filters")
	flags.StringVar(&options.Timeouts, "test-timeout", options.Timeouts, "bazel test timeouts")
	flags.StringVar(&options.RunUnder, "run-under", options.RunUnder, "bazel --run_under target")
	flags.BoolVar(&printOnly, "print", printOnly, "print the command line instead of running it")
	return cmd
}
