package bench

import (
	"github.com/go-logr/logr"
	"github.com/spf13/cobra"
	"k8s.io/utils/exec"
	"kubegems.io/benchx/pkg/errors"
	"kubegems.io/benchx/pkg/harness"
	"kubegems.io/benchx/pkg/history"
	"kubegems.io/benchx/pkg/report"
	"kubegems.io/benchx/pkg/version"
)

func NewRunCmd() *cobra.Command {
	return newRunCmd(exec.New())
}

func newRunCmd(executor exec.Interface) *cobra.Command {
	options := harness.DefaultOptions()
	s3options := report.NewDefaultS3Options()
	profile := ""
	historyPath := history.DefaultPath()
	cmd := &cobra.Command{
		Use:   "run [mode] [inference]",
		Short: "patch the keras backend and run every benchmark model in order",
		Example: `
  benchx run cpu_config True
  benchx run cpu_config True --model resnet50 --model vgg16 --output-dir out
  benchx run --profile gpu.yaml --output-dir out --s3-url http://minio:9000
		`,
		Version:      version.Get().String(),
		SilenceUsage: true,
		Args:         cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logr.FromContextOrDiscard(ctx)

			if err := applyProfile(cmd, profile, options); err != nil {
				return err
			}
			if len(args) > 0 {
				options.Mode = args[0]
			}
			if len(args) > 1 {
				options.Inference = args[1]
			}

			sinks := []harness.Sink{}
			if options.OutputDir != "" || s3options.URL != "" {
				if options.OutputDir == "" {
					return errors.NewParameterInvalidError("--s3-url requires --output-dir")
				}
				publisher := &report.Publisher{Dir: options.OutputDir}
				if s3options.URL != "" {
					uploader, err := report.NewS3Uploader(ctx, s3options)
					if err != nil {
						return errors.NewConfigInvalidError("s3: " + err.Error())
					}
					publisher.Uploader = uploader
				}
				sinks = append(sinks, publisher)
			}
			if historyPath != "" {
				store, err := history.Open(historyPath)
				if err != nil {
					log.Error(err, "history disabled")
				} else {
					defer store.Close()
					sinks = append(sinks, store)
				}
			}

			h := harness.New(options, executor, sinks...)
			h.Out, h.ErrOut = cmd.OutOrStdout(), cmd.ErrOrStderr()
			result, err := h.Run(ctx)
			if result != nil {
				report.PrintSummary(cmd.OutOrStdout(), result)
			}
			return err
		},
	}
	flags := cmd.Flags()
	addHarnessFlags(flags, options)
	addS3Flags(flags, s3options)
	flags.StringVar(&profile, "profile", profile, "yaml profile with default run options")
	flags.StringVar(&historyPath, "history", historyPath, "run history database, empty to disable")
	return cmd
}
