package bench

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"kubegems.io/benchx/pkg/harness"
	"kubegems.io/benchx/pkg/report"
)

func addConfigFlags(flags *pflag.FlagSet, options *harness.Options) {
	flags.StringVar(&options.ConfigPath, "config", options.ConfigPath, "keras config file")
	flags.StringVar(&options.Backend, "backend", options.Backend, "backend written into the keras config")
	flags.BoolVar(&options.StrictBackend, "strict-backend", options.StrictBackend, "fail when the keras config has no backend key")
}

func addHarnessFlags(flags *pflag.FlagSet, options *harness.Options) {
	addConfigFlags(flags, options)
	flags.StringVar(&options.Python, "python", options.Python, "python interpreter")
	flags.StringVar(&options.Script, "script", options.Script, "benchmark script, relative to the working directory")
	flags.StringVar(&options.Workdir, "workdir", options.Workdir, "working directory, defaults to the current one")
	flags.StringVar(&options.Mode, "mode", options.Mode, "benchmark mode, e.g. cpu_config")
	flags.StringVar(&options.Inference, "inference", options.Inference, "inference flag passed to the script")
	flags.StringVar(&options.OutputDir, "output-dir", options.OutputDir, "directory for per model logs and report.json")
	flags.StringSliceVar(&options.Modules, "module", options.Modules, "python modules checked before running")
	flags.StringSliceVar(&options.Models, "model", options.Models, "models to run, in order")
}

func addS3Flags(flags *pflag.FlagSet, options *report.S3Options) {
	flags.StringVar(&options.URL, "s3-url", options.URL, "s3 url, uploads the run bundle when set")
	flags.StringVar(&options.Region, "s3-region", options.Region, "s3 region")
	flags.StringVar(&options.Bucket, "s3-bucket", options.Bucket, "s3 bucket")
	flags.StringVar(&options.Prefix, "s3-prefix", options.Prefix, "s3 key prefix")
	flags.StringVar(&options.AccessKey, "s3-access-key", options.AccessKey, "s3 access key")
	flags.StringVar(&options.SecretKey, "s3-secret-key", options.SecretKey, "s3 secret key")
	flags.BoolVar(&options.PathStyle, "s3-path-style", options.PathStyle, "use path style s3 addressing")
	flags.UintVar(&options.Attempts, "s3-attempts", options.Attempts, "upload attempts")
}

// applyProfile merges the profile at path into options. Flags set on the
// command line keep their value.
func applyProfile(cmd *cobra.Command, path string, options *harness.Options) error {
	if path == "" {
		return nil
	}
	profile, err := harness.LoadProfile(path)
	if err != nil {
		return err
	}
	options.MergeProfile(profile, cmd.Flags().Changed)
	return nil
}
