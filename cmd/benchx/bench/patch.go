package bench

import (
	"github.com/spf13/cobra"
	"kubegems.io/benchx/pkg/harness"
	"kubegems.io/benchx/pkg/version"
)

func NewPatchCmd() *cobra.Command {
	options := harness.DefaultOptions()
	profile := ""
	cmd := &cobra.Command{
		Use:   "patch",
		Short: "set the backend in the keras config and print the result",
		Example: `
  benchx patch
  benchx patch --config ./keras.json --backend tensorflow --strict-backend
		`,
		Version:      version.Get().String(),
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := applyProfile(cmd, profile, options); err != nil {
				return err
			}
			config, err := harness.PatchBackend(cmd.Context(), options.ConfigPath, options.Backend, options.StrictBackend)
			if err != nil {
				return err
			}
			return harness.EchoConfig(cmd.OutOrStdout(), config)
		},
	}
	flags := cmd.Flags()
	addConfigFlags(flags, options)
	flags.StringVar(&profile, "profile", profile, "yaml profile with default run options")
	return cmd
}
