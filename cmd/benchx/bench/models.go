package bench

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"kubegems.io/benchx/pkg/harness"
	"kubegems.io/benchx/pkg/version"
)

func NewModelsCmd() *cobra.Command {
	options := harness.DefaultOptions()
	profile := ""
	cmd := &cobra.Command{
		Use:   "models",
		Short: "list the models a run would benchmark",
		Example: `
  benchx models
  benchx models --profile gpu.yaml
		`,
		Version:      version.Get().String(),
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := applyProfile(cmd, profile, options); err != nil {
				return err
			}
			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.AppendHeader(table.Row{"#", "Model"})
			for i, model := range harness.NormalizeModels(options.Models) {
				t.AppendRow(table.Row{i + 1, model})
			}
			t.Render()
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringSliceVar(&options.Models, "model", options.Models, "models to run, in order")
	flags.StringVar(&profile, "profile", profile, "yaml profile with default run options")
	return cmd
}
