package bench

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"kubegems.io/benchx/pkg/history"
	"kubegems.io/benchx/pkg/version"
)

func NewHistoryCmd() *cobra.Command {
	historyPath := history.DefaultPath()
	limit := 20
	cmd := &cobra.Command{
		Use:   "history",
		Short: "list past runs, newest first",
		Example: `
  benchx history
  benchx history --limit 5
		`,
		Version:      version.Get().String(),
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := history.Open(historyPath)
			if err != nil {
				return err
			}
			defer store.Close()

			records, err := store.List(ctx, limit)
			if err != nil {
				return err
			}
			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.AppendHeader(table.Row{"ID", "Started", "Mode", "Inference", "Backend", "Status", "Models", "Failed", "Duration", "Bundle"})
			for _, r := range records {
				t.AppendRow(table.Row{
					r.ID, r.Started.Local().Format("2006-01-02 15:04:05"), r.Mode, r.Inference,
					r.Backend, r.Status, r.Models, r.Failed, r.Duration, r.BundleURL,
				})
			}
			t.Render()
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&historyPath, "history", historyPath, "run history database")
	flags.IntVar(&limit, "limit", limit, "max records shown, 0 for all")
	return cmd
}
