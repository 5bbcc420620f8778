package bench

import (
	"github.com/spf13/cobra"
	"kubegems.io/benchx/pkg/server"
	"kubegems.io/benchx/pkg/version"
)

func NewServeCmd() *cobra.Command {
	options := server.DefaultOptions()
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "serve the run history over http",
		Example: `
  benchx serve --listen :8080
  curl localhost:8080/runs?limit=5
		`,
		Version:      version.Get().String(),
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return server.Run(cmd.Context(), options)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&options.Listen, "listen", options.Listen, "listen address")
	flags.StringVar(&options.HistoryPath, "history", options.HistoryPath, "run history database")
	flags.StringVar(&options.CertFile, "tls-cert", options.CertFile, "tls cert file")
	flags.StringVar(&options.KeyFile, "tls-key", options.KeyFile, "tls key file")
	flags.StringVar(&options.OIDCIssuer, "oidc-issuer", options.OIDCIssuer, "oidc issuer, requires bearer tokens when set")
	return cmd
}
