package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"

	"github.com/go-logr/logr"
	"github.com/go-logr/stdr"
	"github.com/spf13/cobra"
	"kubegems.io/benchx/cmd/benchx/bench"
	"kubegems.io/benchx/cmd/benchx/ci"
	"kubegems.io/benchx/pkg/errors"
	"kubegems.io/benchx/pkg/version"
)

func main() {
	ctx, cancel := signal.NotifyContext(BaseContext(), os.Interrupt, os.Kill)
	err := NewBenchxCmd().ExecuteContext(ctx)
	cancel()
	if err != nil {
		PrintError(os.Stderr, err)
		os.Exit(errors.ExitCodeOf(err))
	}
}

// PrintError writes err and, when present, its detail.
func PrintError(w io.Writer, err error) {
	fmt.Fprintln(w, err.Error())
	if detail := errors.DetailOf(err); detail != "" {
		fmt.Fprintln(w, detail)
	}
}

func BaseContext() context.Context {
	flags := log.LstdFlags
	if os.Getenv("DEBUG") == "1" {
		flags |= log.Lshortfile
	}
	logger := log.New(os.Stderr, "", flags)
	return logr.NewContext(context.Background(), stdr.NewWithOptions(logger, stdr.Options{LogCaller: stdr.Error}))
}

func NewBenchxCmd() *cobra.Command {
	verbosity := 0
	cmd := &cobra.Command{
		Use:           "benchx",
		Short:         "benchx runs keras model benchmarks and the tensorflow gpu test suite",
		Version:       version.Get().String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			stdr.SetVerbosity(verbosity)
		},
	}
	cmd.AddCommand(
		bench.NewRunCmd(),
		bench.NewPatchCmd(),
		bench.NewModelsCmd(),
		bench.NewHistoryCmd(),
		bench.NewServeCmd(),
		ci.NewCICmd(),
	)
	cmd.PersistentFlags().IntVarP(&verbosity, "verbosity", "v", verbosity, "log verbosity")
	return cmd
}
