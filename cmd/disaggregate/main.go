// Command disaggregate refines a multi-regional input-output table by
// splitting sectors and regions into finer parts and redistributing the
// flows with external proxy data, following the flexible algorithm of
// Wenz et al. (2015).
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"mriocli/internal/config"
	"mriocli/internal/infrastructure"
	"mriocli/internal/operations"
)

// version is stamped at build time.
var version = "dev"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	root := newRootCommand()
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 255
	}
	return 0
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "disaggregate SETTINGS",
		Short: "Flexible regional and sectoral disaggregation of MRIO tables",
		Long: `Refines a multi-regional input-output table by splitting selected
sectors and regions into user-defined parts, redistributing the flows
with proxy data while conserving every aggregate of the base table.

The algorithm is described in:
    L. Wenz, S.N. Willner, A. Radebach, R. Bierkandt, J.C. Steckel,
    A. Levermann: Regional and sectoral disaggregation of multi-regional
    input-output tables: a flexible algorithm. Economic Systems Research
    27 (2015).`,
		Version:       version,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSettings(cmd.Context(), args[0])
		},
	}
	cmd.Flags().BoolP("version", "v", false, "print the version and exit")
	return cmd
}

func runSettings(ctx context.Context, settingsPath string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Warn("failed to load config, using defaults", "error", err)
		cfg = config.Default()
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}
	defer infrastructure.CloseLogger()

	settings, err := config.LoadSettings(settingsPath)
	if err != nil {
		return err
	}

	var opts []operations.ManagerOption
	providers, err := infrastructure.InitOTelProviders("mriocli", cfg.Logging.Development)
	if err != nil {
		logger.Warn("telemetry disabled", slog.String("error", err.Error()))
	} else {
		defer providers.Shutdown(context.Background())
		tracer, err := operations.NewRunTracer(providers)
		if err != nil {
			logger.Warn("telemetry disabled", slog.String("error", err.Error()))
		} else {
			opts = append(opts, operations.WithTracer(tracer))
		}
	}

	manager := operations.NewManager(logger, opts...)
	_, err = manager.Run(ctx, settings, cfg)
	return err
}
