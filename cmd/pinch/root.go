package main

import (
	"context"
	"errors"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/kbukum/pinch/logger"
	"github.com/kbukum/pinch/observability"
	"github.com/kbukum/pinch/version"
)

// app carries what the root command prepares for its subcommands.
type app struct {
	configPath string
	verbose    bool

	cfg      *Config
	metrics  *observability.Metrics
	shutdown []func(context.Context) error
}

func newRootCmd() *cobra.Command {
	return (&app{}).command()
}

// execute runs the command line with args and flushes exporters
// afterwards. Cobra skips post-run hooks when a command fails, so
// teardown runs here for both outcomes.
func (a *app) execute(args []string) error {
	cmd := a.command()
	cmd.SetArgs(args)
	err := cmd.Execute()
	return errors.Join(err, a.teardown(context.Background()))
}

func (a *app) command() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "pinch",
		Short:         "Certificate-pinned HTTP fetches",
		Long:          "pinch fetches URLs while trusting only the certificates you pin.",
		Version:       version.Short(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd.Context())
		},
	}
	cmd.CompletionOptions.DisableDefaultCmd = true

	cmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "config file path (default: ./pinch.yml, then the user config dir)")
	cmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	cmd.AddCommand(newFetchCmd(a), newVersionCmd())
	return cmd
}

// setup loads configuration, initializes logging and, when enabled,
// OTLP tracing and metrics.
func (a *app) setup(ctx context.Context) error {
	cfg, err := loadConfig(a.configPath)
	if err != nil {
		return err
	}
	if a.verbose {
		cfg.Logging.Level = "debug"
	}
	if !term.IsTerminal(int(os.Stderr.Fd())) {
		cfg.Logging.NoColor = true
	}
	logger.Init(cfg.Logging)
	cfg.registerComponentLoggers()
	a.cfg = cfg

	if !cfg.Observability.Enabled {
		return nil
	}

	tc := observability.DefaultTracerConfig(cfg.Name)
	tc.ServiceVersion = version.Short()
	tc.Environment = cfg.Environment
	tc.Endpoint = cfg.Observability.Endpoint
	tc.Insecure = cfg.Observability.Insecure
	tc.SampleRate = cfg.Observability.SampleRate
	tp, err := observability.InitTracer(ctx, tc)
	if err != nil {
		return err
	}
	a.shutdown = append(a.shutdown, tp.Shutdown)

	mc := observability.DefaultMeterConfig(cfg.Name)
	mc.ServiceVersion = tc.ServiceVersion
	mc.Environment = tc.Environment
	mc.Endpoint = tc.Endpoint
	mc.Insecure = tc.Insecure
	mp, err := observability.InitMeter(ctx, mc)
	if err != nil {
		return err
	}
	a.shutdown = append(a.shutdown, mp.Shutdown)

	a.metrics, err = observability.NewMetrics(observability.Meter(serviceName))
	return err
}

// teardown flushes exporters in reverse order of creation.
func (a *app) teardown(ctx context.Context) error {
	var errs []error
	for i := len(a.shutdown) - 1; i >= 0; i-- {
		if err := a.shutdown[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.shutdown = nil
	return errors.Join(errs...)
}
