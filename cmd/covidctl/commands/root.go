// Package commands holds the covidctl command tree
package commands

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"covidsignal/internal/core/version"
	"covidsignal/internal/modkit"
	"covidsignal/internal/platform/config"
	"covidsignal/internal/platform/logger"
	"covidsignal/internal/platform/store"
	covidmod "covidsignal/internal/services/covid/module"
)

var (
	// global flags
	sourceURL string
	cacheDir  string
	timeout   time.Duration
	envFiles  []string
	verbose   bool
)

var rootCmd = &cobra.Command{
	Use:   "covidctl",
	Short: "Load the COVID spatiotemporal dataset as a static graph temporal signal",
	Long: `covidctl fetches the COVID spatiotemporal JSON payload and shapes it into an
edge index, unit edge weights and per-day node features and targets.

Configuration comes from the environment (CORE_COVID_*, SERVICE_PGSQL_*,
SERVICE_CLICKHOUSE_*, SERVICE_S3_*, CORE_API_*); .env files are read first.

Examples:
  # print the shape of the published dataset
  covidctl summary

  # cache the payload on disk and export it to postgres and a local bundle
  covidctl --cache-dir ~/.cache/covid export --pg --file covid.msgpack

  # serve the HTTP API
  covidctl serve
`,
	Version:       version.Info().Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(*cobra.Command, []string) error {
		if err := config.LoadDotenv(envFiles...); err != nil {
			return err
		}
		opt := logger.FromEnv()
		opt.Component = "covidctl"
		if verbose {
			opt.Level = "debug"
		}
		logger.Init(opt)
		return nil
	},
}

// Execute runs the command tree
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&sourceURL, "source", "", "payload location: http(s)://, s3://bucket/key or file:// (default CORE_COVID_SOURCE_URL)")
	pf.StringVar(&cacheDir, "cache-dir", "", "cache the payload on disk under this directory (default CORE_COVID_CACHE_DIR)")
	pf.DurationVar(&timeout, "timeout", 0, "HTTP fetch timeout, 0 means none (default CORE_COVID_HTTP_TIMEOUT)")
	pf.StringSliceVar(&envFiles, "env-file", nil, "dotenv files to load (default .env)")
	pf.BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(serveCmd)
}

// app is the wiring shared by every command
type app struct {
	cfg   config.Conf
	log   *logger.Logger
	deps  modkit.Deps
	store *store.Store
	covid *covidmod.Module
}

// newApp reads the module options, applies flag overrides and optionally
// opens the configured backends. It performs no fetch
func newApp(ctx context.Context, cmd *cobra.Command, withStore bool, tune func(*covidmod.Options)) (*app, error) {
	cfg := config.New()
	log := logger.Named("covidctl")

	o := covidmod.FromConfig(cfg)
	if sourceURL != "" {
		o.Source = sourceURL
	}
	if cacheDir != "" {
		o.CacheDir = cacheDir
	}
	if cmd.Flags().Changed("timeout") {
		o.HTTPTimeout = timeout
	}
	if tune != nil {
		tune(&o)
	}

	a := &app{cfg: cfg, log: log}
	if withStore {
		st, err := store.Open(ctx, store.ConfigFromEnv(version.Service), store.WithLogger(*log))
		if err != nil {
			return nil, err
		}
		a.store = st
	}
	a.deps = modkit.FromStore(cfg, *log, a.store)

	m, err := covidmod.New(a.deps, o)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.covid = m
	return a, nil
}

// Close releases the backends
func (a *app) Close() {
	if a.store == nil {
		return
	}
	if err := a.store.Close(context.Background()); err != nil {
		a.log.Error().Err(err).Msg("close store")
	}
}
