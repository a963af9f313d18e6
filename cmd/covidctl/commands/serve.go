package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	phttp "covidsignal/internal/platform/net/http"
	"covidsignal/internal/services/api"
)

var serveLazy bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Load the payload and serve the HTTP API until interrupted",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx, cmd, true, nil)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.covid.Load(ctx); err != nil {
			if !serveLazy {
				return err
			}
			a.log.Warn().Err(err).Msg("initial load failed; POST /api/v1/dataset/reload to retry")
		}

		apiCfg := a.cfg.Prefix("CORE_API_")
		srv := phttp.NewServer(apiCfg)
		api.Mount(srv.Router(), api.Options{
			Deps:           a.deps,
			Covid:          a.covid,
			EnableProfiler: apiCfg.MayBool("PROFILER", false),
		})
		return srv.Run(ctx)
	},
}

func init() {
	serveCmd.Flags().BoolVar(&serveLazy, "lazy", false, "start even when the initial load fails")
}
