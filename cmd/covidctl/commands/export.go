package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"covidsignal/internal/modkit/module"
	perr "covidsignal/internal/platform/errors"
	"covidsignal/internal/services/covid/domain"
	covidmod "covidsignal/internal/services/covid/module"
)

var (
	exportPG   bool
	exportCH   bool
	exportFile string
	exportS3   bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Load the payload and write it to the selected targets",
	Long: `Load the payload once and write the resulting signal to each selected target
in order, stopping at the first failure:

  --pg     postgres tables signal_loads, signal_edges, signal_steps
  --ch     clickhouse table signal_observations, one row per day and node
  --file   a msgpack bundle on local disk
  --s3     a msgpack bundle under SERVICE_S3_PREFIX/<load id>.msgpack`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if !exportPG && !exportCH && !exportS3 && exportFile == "" {
			return perr.InvalidArgf("choose at least one of --pg, --ch, --file, --s3")
		}
		ctx := cmd.Context()
		a, err := newApp(ctx, cmd, exportPG || exportCH, func(o *covidmod.Options) {
			if exportFile != "" {
				o.BundlePath = exportFile
			}
		})
		if err != nil {
			return err
		}
		defer a.Close()

		exp, err := a.covid.Exporter(covidmod.Targets{
			PG:   exportPG,
			CH:   exportCH,
			File: exportFile != "",
			S3:   exportS3,
		})
		if err != nil {
			return err
		}
		if err := a.covid.Load(ctx); err != nil {
			return err
		}
		ds := module.MustPortsOf[domain.DatasetPort](a.covid)
		if err := exp.Export(ctx, ds); err != nil {
			return err
		}
		sum, _ := ds.Summary()
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "exported load %s to %s\n", sum.LoadID, strings.Join(exp.Sinks(), ", "))
		return err
	},
}

func init() {
	f := exportCmd.Flags()
	f.BoolVar(&exportPG, "pg", false, "export to postgres (SERVICE_PGSQL_DBURL)")
	f.BoolVar(&exportCH, "ch", false, "export to clickhouse (SERVICE_CLICKHOUSE_DBURL)")
	f.StringVar(&exportFile, "file", "", "write a msgpack bundle to this path")
	f.BoolVar(&exportS3, "s3", false, "upload a msgpack bundle (SERVICE_S3_*)")
}
