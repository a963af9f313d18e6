package commands

import (
	"io"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"covidsignal/internal/modkit/module"
	"covidsignal/internal/services/covid/domain"
)

var summaryJSON bool

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Load the payload and print its shape",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx, cmd, false, nil)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.covid.Load(ctx); err != nil {
			return err
		}
		ds := module.MustPortsOf[domain.DatasetPort](a.covid)
		out, err := datasetOutput(ds)
		if err != nil {
			return err
		}
		if summaryJSON {
			return writeJSON(cmd.OutOrStdout(), out)
		}
		printSummary(cmd.OutOrStdout(), out)
		return nil
	},
}

func init() {
	summaryCmd.Flags().BoolVar(&summaryJSON, "json", false, "print JSON")
}

func datasetOutput(ds domain.DatasetPort) (domain.DatasetOutput, error) {
	sum, sig, err := ds.Current()
	if err != nil {
		return domain.DatasetOutput{}, err
	}
	return domain.DatasetOutput{Load: sum, Shape: sig.Summary()}, nil
}

func writeJSON(w io.Writer, v any) error {
	b, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = w.Write(append(b, '\n'))
	return err
}

func printSummary(w io.Writer, out domain.DatasetOutput) {
	p := message.NewPrinter(language.English)
	p.Fprintf(w, "load      %s\n", out.Load.LoadID)
	p.Fprintf(w, "source    %s\n", out.Load.Source)
	p.Fprintf(w, "bytes     %d\n", out.Load.Bytes)
	p.Fprintf(w, "steps     %d\n", out.Shape.Steps)
	p.Fprintf(w, "nodes     %d\n", out.Shape.Nodes)
	p.Fprintf(w, "edges     %d\n", out.Shape.Edges)
	p.Fprintf(w, "features  %d\n", out.Shape.Features)
}
