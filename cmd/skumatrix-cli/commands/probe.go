package commands

import (
	"fmt"
	"os"

	"skumatrix/lib/configutil"
	"skumatrix/lib/serviceutil"
	"skumatrix/services/collector"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(probeCmd)
}

var probeCmd = &cobra.Command{
	Use:   "probe <product url>",
	Short: "Discovers the selection dimensions of a single item, without fetching variants.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := configutil.ReadConfig[collector.Config]("skumatrix.json5")
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}
		cfg = cfg.WithDefaults()

		source, err := collector.NewSource(cfg)
		if err != nil {
			serviceutil.Fatal("failed to initialize source", err)
		}

		itemId, err := source.ResolveItemId(args[0])
		if err != nil {
			serviceutil.Fatal("failed to resolve item id", err)
		}

		product, err := source.Discover(cmd.Context(), itemId)
		if err != nil {
			serviceutil.Fatal("failed to discover dimensions", err)
		}

		fmt.Printf("%s: %s (%s)\n", product.Id, product.Name, product.Brand)

		t := table.NewWriter()
		t.SetStyle(table.StyleRounded)
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"dimension", "value id", "label"})
		for _, dim := range product.Dimensions {
			for _, v := range dim.Values {
				t.AppendRow(table.Row{dim.Name, v.Id, v.Label})
			}
		}
		t.Render()
	},
}
