package commands

import (
	"fmt"
	"os"
	"time"

	"skumatrix/lib/configutil"
	"skumatrix/lib/restyutil"
	"skumatrix/lib/serviceutil"
	"skumatrix/lib/sqliteutil"
	"skumatrix/services/collector"
	"skumatrix/services/collector/db"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var collectInput *string
var collectDebugHttp *string

func init() {
	collectInput = collectCmd.Flags().String("input", "items.csv", "The `sku,url` file listing the items to collect.")
	collectDebugHttp = collectCmd.Flags().String("debug-http", "", "Mirror every wire message to files in this directory.")
	rootCmd.AddCommand(collectCmd)
}

type instrumentable interface {
	SetInstrumentOutput(output restyutil.InstrumentOutput)
}

var collectCmd = &cobra.Command{
	Use:   "collect [--input <path/to/items.csv>]",
	Short: "Collects the variant matrix of every item in the input file.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := configutil.ReadConfig[collector.Config]("skumatrix.json5")
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}
		cfg = cfg.WithDefaults()
		if *collectDebugHttp != "" {
			cfg.Output.DebugHttp = *collectDebugHttp
		}

		items, err := collector.ReadItems(*collectInput)
		if err != nil {
			serviceutil.Fatal("failed to read input items", err)
		}

		source, err := collector.NewSource(cfg)
		if err != nil {
			serviceutil.Fatal("failed to initialize source", err)
		}
		if cfg.Output.DebugHttp != "" {
			if client, ok := source.(instrumentable); ok {
				client.SetInstrumentOutput(restyutil.NewFilesystemOutput(cfg.Output.DebugHttp))
			}
		}

		summaries, err := collector.NewSummarySink(cfg.Output.Summary)
		if err != nil {
			serviceutil.Fatal("failed to open summary sink", err)
		}
		defer summaries.Close()

		rows, err := collector.NewRowSink(cfg.Output.Rows, cfg.Dimensions)
		if err != nil {
			serviceutil.Fatal("failed to open row sink", err)
		}
		defer rows.Close()

		var store *db.Store
		if cfg.Output.Database != "" {
			database, err := sqliteutil.OpenDB(db.Schema, cfg.Output.Database)
			if err != nil {
				serviceutil.Fatal("failed to open record store", err)
			}
			defer database.Close()
			store = db.New(database)
		}

		service := collector.NewService(source, cfg, summaries, rows, store)

		t1 := time.Now()
		result := service.Run(cmd.Context(), items)
		t2 := time.Now()

		renderBatchResult(result)
		fmt.Printf(
			"\n%d ok, %d failed, %d skipped, %d rows in %.1fs\n",
			result.Succeeded, result.Failed, result.Skipped, result.Rows,
			t2.Sub(t1).Seconds(),
		)
	},
}

func renderBatchResult(result collector.BatchResult) {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)

	t.AppendHeader(table.Row{"sku", "item id", "name", "combinations", "error"})
	for _, s := range result.Summaries {
		t.AppendRow(table.Row{s.ExternalId, s.ItemId, s.Name, s.Combinations, s.Error})
	}
	t.Render()
}
