package collector

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"skumatrix/lib/catalog"
	"skumatrix/lib/sqliteutil"
	"skumatrix/lib/telemetry"
	"skumatrix/services/collector/db"

	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	resolve     func(locator string) (string, error)
	discover    func(ctx context.Context, itemId string) (catalog.Product, error)
	fetch       func(ctx context.Context, product catalog.Product, combo catalog.Combination) (catalog.VariantRecord, error)
	maxParallel int
}

func (f *fakeSource) ResolveItemId(locator string) (string, error) {
	return f.resolve(locator)
}

func (f *fakeSource) Discover(ctx context.Context, itemId string) (catalog.Product, error) {
	return f.discover(ctx, itemId)
}

func (f *fakeSource) FetchVariant(ctx context.Context, product catalog.Product, combo catalog.Combination) (catalog.VariantRecord, error) {
	return f.fetch(ctx, product, combo)
}

func (f *fakeSource) MaxParallel() int {
	return f.maxParallel
}

func product2x2(itemId string) catalog.Product {
	return catalog.Product{
		Id:    itemId,
		Name:  "Crewneck Tee",
		Brand: "Northbound",
		Dimensions: []catalog.Dimension{
			{Id: "color", Name: "Color", Values: []catalog.Value{
				{Id: "BLK", Label: "Black"}, {Id: "WHT", Label: "White"},
			}},
			{Id: "size", Name: "Size", Values: []catalog.Value{
				{Id: "S", Label: "Small"}, {Id: "M", Label: "Medium"},
			}},
		},
	}
}

func happySource() *fakeSource {
	return &fakeSource{
		resolve: func(locator string) (string, error) {
			if locator == "bogus" {
				return "", catalog.UnresolvedIdError{Locator: locator}
			}
			return "P-" + locator, nil
		},
		discover: func(ctx context.Context, itemId string) (catalog.Product, error) {
			return product2x2(itemId), nil
		},
		fetch: func(ctx context.Context, product catalog.Product, combo catalog.Combination) (catalog.VariantRecord, error) {
			return catalog.VariantRecord{
				Combination: combo,
				Sku:         product.Id + "-" + combo.Key(),
				Price:       catalog.Price{Sale: 19.99, Currency: "USD"},
			}, nil
		},
	}
}

type testEnv struct {
	service *Service
	summary string
	rows    string
	store   *db.Store
}

func setupService(t *testing.T, source *fakeSource, cfg Config) testEnv {
	t.Helper()
	cleanup := telemetry.SetupForTesting("test:services/collector")
	t.Cleanup(cleanup)

	dir := t.TempDir()
	cfg = cfg.WithDefaults()
	cfg.Output.Summary = filepath.Join(dir, "summaries.jsonl")
	cfg.Output.Rows = filepath.Join(dir, "variants.csv")

	summaries, err := NewSummarySink(cfg.Output.Summary)
	require.NoError(t, err)
	t.Cleanup(func() { summaries.Close() })

	rows, err := NewRowSink(cfg.Output.Rows, cfg.Dimensions)
	require.NoError(t, err)
	t.Cleanup(func() { rows.Close() })

	database, err := sqliteutil.OpenDB(db.Schema, filepath.Join(dir, "results.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	store := db.New(database)

	return testEnv{
		service: NewService(source, cfg, summaries, rows, store),
		summary: cfg.Output.Summary,
		rows:    cfg.Output.Rows,
		store:   store,
	}
}

func readCsvRows(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestBatchRun(t *testing.T) {
	source := happySource()
	source.discover = func(ctx context.Context, itemId string) (catalog.Product, error) {
		if itemId == "P-gone" {
			return catalog.Product{}, catalog.NotFoundError{ItemId: itemId, Reason: "no variation attributes"}
		}
		return product2x2(itemId), nil
	}

	env := setupService(t, source, Config{})
	result := env.service.Run(context.Background(), []BatchItem{
		{ExternalId: "A-100", Locator: "a"},
		{ExternalId: "SKIP", Locator: "bogus"},
		{ExternalId: "B-200", Locator: "gone"},
	})

	require.Equal(t, 1, result.Succeeded)
	require.Equal(t, 1, result.Failed)
	require.Equal(t, 1, result.Skipped)
	require.Equal(t, 4, result.Rows)
	require.Len(t, result.Summaries, 3)

	// one summary per item, settled or not
	contents, err := os.ReadFile(env.summary)
	require.NoError(t, err)
	require.Len(t, splitLines(t, contents), 3)

	// tabular rows only for the item that produced a matrix
	rows := readCsvRows(t, env.rows)
	require.Len(t, rows, 5)

	// the store mirrors both sinks
	items, err := env.store.CountItems(context.Background(), env.service.RunId())
	require.NoError(t, err)
	require.Equal(t, 3, items)
	variants, err := env.store.CountVariants(context.Background(), env.service.RunId())
	require.NoError(t, err)
	require.Equal(t, 4, variants)
}

func TestFetchFailuresBecomeErrorRows(t *testing.T) {
	source := happySource()
	source.fetch = func(ctx context.Context, product catalog.Product, combo catalog.Combination) (catalog.VariantRecord, error) {
		if combo.Key() == "WHT/M" {
			return catalog.VariantRecord{}, catalog.NetworkError{
				Url: "https://x", Attempts: 4, Err: fmt.Errorf("connection reset"),
			}
		}
		return catalog.VariantRecord{Combination: combo, Sku: combo.Key()}, nil
	}

	env := setupService(t, source, Config{})
	result := env.service.Run(context.Background(), []BatchItem{
		{ExternalId: "A-100", Locator: "a"},
	})

	// no silent drops: the failed combination still yields a row
	require.Equal(t, 1, result.Succeeded)
	require.Equal(t, 4, result.Rows)

	rows := readCsvRows(t, env.rows)
	require.Len(t, rows, 5)
	last := rows[4]
	require.Equal(t, "WHT", last[5])
	require.Equal(t, "M", last[7])
	require.Contains(t, last[len(last)-1], "connection reset")
}

func TestCombinationCeilingTruncates(t *testing.T) {
	env := setupService(t, happySource(), Config{MaxCombinations: 3})
	result := env.service.Run(context.Background(), []BatchItem{
		{ExternalId: "A-100", Locator: "a"},
	})

	require.Equal(t, 3, result.Rows)
	require.Len(t, readCsvRows(t, env.rows), 4)
}

func TestSourceMaxParallelCapsInnerWorkers(t *testing.T) {
	var inFlight atomic.Int64
	var peak atomic.Int64

	source := happySource()
	source.maxParallel = 1
	source.fetch = func(ctx context.Context, product catalog.Product, combo catalog.Combination) (catalog.VariantRecord, error) {
		current := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			observed := peak.Load()
			if current <= observed || peak.CompareAndSwap(observed, current) {
				break
			}
		}
		return catalog.VariantRecord{Combination: combo, Sku: combo.Key()}, nil
	}

	env := setupService(t, source, Config{CombinationWorkers: 8})
	env.service.Run(context.Background(), []BatchItem{{ExternalId: "A-100", Locator: "a"}})

	require.Equal(t, int64(1), peak.Load())
}

func TestCancelBetweenItemsBoundsLoss(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	source := happySource()
	discovered := 0
	source.discover = func(_ context.Context, itemId string) (catalog.Product, error) {
		discovered++
		if discovered == 2 {
			// the batch is torn down while item 2 is in flight
			cancel()
		}
		return product2x2(itemId), nil
	}

	env := setupService(t, source, Config{ItemWorkers: 1})
	result := env.service.Run(ctx, []BatchItem{
		{ExternalId: "I1", Locator: "one"},
		{ExternalId: "I2", Locator: "two"},
		{ExternalId: "I3", Locator: "three"},
		{ExternalId: "I4", Locator: "four"},
		{ExternalId: "I5", Locator: "five"},
	})

	// the in-flight item settled normally, the rest were never dispatched
	require.Equal(t, 2, result.Succeeded)
	require.Equal(t, 3, result.Skipped)
	require.Equal(t, 8, result.Rows)

	// both sinks hold complete entries for exactly items 1 and 2
	contents, err := os.ReadFile(env.summary)
	require.NoError(t, err)
	lines := splitLines(t, contents)
	require.Len(t, lines, 2)

	rows := readCsvRows(t, env.rows)
	require.Len(t, rows, 9)
	for _, row := range rows[1:] {
		require.Contains(t, []string{"I1", "I2"}, row[0])
	}

	items, err := env.store.CountItems(context.Background(), env.service.RunId())
	require.NoError(t, err)
	require.Equal(t, 2, items)
}
