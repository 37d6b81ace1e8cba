// Package collector drives variant collection across a batch of
// items: per item it discovers dimensions, enumerates combinations,
// fetches every combination's state under a bounded concurrency
// budget, aggregates the matrix, and appends the result to the sinks
// before moving on. One item's failure never aborts the batch.
package collector

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"skumatrix/lib/catalog"
	"skumatrix/lib/pool"
	"skumatrix/lib/sources"
	"skumatrix/services/collector/db"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/collector")

type Service struct {
	source    sources.Source
	cfg       Config
	runId     string
	summaries *SummarySink
	rows      *RowSink
	// nil disables the record store
	store *db.Store

	// item workers settle concurrently, appends stay whole-item atomic
	sinkMu sync.Mutex
}

func NewService(source sources.Source, cfg Config, summaries *SummarySink, rows *RowSink, store *db.Store) *Service {
	return &Service{
		source:    source,
		cfg:       cfg,
		runId:     uuid.NewString(),
		summaries: summaries,
		rows:      rows,
		store:     store,
	}
}

func (s *Service) RunId() string {
	return s.runId
}

// BatchResult is the final tally over the whole run.
type BatchResult struct {
	Summaries []ItemSummary
	Succeeded int
	Failed    int
	Skipped   int
	Rows      int
}

// Run processes every item. Cancelling ctx stops dispatching new
// items; the items already in flight settle and are persisted.
func (s *Service) Run(ctx context.Context, items []BatchItem) BatchResult {
	ctx, span := tracer.Start(ctx, "Run")
	defer span.End()
	span.SetAttributes(
		attribute.String("run_id", s.runId),
		attribute.Int("items", len(items)),
	)

	tasks := make([]pool.Task[itemOutcome], len(items))
	for i, item := range items {
		item := item
		tasks[i] = func(ctx context.Context) (itemOutcome, error) {
			return s.processItem(ctx, item), nil
		}
	}

	results := pool.Run(ctx, s.cfg.ItemWorkers, tasks)

	var out BatchResult
	for i, res := range results {
		outcome := res.Value
		if res.Err != nil {
			// never dispatched: the batch was cancelled first
			outcome = itemOutcome{
				summary: ItemSummary{
					RunId:       s.runId,
					ExternalId:  items[i].ExternalId,
					Locator:     items[i].Locator,
					CompletedAt: time.Now().UTC(),
					Error:       res.Err.Error(),
				},
				kind: outcomeSkipped,
			}
		}

		out.Summaries = append(out.Summaries, outcome.summary)
		out.Rows += outcome.rows
		switch outcome.kind {
		case outcomeSucceeded:
			out.Succeeded++
		case outcomeFailed:
			out.Failed++
		case outcomeSkipped:
			out.Skipped++
		}
	}

	slog.InfoContext(
		ctx, "batch finished",
		"run_id", s.runId,
		"succeeded", out.Succeeded,
		"failed", out.Failed,
		"skipped", out.Skipped,
		"rows", out.Rows,
	)
	return out
}

type outcomeKind int

const (
	outcomeSucceeded outcomeKind = iota
	outcomeFailed
	outcomeSkipped
)

type itemOutcome struct {
	summary ItemSummary
	rows    int
	kind    outcomeKind
}

// processItem runs the full pipeline for one item and persists its
// outcome. Every failure mode is folded into the summary so the
// batch always proceeds.
func (s *Service) processItem(ctx context.Context, item BatchItem) itemOutcome {
	ctx, span := tracer.Start(ctx, "processItem")
	defer span.End()
	span.SetAttributes(
		attribute.String("sku", item.ExternalId),
		attribute.String("url", item.Locator),
	)

	summary := ItemSummary{
		RunId:      s.runId,
		ExternalId: item.ExternalId,
		Locator:    item.Locator,
	}

	itemId, err := s.source.ResolveItemId(item.Locator)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "unresolved item id")
		slog.WarnContext(ctx, "skipping item, locator unresolved", "sku", item.ExternalId, "url", item.Locator)

		summary.Error = err.Error()
		summary.CompletedAt = time.Now().UTC()
		s.persist(ctx, summary, nil)
		return itemOutcome{summary: summary, kind: outcomeSkipped}
	}
	summary.ItemId = itemId

	matrix, err := s.collect(ctx, itemId)
	summary.CompletedAt = time.Now().UTC()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "item pipeline failed")
		slog.ErrorContext(ctx, "item failed", "sku", item.ExternalId, "item_id", itemId, "err", err)

		summary.Error = err.Error()
		s.persist(ctx, summary, nil)
		return itemOutcome{summary: summary, kind: outcomeFailed}
	}

	summary.Brand = matrix.Product.Brand
	summary.Name = matrix.Product.Name
	summary.Combinations = len(matrix.Flat)

	s.persist(ctx, summary, matrix.Flat)
	return itemOutcome{summary: summary, rows: len(matrix.Flat), kind: outcomeSucceeded}
}

// collect runs discovery, enumeration, the pooled fetch, and
// aggregation for one resolved item.
func (s *Service) collect(ctx context.Context, itemId string) (catalog.Matrix, error) {
	product, err := s.source.Discover(ctx, itemId)
	if err != nil {
		return catalog.Matrix{}, err
	}

	combos := catalog.Combinations(product.Dimensions)
	if s.cfg.MaxCombinations > 0 && len(combos) > s.cfg.MaxCombinations {
		slog.WarnContext(
			ctx, "combination ceiling hit, truncating",
			"item_id", itemId,
			"combinations", len(combos),
			"ceiling", s.cfg.MaxCombinations,
		)
		combos = combos[:s.cfg.MaxCombinations]
	}

	workers := s.cfg.CombinationWorkers
	if max := s.source.MaxParallel(); max > 0 && workers > max {
		workers = max
	}

	tasks := make([]pool.Task[catalog.VariantRecord], len(combos))
	for i, combo := range combos {
		combo := combo
		tasks[i] = func(ctx context.Context) (catalog.VariantRecord, error) {
			return s.source.FetchVariant(ctx, product, combo)
		}
	}
	results := pool.Run(ctx, workers, tasks)

	agg := catalog.NewAggregator(product, combos)
	for i, res := range results {
		rec := res.Value
		if res.Err != nil {
			// captured in the record, not thrown: aggregation always
			// reaches completion for the item
			rec = catalog.VariantRecord{Combination: combos[i], Err: res.Err}
		}
		agg.Add(ctx, i, rec)
	}

	return agg.Finish(), nil
}

// persist appends one settled item to every sink before the next
// item's appends may start. This bounds crash loss to the single
// item in flight.
func (s *Service) persist(ctx context.Context, summary ItemSummary, records []catalog.VariantRecord) {
	s.sinkMu.Lock()
	defer s.sinkMu.Unlock()

	var errlist []error
	if s.summaries != nil {
		errlist = append(errlist, s.summaries.Append(summary))
	}
	if s.rows != nil && len(records) > 0 {
		errlist = append(errlist, s.rows.Append(summary, records))
	}
	if s.store != nil {
		errlist = append(errlist, s.recordToStore(ctx, summary, records))
	}

	err := errors.Join(errlist...)
	if err != nil {
		slog.ErrorContext(
			ctx, "failed to persist item",
			"sku", summary.ExternalId,
			"item_id", summary.ItemId,
			"err", err,
		)
	}
}

func (s *Service) recordToStore(ctx context.Context, summary ItemSummary, records []catalog.VariantRecord) error {
	variants := make([]db.VariantRow, 0, len(records))
	for _, rec := range records {
		row := db.VariantRow{
			RunId:          s.runId,
			ItemId:         summary.ItemId,
			CombinationKey: rec.Combination.Key(),
		}
		if rec.Err != nil {
			row.Error = rec.Err.Error()
		} else {
			row.VariantSku = rec.Sku
			row.Upc = rec.Upc
			row.Availability = rec.Availability.Kind
			row.AvailabilityLbl = rec.Availability.Label
			row.Purchasable = rec.Availability.Purchasable
			row.NotifyMe = rec.Availability.NotifyMe
			row.SalePrice = rec.Price.Sale
			row.ListPrice = rec.Price.List
			row.Discount = rec.Price.Discount
			row.Currency = rec.Price.Currency
		}
		variants = append(variants, row)
	}

	return s.store.RecordItem(ctx, db.ItemRow{
		RunId:        s.runId,
		Sku:          summary.ExternalId,
		Url:          summary.Locator,
		ItemId:       summary.ItemId,
		Brand:        summary.Brand,
		Name:         summary.Name,
		Combinations: summary.Combinations,
		CompletedAt:  summary.CompletedAt.Unix(),
		Error:        summary.Error,
	}, variants)
}
