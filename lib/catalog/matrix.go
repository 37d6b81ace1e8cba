package catalog

import (
	"context"
	"log/slog"
)

// Group is one level of the nested variant grouping. Interior levels
// key children by the next dimension's value id; leaves hold the
// record itself.
type Group struct {
	Children map[string]*Group
	Record   *VariantRecord
}

// Matrix is the complete selection-state of one product: every
// combination mapped to its variant record. Flat preserves
// combination generation order, the canonical order for output,
// independent of fetch completion order.
type Matrix struct {
	Product Product
	Flat    []VariantRecord
	Tree    *Group
}

// Aggregator folds per-combination records into a Matrix under
// single-writer discipline: it is not safe for concurrent use, the
// pipeline hands it completed records one at a time.
type Aggregator struct {
	product Product
	combos  []Combination
	flat    []VariantRecord
	seen    map[string]bool
	tree    *Group
}

func NewAggregator(product Product, combos []Combination) *Aggregator {
	return &Aggregator{
		product: product,
		combos:  combos,
		flat:    make([]VariantRecord, len(combos)),
		seen:    make(map[string]bool, len(combos)),
		tree:    &Group{Children: map[string]*Group{}},
	}
}

// Add stores the record for the combination at generation index i.
// A duplicate key keeps the latest write and logs a warning instead
// of failing; the generator makes duplicates structurally impossible
// so this should never fire.
func (a *Aggregator) Add(ctx context.Context, i int, rec VariantRecord) {
	combo := a.combos[i]
	key := combo.Key()
	if a.seen[key] {
		slog.WarnContext(
			ctx, "duplicate combination key, keeping latest write",
			"product", a.product.Id,
			"key", key,
		)
	}
	a.seen[key] = true
	a.flat[i] = rec

	group := a.tree
	for _, sel := range combo {
		child := group.Children[sel.Value.Id]
		if child == nil {
			child = &Group{Children: map[string]*Group{}}
			group.Children[sel.Value.Id] = child
		}
		group = child
	}
	leaf := rec
	group.Record = &leaf
}

func (a *Aggregator) Finish() Matrix {
	return Matrix{
		Product: a.product,
		Flat:    a.flat,
		Tree:    a.tree,
	}
}
