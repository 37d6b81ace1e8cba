package sources

import (
	"context"
	"log/slog"

	"skumatrix/lib/catalog"
)

// AssembleDimensions orders the naturally discovered dimensions for
// output. When `expected` is non-empty it dictates the order, and an
// expected dimension the item type lacks (or that has no selectable
// values) is synthesized as a single placeholder value so every
// product keeps a uniform combination shape. With no expectation the
// natural discovery order is kept as-is.
func AssembleDimensions(
	ctx context.Context,
	itemId string,
	expected []string,
	natural map[string]catalog.Dimension,
	naturalOrder []string,
) []catalog.Dimension {
	if len(expected) == 0 {
		out := make([]catalog.Dimension, 0, len(naturalOrder))
		for _, id := range naturalOrder {
			out = append(out, natural[id])
		}
		return out
	}

	out := make([]catalog.Dimension, 0, len(expected))
	for _, id := range expected {
		dim, ok := natural[id]
		if !ok || len(dim.Values) == 0 {
			slog.DebugContext(
				ctx, "dimension absent for item, synthesizing placeholder",
				"item", itemId,
				"dimension", id,
			)
			out = append(out, catalog.Dimension{
				Id:     id,
				Name:   id,
				Values: []catalog.Value{catalog.PlaceholderValue()},
			})
			continue
		}
		out = append(out, dim)
	}
	return out
}
