// Package sources defines the capability a shop backend must provide
// for variant collection: resolving an item id from a locator,
// discovering the item's selection dimensions, and fetching the
// state of one concrete combination.
package sources

import (
	"context"
	"net/url"
	"regexp"
	"strings"

	"skumatrix/lib/catalog"
)

type Source interface {
	// ResolveItemId parses a canonical product id out of an item
	// locator (usually a product page url).
	ResolveItemId(locator string) (string, error)

	// Discover resolves the item's selectable dimensions from a base
	// query with no selection applied.
	Discover(ctx context.Context, itemId string) (catalog.Product, error)

	// FetchVariant retrieves the state of exactly one combination.
	FetchVariant(ctx context.Context, product catalog.Product, combo catalog.Combination) (catalog.VariantRecord, error)

	// MaxParallel caps how many FetchVariant calls may overlap.
	// 0 means any configured limit is acceptable.
	MaxParallel() int
}

var pidPathRegex = regexp.MustCompile(`/([A-Za-z0-9_-]+)\.html`)

// ResolveProductUrl extracts a product id from the url forms the
// storefront links products under: an explicit ?pid= query
// parameter, or a trailing /<pid>.html path segment.
func ResolveProductUrl(locator string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(locator))
	if err != nil {
		return "", catalog.UnresolvedIdError{Locator: locator}
	}

	if pid := parsed.Query().Get("pid"); pid != "" {
		return pid, nil
	}

	groups := pidPathRegex.FindStringSubmatch(parsed.Path)
	if len(groups) == 2 {
		return groups[1], nil
	}

	return "", catalog.UnresolvedIdError{Locator: locator}
}
