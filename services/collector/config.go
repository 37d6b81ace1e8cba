package collector

import (
	"fmt"
	"time"

	"skumatrix/lib/sources"
	"skumatrix/lib/sources/demandware"
	"skumatrix/lib/sources/storefront"
)

// Config is the one immutable configuration value threaded through
// the pipeline at construction. Nothing reads site or concurrency
// settings from process state after this point.
type Config struct {
	// "rest" or "storefront"
	Source  string `json:"source"`
	BaseUrl string `json:"base_url"`
	// dimension ids in output order, also the tabular sink's
	// per-dimension column set
	Dimensions []string `json:"dimensions"`

	// concurrency across items of the batch
	ItemWorkers int `json:"item_workers"`
	// concurrency across combinations within one item
	CombinationWorkers int `json:"combination_workers"`
	// ceiling on the combinations enumerated per item; the product
	// is truncated with a warning past this
	MaxCombinations int `json:"max_combinations"`

	RetryCount     int `json:"retry_count"`
	RetryBackoffMs int `json:"retry_backoff_ms"`
	TimeoutSeconds int `json:"timeout_seconds"`

	Output OutputConfig `json:"output"`
}

type OutputConfig struct {
	// structured append-only summary sink, one JSON line per item
	Summary string `json:"summary"`
	// tabular append-only sink, one CSV row per combination
	Rows string `json:"rows"`
	// optional sqlite record store
	Database string `json:"database"`
	// optional directory mirroring full wire messages for debugging
	DebugHttp string `json:"debug_http"`
}

func (c Config) WithDefaults() Config {
	if c.Source == "" {
		c.Source = "rest"
	}
	if len(c.Dimensions) == 0 {
		c.Dimensions = []string{"color", "size"}
	}
	if c.ItemWorkers == 0 {
		c.ItemWorkers = 2
	}
	if c.CombinationWorkers == 0 {
		c.CombinationWorkers = 8
	}
	if c.MaxCombinations == 0 {
		c.MaxCombinations = 500
	}
	if c.RetryCount == 0 {
		c.RetryCount = 3
	}
	if c.RetryBackoffMs == 0 {
		c.RetryBackoffMs = 1000
	}
	if c.TimeoutSeconds == 0 {
		c.TimeoutSeconds = 30
	}
	if c.Output.Summary == "" {
		c.Output.Summary = "summaries.jsonl"
	}
	if c.Output.Rows == "" {
		c.Output.Rows = "variants.csv"
	}
	return c
}

func (c Config) retryOptions() sources.RetryOptions {
	return sources.RetryOptions{
		Count:   c.RetryCount,
		Backoff: time.Duration(c.RetryBackoffMs) * time.Millisecond,
	}
}

// NewSource constructs the configured source implementation.
func NewSource(cfg Config) (sources.Source, error) {
	switch cfg.Source {
	case "rest":
		return demandware.NewClient(demandware.ClientOptions{
			BaseUrl:    cfg.BaseUrl,
			Dimensions: cfg.Dimensions,
			Timeout:    time.Duration(cfg.TimeoutSeconds) * time.Second,
			Retry:      cfg.retryOptions(),
		})
	case "storefront":
		return storefront.NewClient(storefront.ClientOptions{
			BaseUrl:    cfg.BaseUrl,
			Dimensions: cfg.Dimensions,
			Timeout:    time.Duration(cfg.TimeoutSeconds) * time.Second,
			Retry:      cfg.retryOptions(),
		})
	}
	return nil, fmt.Errorf("unknown source kind %q", cfg.Source)
}
