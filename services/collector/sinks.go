package collector

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"skumatrix/lib/catalog"
)

// ItemSummary is one record of the structured summary sink, appended
// immediately after its item settles.
type ItemSummary struct {
	RunId        string    `json:"run_id"`
	ExternalId   string    `json:"sku"`
	Locator      string    `json:"url"`
	ItemId       string    `json:"item_id"`
	Brand        string    `json:"brand"`
	Name         string    `json:"name"`
	Combinations int       `json:"combinations"`
	CompletedAt  time.Time `json:"completed_at"`
	Error        string    `json:"error,omitempty"`
}

// SummarySink appends one JSON line per item. Appends are synced so
// a crash loses at most the item that was in flight.
type SummarySink struct {
	file *os.File
}

func NewSummarySink(path string) (*SummarySink, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	return &SummarySink{file: f}, nil
}

func (s *SummarySink) Append(summary ItemSummary) error {
	line, err := json.Marshal(summary)
	if err != nil {
		return err
	}
	_, err = s.file.Write(append(line, '\n'))
	if err != nil {
		return err
	}
	return s.file.Sync()
}

func (s *SummarySink) Close() error {
	return s.file.Close()
}

// RowSink appends one CSV row per combination. The column set is
// fixed by the configured dimension list so it is stable across rows
// even when fields are absent; absent fields stay empty rather than
// being omitted.
type RowSink struct {
	file       *os.File
	csv        *csv.Writer
	dimensions []string
}

func NewRowSink(path string, dimensions []string) (*RowSink, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}

	sink := &RowSink{file: f, csv: csv.NewWriter(f), dimensions: dimensions}

	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if stat.Size() == 0 {
		err = sink.writeHeader()
		if err != nil {
			f.Close()
			return nil, err
		}
	}

	return sink, nil
}

func (s *RowSink) writeHeader() error {
	header := []string{"sku", "url", "item_id", "brand", "name"}
	for _, dim := range s.dimensions {
		header = append(header, dim+"_id", dim+"_name")
	}
	header = append(header,
		"variant_sku", "upc",
		"availability", "availability_label", "purchasable", "notify_me",
		"sale_price", "list_price", "discount", "currency",
		"error",
	)
	err := s.csv.Write(header)
	if err != nil {
		return err
	}
	s.csv.Flush()
	return s.csv.Error()
}

// Append writes every flat record of one settled item and syncs.
func (s *RowSink) Append(summary ItemSummary, records []catalog.VariantRecord) error {
	for _, rec := range records {
		err := s.csv.Write(s.row(summary, rec))
		if err != nil {
			return err
		}
	}
	s.csv.Flush()
	err := s.csv.Error()
	if err != nil {
		return err
	}
	return s.file.Sync()
}

func (s *RowSink) row(summary ItemSummary, rec catalog.VariantRecord) []string {
	row := []string{
		summary.ExternalId,
		summary.Locator,
		summary.ItemId,
		summary.Brand,
		summary.Name,
	}

	byDimension := map[string]catalog.Value{}
	for _, sel := range rec.Combination {
		byDimension[sel.Dimension] = sel.Value
	}
	for _, dim := range s.dimensions {
		value := byDimension[dim]
		row = append(row, value.Id, value.Label)
	}

	if rec.Err != nil {
		// absent variant fields stay empty, the error column carries
		// the diagnosis so rows are self-contained
		row = append(row,
			"", "",
			"", "", "", "",
			"", "", "", "",
			rec.Err.Error(),
		)
		return row
	}

	row = append(row,
		rec.Sku,
		rec.Upc,
		rec.Availability.Kind,
		rec.Availability.Label,
		strconv.FormatBool(rec.Availability.Purchasable),
		strconv.FormatBool(rec.Availability.NotifyMe),
		formatPrice(rec.Price.Sale),
		formatPrice(rec.Price.List),
		formatPrice(rec.Price.Discount),
		rec.Price.Currency,
		"",
	)
	return row
}

func (s *RowSink) Close() error {
	s.csv.Flush()
	err := s.csv.Error()
	if err != nil {
		s.file.Close()
		return err
	}
	return s.file.Close()
}

func formatPrice(v float64) string {
	if v == 0 {
		return ""
	}
	return fmt.Sprintf("%.2f", v)
}
