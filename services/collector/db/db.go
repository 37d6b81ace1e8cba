// Package db persists settled items to a sqlite record store, one
// transaction per item so a crash leaves no partial entries.
package db

import (
	"context"
	"database/sql"

	_ "embed"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var Schema string

type Store struct {
	db *sql.DB
}

func New(database *sql.DB) *Store {
	return &Store{db: database}
}

type ItemRow struct {
	RunId        string
	Sku          string
	Url          string
	ItemId       string
	Brand        string
	Name         string
	Combinations int
	CompletedAt  int64
	Error        string
}

type VariantRow struct {
	RunId           string
	ItemId          string
	CombinationKey  string
	VariantSku      string
	Upc             string
	Availability    string
	AvailabilityLbl string
	Purchasable     bool
	NotifyMe        bool
	SalePrice       float64
	ListPrice       float64
	Discount        float64
	Currency        string
	Error           string
}

// RecordItem writes one item's summary row and all of its variant
// rows atomically.
func (s *Store) RecordItem(ctx context.Context, item ItemRow, variants []VariantRow) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(
		ctx,
		`INSERT INTO items (run_id, sku, url, item_id, brand, name, combinations, completed_at, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.RunId, item.Sku, item.Url, item.ItemId, item.Brand, item.Name,
		item.Combinations, item.CompletedAt, item.Error,
	)
	if err != nil {
		return err
	}

	for _, v := range variants {
		_, err = tx.ExecContext(
			ctx,
			`INSERT INTO variants (run_id, item_id, combination_key, variant_sku, upc,
			                       availability, availability_label, purchasable, notify_me,
			                       sale_price, list_price, discount, currency, error)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			v.RunId, v.ItemId, v.CombinationKey, v.VariantSku, v.Upc,
			v.Availability, v.AvailabilityLbl, v.Purchasable, v.NotifyMe,
			v.SalePrice, v.ListPrice, v.Discount, v.Currency, v.Error,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *Store) CountItems(ctx context.Context, runId string) (int, error) {
	var count int
	err := s.db.QueryRowContext(
		ctx, `SELECT COUNT(*) FROM items WHERE run_id = ?`, runId,
	).Scan(&count)
	return count, err
}

func (s *Store) CountVariants(ctx context.Context, runId string) (int, error) {
	var count int
	err := s.db.QueryRowContext(
		ctx, `SELECT COUNT(*) FROM variants WHERE run_id = ?`, runId,
	).Scan(&count)
	return count, err
}
