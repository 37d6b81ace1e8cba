// Package catalog holds the selection-state data model: products,
// their selection dimensions, combinations of dimension values, and
// the per-combination variant state fetched from a shop.
package catalog

import "strings"

// PlaceholderValueId is the id of the value synthesized for a
// dimension the item type does not carry (e.g. no size attribute),
// so every product keeps a uniform combination shape.
const PlaceholderValueId = "NS"

type Value struct {
	Id    string
	Label string
	// optional hints from the discovery payload
	Selectable bool
	ImageUrl   string
}

func PlaceholderValue() Value {
	return Value{Id: PlaceholderValueId, Label: "not applicable", Selectable: true}
}

type Dimension struct {
	Id     string
	Name   string
	Values []Value
}

// Product is immutable once discovery completes.
type Product struct {
	Id         string
	Name       string
	Brand      string
	Dimensions []Dimension
}

// Selection is one chosen value along one dimension.
type Selection struct {
	Dimension string
	Value     Value
}

// Combination is a full selection, exactly one value per dimension,
// in dimension declaration order.
type Combination []Selection

// Key joins the selected value ids in dimension order, uniquely
// identifying the combination within its product.
func (c Combination) Key() string {
	ids := make([]string, len(c))
	for i, s := range c {
		ids[i] = s.Value.Id
	}
	return strings.Join(ids, "/")
}

type Price struct {
	Sale     float64
	List     float64
	Discount float64
	Currency string
}

type Availability struct {
	Kind        string
	Label       string
	Purchasable bool
	NotifyMe    bool
}

// VariantRecord is the fetched state for one combination. Exactly one
// exists per generated combination; a failed fetch carries its
// terminal error in Err instead of being dropped.
type VariantRecord struct {
	Combination  Combination
	Sku          string
	Upc          string
	Price        Price
	Availability Availability
	Err          error
}
