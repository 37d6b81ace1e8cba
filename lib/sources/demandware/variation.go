package demandware

import (
	"context"
	"encoding/json"
	"fmt"

	"skumatrix/lib/catalog"
	"skumatrix/lib/sources"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("sources/demandware")

func (c *Client) ResolveItemId(locator string) (string, error) {
	return sources.ResolveProductUrl(locator)
}

// variation performs one logical call against the variation endpoint.
// Transport errors and non-success statuses are retried by the
// client's retry policy; only after the full attempt budget is spent
// does this return a terminal NetworkError. A malformed body is a
// ParseError and is never retried.
func (c *Client) variation(ctx context.Context, itemId string, combo catalog.Combination) (*productPayload, error) {
	req := c.http.R().
		SetContext(ctx).
		SetQueryParam("pid", itemId).
		SetQueryParam("quantity", "1")

	for _, sel := range combo {
		// a placeholder selection means the item type has no such
		// dimension, so there is nothing to select on the wire
		if sel.Value.Id == catalog.PlaceholderValueId {
			continue
		}
		req.SetQueryParam(
			fmt.Sprintf("dwvar_%s_%s", itemId, sel.Dimension),
			sel.Value.Id,
		)
	}

	res, err := req.Get(c.opts.VariationPath)
	if err != nil {
		return nil, catalog.NetworkError{
			Url:      res.Request.URL,
			Attempts: res.Request.Attempt,
			Err:      err,
		}
	}
	if !res.IsSuccess() {
		return nil, catalog.NetworkError{
			Url:      res.Request.URL,
			Attempts: res.Request.Attempt,
			Err:      fmt.Errorf("status %s", res.Status()),
		}
	}

	var payload variationPayload
	err = json.Unmarshal(res.Body(), &payload)
	if err != nil {
		return nil, catalog.ParseError{Url: res.Request.URL, Err: err}
	}
	if payload.Product == nil {
		return nil, catalog.ParseError{
			Url: res.Request.URL,
			Err: fmt.Errorf("payload has no product object"),
		}
	}

	return payload.Product, nil
}

func (c *Client) Discover(ctx context.Context, itemId string) (catalog.Product, error) {
	ctx, span := tracer.Start(ctx, "Discover")
	defer span.End()

	payload, err := c.variation(ctx, itemId, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "base attributes query failed")
		return catalog.Product{}, err
	}

	natural := map[string]catalog.Dimension{}
	var order []string
	for _, attr := range payload.VariationAttributes {
		dim := catalog.Dimension{Id: attr.AttributeId, Name: attr.DisplayName}
		for _, v := range attr.Values {
			if !v.Selectable {
				continue
			}
			dim.Values = append(dim.Values, catalog.Value{
				Id:         v.Id,
				Label:      v.DisplayValue,
				Selectable: true,
				ImageUrl:   v.ImageUrl,
			})
		}
		natural[dim.Id] = dim
		order = append(order, dim.Id)
	}

	if len(natural) == 0 {
		err := catalog.NotFoundError{ItemId: itemId, Reason: "no variation attributes"}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return catalog.Product{}, err
	}
	if len(natural[order[0]].Values) == 0 {
		err := catalog.NotFoundError{
			ItemId: itemId,
			Reason: fmt.Sprintf("dimension %q has no selectable values", order[0]),
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return catalog.Product{}, err
	}

	dims := sources.AssembleDimensions(ctx, itemId, c.opts.Dimensions, natural, order)

	return catalog.Product{
		Id:         itemId,
		Name:       payload.ProductName,
		Brand:      payload.Brand,
		Dimensions: dims,
	}, nil
}

func (c *Client) FetchVariant(ctx context.Context, product catalog.Product, combo catalog.Combination) (catalog.VariantRecord, error) {
	ctx, span := tracer.Start(ctx, "FetchVariant")
	defer span.End()

	payload, err := c.variation(ctx, product.Id, combo)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "variant fetch failed")
		return catalog.VariantRecord{}, err
	}

	rec := catalog.VariantRecord{
		Combination: combo,
		Sku:         payload.Id,
		Upc:         payload.Upc,
		Availability: catalog.Availability{
			Purchasable: payload.Available && payload.ReadyToOrder,
			NotifyMe:    payload.NotifyMe,
		},
	}
	if payload.Availability != nil {
		rec.Availability.Kind = payload.Availability.Status
		if len(payload.Availability.Messages) > 0 {
			rec.Availability.Label = payload.Availability.Messages[0]
		}
	}
	if payload.Price != nil {
		rec.Price.Discount = payload.Price.Discount
		if payload.Price.Sales != nil {
			rec.Price.Sale = payload.Price.Sales.Value
			rec.Price.Currency = payload.Price.Sales.Currency
		}
		if payload.Price.List != nil {
			rec.Price.List = payload.Price.List.Value
			if rec.Price.Currency == "" {
				rec.Price.Currency = payload.Price.List.Currency
			}
		}
	}

	return rec, nil
}
