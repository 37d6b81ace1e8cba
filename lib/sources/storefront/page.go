package storefront

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"skumatrix/lib/catalog"
	"skumatrix/lib/htmlutil"
	"skumatrix/lib/sources"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("sources/storefront")

func (c *Client) Discover(ctx context.Context, itemId string) (catalog.Product, error) {
	ctx, span := tracer.Start(ctx, "Discover")
	defer span.End()

	c.mu.Lock()
	defer c.mu.Unlock()

	doc, err := c.getPage(ctx, map[string]string{"pid": itemId})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "product page fetch failed")
		return catalog.Product{}, err
	}

	detail := doc.Find(".product-detail").First()
	if detail.Length() == 0 {
		err := catalog.ParseError{
			Url: c.opts.ProductPath,
			Err: fmt.Errorf("page has no product detail section"),
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return catalog.Product{}, err
	}

	natural := map[string]catalog.Dimension{}
	var order []string
	detail.Find(".attribute[data-attr]").Each(func(_ int, attr *goquery.Selection) {
		id, _ := attr.Attr("data-attr")
		if id == "" {
			return
		}

		dim := catalog.Dimension{Id: id, Name: id}
		if label := attr.Find("label").First(); label.Length() > 0 {
			dim.Name = htmlutil.CleanText(label.Text())
		}

		attr.Find("[data-attr-value]").Each(func(_ int, v *goquery.Selection) {
			valueId, _ := v.Attr("data-attr-value")
			if valueId == "" || !v.HasClass("selectable") {
				return
			}
			label, ok := v.Attr("aria-label")
			if !ok {
				label = htmlutil.CleanText(v.Text())
			}
			dim.Values = append(dim.Values, catalog.Value{
				Id:         valueId,
				Label:      label,
				Selectable: true,
			})
		})

		natural[id] = dim
		order = append(order, id)
	})

	if len(order) == 0 {
		err := catalog.NotFoundError{ItemId: itemId, Reason: "no selection attributes on page"}
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

	return catalog.Product{
		Id:         itemId,
		Name:       htmlutil.CleanText(detail.Find(".product-name").First().Text()),
		Brand:      htmlutil.CleanText(detail.Find(".product-brand").First().Text()),
		Dimensions: sources.AssembleDimensions(ctx, itemId, c.opts.Dimensions, natural, order),
	}, nil
}

func (c *Client) FetchVariant(ctx context.Context, product catalog.Product, combo catalog.Combination) (catalog.VariantRecord, error) {
	ctx, span := tracer.Start(ctx, "FetchVariant")
	defer span.End()

	c.mu.Lock()
	defer c.mu.Unlock()

	params := map[string]string{"pid": product.Id}
	for _, sel := range combo {
		if sel.Value.Id == catalog.PlaceholderValueId {
			continue
		}
		params[fmt.Sprintf("dwvar_%s_%s", product.Id, sel.Dimension)] = sel.Value.Id
	}

	doc, err := c.getPage(ctx, params)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "variant page fetch failed")
		return catalog.VariantRecord{}, err
	}

	rec, err := parseVariantPage(doc, combo)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "variant page parse failed")
		return catalog.VariantRecord{}, err
	}
	return rec, nil
}

func parseVariantPage(doc *goquery.Document, combo catalog.Combination) (catalog.VariantRecord, error) {
	detail := doc.Find(".product-detail").First()
	if detail.Length() == 0 {
		return catalog.VariantRecord{}, catalog.ParseError{
			Err: fmt.Errorf("page has no product detail section"),
		}
	}

	rec := catalog.VariantRecord{
		Combination: combo,
		Sku:         htmlutil.CleanText(detail.Find(".product-id").First().Text()),
		Upc:         htmlutil.CleanText(detail.Find(".product-upc").First().Text()),
	}

	sale, err := parsePriceValue(detail.Find(".prices .sales .value").First())
	if err != nil {
		return catalog.VariantRecord{}, catalog.ParseError{Err: err}
	}
	rec.Price.Sale = sale
	rec.Price.Currency, _ = detail.Find(".prices .sales .value").First().Attr("data-currency")

	if list := detail.Find(".prices .list .value").First(); list.Length() > 0 {
		listValue, err := parsePriceValue(list)
		if err != nil {
			return catalog.VariantRecord{}, catalog.ParseError{Err: err}
		}
		rec.Price.List = listValue
		if listValue > 0 && sale < listValue {
			rec.Price.Discount = math.Round((1-sale/listValue)*100*100) / 100
		}
	}

	availability := detail.Find(".availability").First()
	rec.Availability.Label = htmlutil.CleanText(detail.Find(".availability-msg").First().Text())
	if available, _ := availability.Attr("data-available"); available == "true" {
		rec.Availability.Kind = "IN_STOCK"
	} else {
		rec.Availability.Kind = "OUT_OF_STOCK"
	}

	addToCart := detail.Find(".add-to-cart").First()
	_, disabled := addToCart.Attr("disabled")
	rec.Availability.Purchasable = addToCart.Length() > 0 && !disabled
	rec.Availability.NotifyMe = detail.Find(".notify-me").Length() > 0

	return rec, nil
}

func parsePriceValue(sel *goquery.Selection) (float64, error) {
	if sel.Length() == 0 {
		return 0, fmt.Errorf("page has no price value element")
	}
	content, ok := sel.Attr("content")
	if !ok {
		return 0, fmt.Errorf("price value element has no content attribute")
	}
	value, err := strconv.ParseFloat(content, 64)
	if err != nil {
		return 0, fmt.Errorf("price value %q is not a number: %w", content, err)
	}
	return value, nil
}
