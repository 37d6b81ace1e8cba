package storefront

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"skumatrix/lib/catalog"
	"skumatrix/lib/telemetry"

	"github.com/stretchr/testify/require"
)

const productPage = `<!doctype html>
<html><body>
<div class="product-detail" data-pid="TEE-100">
	<div class="product-brand">Northbound</div>
	<h1 class="product-name">Crewneck Tee</h1>
	<div class="attribute" data-attr="color">
		<label>Color</label>
		<button class="color-attribute selectable" data-attr-value="BLK" aria-label="Black"></button>
		<button class="color-attribute selectable" data-attr-value="WHT" aria-label="White"></button>
		<button class="color-attribute" data-attr-value="RED" aria-label="Red"></button>
	</div>
	<div class="attribute" data-attr="size">
		<label>Size</label>
		<select class="size-select">
			<option value="">Select size</option>
			<option class="selectable" data-attr-value="S">Small</option>
			<option class="selectable" data-attr-value="M">Medium</option>
		</select>
	</div>
	<div class="prices">
		<span class="sales"><span class="value" content="19.99" data-currency="USD">$19.99</span></span>
		<span class="list"><span class="value" content="24.99" data-currency="USD">$24.99</span></span>
	</div>
	<div class="availability" data-available="true">
		<div class="availability-msg">In Stock</div>
	</div>
	<button class="add-to-cart">Add to Cart</button>
	<span class="product-id">TEE-100-BLK-S</span>
	<span class="product-upc">194000000001</span>
</div>
</body></html>`

const consentOverlayPage = `<!doctype html>
<html><body>
<div id="consent-tracking" class="show modal">
	<p>We use cookies.</p>
</div>
</body></html>`

func testClient(t *testing.T, baseUrl string) *Client {
	t.Helper()
	cleanup := telemetry.SetupForTesting("test:sources/storefront")
	t.Cleanup(cleanup)

	client, err := NewClient(ClientOptions{
		BaseUrl:    baseUrl,
		Dimensions: []string{"color", "size"},
		Timeout:    time.Second * 5,
	})
	require.NoError(t, err)
	return client
}

func TestDiscoverFromPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/Product-Show", r.URL.Path)
		require.Equal(t, "TEE-100", r.URL.Query().Get("pid"))
		fmt.Fprint(w, productPage)
	}))
	defer server.Close()

	client := testClient(t, server.URL)
	product, err := client.Discover(context.Background(), "TEE-100")
	require.NoError(t, err)

	require.Equal(t, "Crewneck Tee", product.Name)
	require.Equal(t, "Northbound", product.Brand)
	require.Len(t, product.Dimensions, 2)

	color := product.Dimensions[0]
	require.Equal(t, "Color", color.Name)
	// RED has no selectable class and is dropped; the empty
	// "Select size" option has no data-attr-value and is dropped
	require.Len(t, color.Values, 2)
	require.Equal(t, "Black", color.Values[0].Label)

	size := product.Dimensions[1]
	require.Len(t, size.Values, 2)
	require.Equal(t, "Small", size.Values[0].Label)
}

func TestFetchVariantFromPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "BLK", r.URL.Query().Get("dwvar_TEE-100_color"))
		require.Equal(t, "S", r.URL.Query().Get("dwvar_TEE-100_size"))
		fmt.Fprint(w, productPage)
	}))
	defer server.Close()

	client := testClient(t, server.URL)
	combo := catalog.Combination{
		{Dimension: "color", Value: catalog.Value{Id: "BLK"}},
		{Dimension: "size", Value: catalog.Value{Id: "S"}},
	}

	rec, err := client.FetchVariant(context.Background(), catalog.Product{Id: "TEE-100"}, combo)
	require.NoError(t, err)

	require.Equal(t, "TEE-100-BLK-S", rec.Sku)
	require.Equal(t, "194000000001", rec.Upc)
	require.Equal(t, 19.99, rec.Price.Sale)
	require.Equal(t, 24.99, rec.Price.List)
	require.Equal(t, "USD", rec.Price.Currency)
	require.Equal(t, 20.01, rec.Price.Discount)
	require.Equal(t, "IN_STOCK", rec.Availability.Kind)
	require.Equal(t, "In Stock", rec.Availability.Label)
	require.True(t, rec.Availability.Purchasable)
	require.False(t, rec.Availability.NotifyMe)
}

func TestConsentOverlayDismissedOnce(t *testing.T) {
	var consented atomic.Bool
	var dismissals atomic.Int64

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ConsentTracking-SetSession" {
			require.Equal(t, http.MethodPost, r.Method)
			require.Equal(t, "true", r.URL.Query().Get("consent"))
			dismissals.Add(1)
			consented.Store(true)
			return
		}
		if !consented.Load() {
			fmt.Fprint(w, consentOverlayPage)
			return
		}
		fmt.Fprint(w, productPage)
	}))
	defer server.Close()

	client := testClient(t, server.URL)

	product, err := client.Discover(context.Background(), "TEE-100")
	require.NoError(t, err)
	require.Equal(t, "Crewneck Tee", product.Name)

	// further page actions never re-dismiss
	_, err = client.FetchVariant(context.Background(), product, catalog.Combination{
		{Dimension: "color", Value: catalog.Value{Id: "BLK"}},
		{Dimension: "size", Value: catalog.Value{Id: "S"}},
	})
	require.NoError(t, err)
	require.Equal(t, int64(1), dismissals.Load())
}

func TestMissingPriceIsParseError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<div class="product-detail"><span class="product-id">X</span></div>`)
	}))
	defer server.Close()

	client := testClient(t, server.URL)
	_, err := client.FetchVariant(context.Background(), catalog.Product{Id: "X"}, nil)

	var parseErr catalog.ParseError
	require.ErrorAs(t, err, &parseErr)
}

func TestSerializedFetches(t *testing.T) {
	require.Equal(t, 1, testClient(t, "http://unused.example.com").MaxParallel())
}
