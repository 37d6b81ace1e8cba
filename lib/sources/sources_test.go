package sources

import (
	"context"
	"testing"
	"time"

	"skumatrix/lib/catalog"

	"github.com/stretchr/testify/require"
)

func TestResolveProductUrl(t *testing.T) {
	cases := []struct {
		locator string
		want    string
	}{
		{"https://shop.example.com/mens/tops/crewneck-tee/TEE-100.html", "TEE-100"},
		{"https://shop.example.com/Product-Show?pid=TEE-100&color=BLK", "TEE-100"},
		{"https://shop.example.com/p/enamel-mug/MUG_01-X.html?gclid=abc", "MUG_01-X"},
		{"  https://shop.example.com/TEE-100.html  ", "TEE-100"},
	}
	for _, c := range cases {
		got, err := ResolveProductUrl(c.locator)
		require.NoError(t, err, c.locator)
		require.Equal(t, c.want, got)
	}
}

func TestResolveProductUrlFailure(t *testing.T) {
	for _, locator := range []string{
		"https://shop.example.com/mens/tops/",
		"not a url at all %%%",
		"",
	} {
		_, err := ResolveProductUrl(locator)
		var unresolved catalog.UnresolvedIdError
		require.ErrorAs(t, err, &unresolved, locator)
	}
}

func TestLinearBackoffSchedule(t *testing.T) {
	base := 10 * time.Millisecond
	opts := RetryOptions{Count: 3, Backoff: base}

	require.Equal(t, base, opts.Wait(1))
	require.Equal(t, 2*base, opts.Wait(2))
	require.Equal(t, 3*base, opts.Wait(3))
}

func TestCustomScheduleOverridesLinear(t *testing.T) {
	opts := RetryOptions{
		Backoff: time.Second,
		Schedule: func(attempt int) time.Duration {
			return time.Duration(1<<attempt) * time.Millisecond
		},
	}
	require.Equal(t, 4*time.Millisecond, opts.Wait(2))
}

func TestAssembleDimensionsKeepsNaturalOrderWithoutExpectation(t *testing.T) {
	natural := map[string]catalog.Dimension{
		"size":  {Id: "size", Values: []catalog.Value{{Id: "S"}}},
		"color": {Id: "color", Values: []catalog.Value{{Id: "BLK"}}},
	}
	dims := AssembleDimensions(context.Background(), "P1", nil, natural, []string{"size", "color"})
	require.Equal(t, "size", dims[0].Id)
	require.Equal(t, "color", dims[1].Id)
}

func TestAssembleDimensionsSynthesizesMissing(t *testing.T) {
	natural := map[string]catalog.Dimension{
		"color": {Id: "color", Values: []catalog.Value{{Id: "BLK"}}},
	}
	dims := AssembleDimensions(
		context.Background(), "P1",
		[]string{"color", "size"},
		natural, []string{"color"},
	)
	require.Len(t, dims, 2)
	require.Equal(t, "color", dims[0].Id)
	require.Equal(t, "size", dims[1].Id)
	require.Equal(t, []catalog.Value{catalog.PlaceholderValue()}, dims[1].Values)
}
