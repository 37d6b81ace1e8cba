package collector

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseItems(t *testing.T) {
	items, err := parseItems(strings.NewReader(
		"sku,url\n" +
			"A-100,https://shop.example.com/a/A-100.html\n" +
			"\n" +
			"B-200,https://shop.example.com/Product-Show?pid=B-200&utm=x,y,z\n",
	))
	require.NoError(t, err)
	require.Len(t, items, 2)

	require.Equal(t, "A-100", items[0].ExternalId)
	require.Equal(t, "https://shop.example.com/a/A-100.html", items[0].Locator)

	// the url field absorbs every comma past the first separator
	require.Equal(t, "https://shop.example.com/Product-Show?pid=B-200&utm=x,y,z", items[1].Locator)
}

func TestParseItemsWithoutHeader(t *testing.T) {
	items, err := parseItems(strings.NewReader("A-100,https://shop.example.com/a/A-100.html\n"))
	require.NoError(t, err)
	require.Len(t, items, 1)
}

func TestParseItemsMalformedLine(t *testing.T) {
	_, err := parseItems(strings.NewReader("sku,url\njust-a-sku-no-url\n"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "line 2")
}
