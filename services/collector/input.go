package collector

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// BatchItem is one input record: an external identifier and the
// locator the item id is resolved from.
type BatchItem struct {
	ExternalId string
	Locator    string
}

// ReadItems parses a `sku,url` file. Only the first comma splits a
// line: the url field absorbs any further commas, so unescaped query
// strings stay intact. A leading `sku,url` header line is skipped.
func ReadItems(path string) ([]BatchItem, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return parseItems(f)
}

func parseItems(r io.Reader) ([]BatchItem, error) {
	var items []BatchItem

	scanner := bufio.NewScanner(r)
	lineno := 0
	for scanner.Scan() {
		lineno++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if lineno == 1 && strings.EqualFold(line, "sku,url") {
			continue
		}

		fields := strings.SplitN(line, ",", 2)
		if len(fields) != 2 {
			return nil, fmt.Errorf("line %d: expected `sku,url`, got %q", lineno, line)
		}
		items = append(items, BatchItem{
			ExternalId: strings.TrimSpace(fields[0]),
			Locator:    strings.TrimSpace(fields[1]),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return items, nil
}
