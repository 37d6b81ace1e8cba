package catalog

import "fmt"

// UnresolvedIdError means an item locator could not be parsed into a
// product id. The item is skipped, the batch continues.
type UnresolvedIdError struct {
	Locator string
}

func (e UnresolvedIdError) Error() string {
	return fmt.Sprintf("could not resolve a product id from locator %q", e.Locator)
}

// NotFoundError means discovery yielded no dimensions or no values,
// so there is nothing to fetch for the item.
type NotFoundError struct {
	ItemId string
	Reason string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("product %s not found: %s", e.ItemId, e.Reason)
}

// NetworkError is terminal: every retry attempt was spent.
type NetworkError struct {
	Url      string
	Attempts int
	Err      error
}

func (e NetworkError) Error() string {
	return fmt.Sprintf("request to %s failed after %d attempts: %v", e.Url, e.Attempts, e.Err)
}

func (e NetworkError) Unwrap() error {
	return e.Err
}

// ParseError means the response arrived but its payload is
// structurally malformed. Never retried, retrying cannot fix it.
type ParseError struct {
	Url string
	Err error
}

func (e ParseError) Error() string {
	return fmt.Sprintf("malformed payload from %s: %v", e.Url, e.Err)
}

func (e ParseError) Unwrap() error {
	return e.Err
}
