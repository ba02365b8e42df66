package httpapi

import "fmt"

// fieldErr builds a "bad request" error naming the offending query
// parameter so the caller can tell which one was malformed.
func fieldErr(field string) error {
	return fmt.Errorf("invalid value for query parameter %q", field)
}
