package store

import (
	"errors"
	"fmt"
)

var ErrMissingAPIKey = errors.New("no API key: pass it as an argument or set PDUP_API_KEY")

// StatusError is returned when the remote service answers with anything
// other than 200 or 201. Body holds the response text verbatim.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upload failed with status %d: %s", e.StatusCode, e.Body)
}
