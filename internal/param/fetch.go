package param

import (
	"context"
	"errors"
)

var ErrNotSet = errors.New("parameter not set")

type Fetcher interface {
	Fetch(context.Context, string) (string, error)
}
