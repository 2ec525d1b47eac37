package collector

import (
	"context"
	"errors"

	"CoinChart/internal/model"
)

var (
	// ErrNetwork means the request could not be completed or the server
	// answered with a non-200 status.
	ErrNetwork = errors.New("market data request failed")
	// ErrMalformedResponse means the body was not the expected time-series payload.
	ErrMalformedResponse = errors.New("malformed market data response")
)

// Fetcher defines the interface for fetching the daily price table.
type Fetcher interface {
	FetchDaily(ctx context.Context) (*model.PriceTable, error)
	Name() string
}
