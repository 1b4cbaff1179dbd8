package pricing

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Source resolves the historical closing price for a UTC calendar day. It is
// injected into the reconciler so pipeline tests can use a deterministic stub.
//
// Implementations return errors.ErrPriceUnavailable (wrapped) when the
// service has no price for the day, e.g. the day is today and the market has
// not closed yet. Transport failures surface as ordinary errors.
type Source interface {
	ClosingPrice(ctx context.Context, day time.Time) (decimal.Decimal, error)
}
