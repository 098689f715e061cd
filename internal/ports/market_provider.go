package ports

import (
	"context"

	"github.com/0xwenjian/opinion-mmscript/internal/domain"
)

// MarketProvider resuelve la metadata de un mercado por su ID.
type MarketProvider interface {
	// FetchMarket devuelve título y token IDs de los dos outcomes.
	FetchMarket(ctx context.Context, marketID int64) (domain.Market, error)
}
