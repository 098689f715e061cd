package ports

import (
	"context"

	"github.com/0xwenjian/opinion-mmscript/internal/domain"
)

// BookProvider obtiene el orderbook actual de un token.
type BookProvider interface {
	// FetchOrderBook devuelve el snapshot del libro para el token dado,
	// con bids ordenados de mayor a menor y asks de menor a mayor.
	FetchOrderBook(ctx context.Context, tokenID string) (domain.OrderBook, error)
}
