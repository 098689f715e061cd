package opinion

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/0xwenjian/opinion-mmscript/internal/domain"
)

const (
	marketPath    = "/openapi/market"
	orderBookPath = "/openapi/token/orderbook"
)

// FetchMarket devuelve la metadata de un mercado binario.
// Implementa ports.MarketProvider.
func (c *Client) FetchMarket(ctx context.Context, marketID int64) (domain.Market, error) {
	var raw marketData
	path := fmt.Sprintf("%s/%d", marketPath, marketID)
	if err := c.get(ctx, c.limiter, path, &raw); err != nil {
		return domain.Market{}, fmt.Errorf("opinion.FetchMarket %d: %w", marketID, err)
	}

	market, err := mapMarket(raw)
	if err != nil {
		return domain.Market{}, fmt.Errorf("opinion.FetchMarket: %w", err)
	}

	slog.Debug("market fetched", "market_id", marketID, "title", market.Title)
	return market, nil
}

// FetchOrderBook devuelve el snapshot del libro para un token.
// Implementa ports.BookProvider.
func (c *Client) FetchOrderBook(ctx context.Context, tokenID string) (domain.OrderBook, error) {
	if tokenID == "" {
		return domain.OrderBook{}, fmt.Errorf("opinion.FetchOrderBook: empty token id")
	}

	var raw orderBookData
	path := orderBookPath + "?token_id=" + tokenID
	if err := c.get(ctx, c.booksLimiter, path, &raw); err != nil {
		return domain.OrderBook{}, fmt.Errorf("opinion.FetchOrderBook %s: %w", shortToken(tokenID), err)
	}

	book := mapOrderBook(tokenID, raw)
	slog.Debug("order book fetched",
		"token", shortToken(tokenID),
		"bids", len(book.Bids),
		"asks", len(book.Asks),
	)
	return book, nil
}

// shortToken acorta un token ID largo para los logs.
func shortToken(id string) string {
	if len(id) > 16 {
		return id[:16] + "..."
	}
	return id
}
