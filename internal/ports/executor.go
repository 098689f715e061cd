package ports

import (
	"context"

	"github.com/0xwenjian/opinion-mmscript/internal/domain"
)

// OrderExecutor places, cancels, and monitors maker orders on the venue.
type OrderExecutor interface {
	// PlaceOrder submits a limit maker order. Returns
	// domain.ErrInsufficientBalance when the venue rejects it for funds;
	// that outcome is distinct from an opaque failure.
	PlaceOrder(ctx context.Context, req domain.PlaceOrderRequest) (domain.PlacedOrder, error)

	// CancelOrder cancels a specific order by its venue order ID.
	CancelOrder(ctx context.Context, orderID string) error

	// OrderStatus returns the decoded status and filled amount of an order.
	OrderStatus(ctx context.Context, orderID string) (domain.OrderStatus, error)

	// Balance returns the account balance on the venue.
	Balance(ctx context.Context) (domain.Balance, error)
}
