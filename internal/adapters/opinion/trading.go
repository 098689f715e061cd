package opinion

// trading.go — order execution via the OpinionLabs openapi.
//
// Implements ports.OrderExecutor. All orders go out as limit maker bids;
// request signing happens venue-side behind the API key.

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/0xwenjian/opinion-mmscript/internal/domain"
)

const (
	orderPath   = "/openapi/order"
	balancePath = "/openapi/balance"

	limitOrderType = 2
)

// PlaceOrder submits a limit maker order and returns its venue ID.
// An insufficient-balance rejection maps to domain.ErrInsufficientBalance.
// A response without an order ID is a placement failure, never assumed
// success.
func (c *Client) PlaceOrder(ctx context.Context, req domain.PlaceOrderRequest) (domain.PlacedOrder, error) {
	body := placeOrderBody{
		TopicID:   req.MarketID,
		TokenID:   req.TokenID,
		Outcome:   req.Outcome,
		Side:      req.Side,
		OrderType: limitOrderType,
		Price:     strconv.FormatFloat(req.Price, 'f', 4, 64),
		Amount:    req.Amount,
	}

	var resp placeOrderData
	if err := c.post(ctx, c.limiter, orderPath, body, &resp); err != nil {
		var apiErr *apiError
		if errors.As(err, &apiErr) && insufficientBalance(apiErr) {
			return domain.PlacedOrder{}, domain.ErrInsufficientBalance
		}
		return domain.PlacedOrder{}, fmt.Errorf("opinion.PlaceOrder market %d: %w", req.MarketID, err)
	}

	if resp.OrderData.OrderID == "" {
		return domain.PlacedOrder{}, fmt.Errorf("opinion.PlaceOrder market %d: no order id in response", req.MarketID)
	}

	return domain.PlacedOrder{
		OrderID: resp.OrderData.OrderID,
		Status:  resp.OrderData.Status,
	}, nil
}

// CancelOrder cancels an order by its venue ID.
func (c *Client) CancelOrder(ctx context.Context, orderID string) error {
	if err := c.del(ctx, c.limiter, orderPath+"/"+orderID, nil); err != nil {
		return fmt.Errorf("opinion.CancelOrder %s: %w", orderID, err)
	}
	return nil
}

// OrderStatus returns the decoded status and filled amount of an order.
func (c *Client) OrderStatus(ctx context.Context, orderID string) (domain.OrderStatus, error) {
	var resp orderStatusData
	if err := c.get(ctx, c.limiter, orderPath+"/"+orderID, &resp); err != nil {
		return domain.OrderStatus{}, fmt.Errorf("opinion.OrderStatus %s: %w", orderID, err)
	}

	status, err := mapOrderStatus(resp.OrderData)
	if err != nil {
		return domain.OrderStatus{}, fmt.Errorf("opinion.OrderStatus: %w", err)
	}
	return status, nil
}

// Balance returns the account USDT balance.
func (c *Client) Balance(ctx context.Context) (domain.Balance, error) {
	var resp balancesData
	if err := c.get(ctx, c.limiter, balancePath, &resp); err != nil {
		return domain.Balance{}, fmt.Errorf("opinion.Balance: %w", err)
	}

	bal, err := mapBalance(resp)
	if err != nil {
		return domain.Balance{}, fmt.Errorf("opinion.Balance: %w", err)
	}
	return bal, nil
}

// insufficientBalance matches the venue's funds rejection by errno or by
// message text: some gateway paths return a generic errno with only the
// errmsg set.
func insufficientBalance(e *apiError) bool {
	return e.Errno == errnoInsufficientBalance || strings.Contains(e.Msg, "Insufficient balance")
}

// IsGeoRestricted reporta si err es el bloqueo geográfico del venue
// (requiere proxy o VPN). Útil para abortar el arranque con un mensaje claro.
func IsGeoRestricted(err error) bool {
	var apiErr *apiError
	return errors.As(err, &apiErr) && apiErr.Errno == errnoGeoRestricted
}
