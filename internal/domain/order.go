package domain

import (
	"errors"
	"strings"
	"time"
)

// ErrInsufficientBalance es el resultado distinto (no una falla opaca)
// que devuelve el venue cuando no hay saldo para colocar la orden.
var ErrInsufficientBalance = errors.New("insufficient balance")

// TrackedOrder es la orden maker que mantenemos viva en un mercado.
// Existe a lo sumo una por mercado; en cada ajuste se reemplaza entera
// (cancel + recreate) porque el venue asigna un order ID nuevo.
type TrackedOrder struct {
	ID            string // UUID local de tracking
	OrderID       string // ID asignado por el venue
	MarketID      int64
	Title         string
	Price         float64
	Amount        float64 // notional en moneda quote
	CreatedAt     time.Time
	LastCheckedAt time.Time
}

// RestingFor devuelve cuánto tiempo lleva descansando la orden.
func (o TrackedOrder) RestingFor(now time.Time) time.Duration {
	return now.Sub(o.CreatedAt)
}

// PlaceOrderRequest se envía al executor del venue.
type PlaceOrderRequest struct {
	MarketID int64
	TokenID  string
	Outcome  string // "YES" | "NO"
	Side     string // "BUY" (maker bid)
	Price    float64
	Amount   float64 // notional en moneda quote
}

// PlacedOrder es la respuesta del venue al colocar una orden.
type PlacedOrder struct {
	OrderID string
	Status  string
}

// OrderStatus is the decoded state of a venue order.
type OrderStatus struct {
	Status       string
	FilledAmount float64
}

// Filled reports whether the order has any executed amount. The venue
// sometimes reports a partially filled order that was later cancelled
// with a terminal "canceled" status; the executed amount is the only
// signal that survives that quirk, so the status string is ignored.
func (s OrderStatus) Filled() bool {
	return s.FilledAmount > 0
}

// PartialFill reports whether a fill was partial rather than full.
// Used for alert wording only; any fill ends tracking either way.
func (s OrderStatus) PartialFill() bool {
	if !s.Filled() {
		return false
	}
	switch strings.ToLower(s.Status) {
	case "3", "filled":
		return false
	}
	return true
}

// Market es la metadata mínima de un mercado binario del venue.
type Market struct {
	ID         int64
	Title      string
	YesTokenID string
	NoTokenID  string
}

// Balance es el saldo de la cuenta en el venue.
type Balance struct {
	Available float64
	Frozen    float64
	Total     float64
}

// RunStats agrega los contadores históricos del journal de órdenes.
type RunStats struct {
	TotalOrders     int
	OpenOrders      int
	UnexpectedFills int
	TotalNotional   float64
	TotalRestingSec float64
}

// AvgRestingSec devuelve la duración media de una orden ya cerrada.
func (s RunStats) AvgRestingSec() float64 {
	closed := s.TotalOrders - s.OpenOrders
	if closed <= 0 {
		return 0
	}
	return s.TotalRestingSec / float64(closed)
}

// StatusReport es el snapshot periódico del estado del agente.
type StatusReport struct {
	At           time.Time
	Balance      Balance
	BalanceKnown bool
	Orders       []OrderSnapshot
	Stats        RunStats
	ObserveOnly  bool
}

// OrderSnapshot es el estado actual de una orden trackeada para reporting.
type OrderSnapshot struct {
	Title      string
	Price      float64
	Amount     float64
	Rank       int
	Protection float64
	RankKnown  bool // false si no se pudo refrescar el book
	RestingFor time.Duration
}

// TotalAmount devuelve el notional total descansando en el venue.
func (r StatusReport) TotalAmount() float64 {
	var total float64
	for _, o := range r.Orders {
		total += o.Amount
	}
	return total
}
