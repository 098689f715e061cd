package maker

// maker.go — per-market order lifecycle.
//
// The manager keeps at most one resting maker bid per market, parked at
// a price with enough competing bid volume ahead of it that a fill is
// unlikely. Two triggers relocate it: protection dropping below the
// configured threshold (hard invariant) and rank drifting past the cap
// (soft preference). Orders are never modified in place — the venue
// assigns a new ID on every placement, so adjusting means cancel plus
// recreate.

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/0xwenjian/opinion-mmscript/internal/domain"
	"github.com/0xwenjian/opinion-mmscript/internal/ports"
)

const (
	// hysteresisEpsilon: price moves smaller than this never cause a
	// cancel/replace, so book noise does not churn the order.
	hysteresisEpsilon = 1e-5

	defaultSettlePause = 500 * time.Millisecond
)

// MarketConfig son los parámetros por mercado.
type MarketConfig struct {
	MarketID      int64
	MinProtection float64 // umbral de protección en moneda quote
	OrderAmount   float64 // notional de cada orden
	MaxRank       int     // puesto máximo aceptable, 0 = sin límite
}

// Manager drives the order lifecycle for all configured markets.
// It is only ever called from the monitor loop goroutine.
type Manager struct {
	books    ports.BookProvider
	markets  ports.MarketProvider
	exec     ports.OrderExecutor
	journal  ports.OrderJournal
	notifier ports.Notifier

	settlePause time.Duration
	now         func() time.Time

	orders      map[int64]domain.TrackedOrder // market ID → resting order
	marketInfo  map[int64]domain.Market
	observeOnly bool
}

// NewManager creates a lifecycle manager with all collaborators injected.
func NewManager(
	books ports.BookProvider,
	markets ports.MarketProvider,
	exec ports.OrderExecutor,
	journal ports.OrderJournal,
	notifier ports.Notifier,
) *Manager {
	return &Manager{
		books:       books,
		markets:     markets,
		exec:        exec,
		journal:     journal,
		notifier:    notifier,
		settlePause: defaultSettlePause,
		now:         time.Now,
		orders:      make(map[int64]domain.TrackedOrder),
		marketInfo:  make(map[int64]domain.Market),
	}
}

// SetSettlePause overrides the post-cancel settle wait.
func (mgr *Manager) SetSettlePause(d time.Duration) {
	mgr.settlePause = d
}

// HasOrder reports whether the market currently tracks a resting order.
func (mgr *Manager) HasOrder(marketID int64) bool {
	_, ok := mgr.orders[marketID]
	return ok
}

// Tracked returns the resting order for a market, if any.
func (mgr *Manager) Tracked(marketID int64) (domain.TrackedOrder, bool) {
	o, ok := mgr.orders[marketID]
	return o, ok
}

// ObserveOnly reports whether placement is paused for the run.
func (mgr *Manager) ObserveOnly() bool {
	return mgr.observeOnly
}

// Place resolves market metadata, finds a safe price, and submits a
// maker bid. The rank cap is tried first so a fresh entry respects the
// rank preference; if nothing inside the cap is safe, the search widens
// to the whole book. Returns placed=false without error when placement
// was skipped (observe-only, or no safe price anywhere).
func (mgr *Manager) Place(ctx context.Context, mc MarketConfig) (placed bool, err error) {
	if mgr.observeOnly {
		return false, nil
	}

	// One resting order per market, always. The map enforces it
	// incidentally; this check makes it a hard precondition.
	if existing, ok := mgr.orders[mc.MarketID]; ok {
		return false, fmt.Errorf("maker.Place: market %d already tracks order %s", mc.MarketID, existing.OrderID)
	}

	info, err := mgr.marketMeta(ctx, mc.MarketID)
	if err != nil {
		return false, err
	}

	book, err := mgr.books.FetchOrderBook(ctx, info.YesTokenID)
	if err != nil {
		return false, fmt.Errorf("maker.Place: %w", err)
	}

	price, rank, found := domain.SafeBidPrice(book, mc.MinProtection, mc.MaxRank)
	if !found {
		price, rank, found = domain.SafeBidPrice(book, mc.MinProtection, 0)
	}
	if !found {
		slog.Warn("maker: no safe price anywhere in the book",
			"market_id", mc.MarketID,
			"min_protection", mc.MinProtection,
		)
		mgr.notify(ctx, "⚠️ No safe placement",
			fmt.Sprintf("%s\nbook depth cannot cover $%.0f of protection, placement skipped",
				truncate(info.Title, 40), mc.MinProtection))
		return false, nil
	}

	mgr.logDepth(info.Title, book)

	resp, err := mgr.exec.PlaceOrder(ctx, domain.PlaceOrderRequest{
		MarketID: mc.MarketID,
		TokenID:  info.YesTokenID,
		Outcome:  "YES",
		Side:     "BUY",
		Price:    price,
		Amount:   mc.OrderAmount,
	})
	if errors.Is(err, domain.ErrInsufficientBalance) {
		mgr.observeOnly = true
		slog.Warn("maker: insufficient balance, switching to observe-only mode")
		mgr.notify(ctx, "⚠️ Insufficient balance",
			"placement paused for this run until the balance is restored")
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("maker.Place market %d: %w", mc.MarketID, err)
	}

	now := mgr.now()
	order := domain.TrackedOrder{
		ID:            uuid.New().String(),
		OrderID:       resp.OrderID,
		MarketID:      mc.MarketID,
		Title:         info.Title,
		Price:         price,
		Amount:        mc.OrderAmount,
		CreatedAt:     now,
		LastCheckedAt: now,
	}
	mgr.orders[mc.MarketID] = order

	protection := book.ProtectionAt(price)
	if err := mgr.journal.RecordPlacement(ctx, order, rank, protection); err != nil {
		slog.Warn("maker: journal placement failed", "err", err)
	}

	slog.Info("maker: order placed",
		"market", truncate(info.Title, 30),
		"price", fmt.Sprintf("%.4f", price),
		"rank", rank,
		"protection", fmt.Sprintf("$%.0f", protection),
		"amount", fmt.Sprintf("$%.2f", mc.OrderAmount),
		"order_id", resp.OrderID,
	)
	return true, nil
}

// CheckAndAdjust runs one lifecycle tick for a market with a resting
// order: fill check, then protection/rank triggers, then cancel+replace
// when the book really moved.
func (mgr *Manager) CheckAndAdjust(ctx context.Context, mc MarketConfig) error {
	order, ok := mgr.orders[mc.MarketID]
	if !ok {
		return nil
	}

	// 1. Fill check. Any executed amount ends tracking, whatever the
	// reported status string says.
	st, err := mgr.exec.OrderStatus(ctx, order.OrderID)
	if err != nil {
		slog.Debug("maker: status check failed", "order_id", order.OrderID, "err", err)
	} else if st.Filled() {
		mgr.handleFill(ctx, mc, order, st)
		return nil
	}

	// 2. Fresh book.
	info, err := mgr.marketMeta(ctx, mc.MarketID)
	if err != nil {
		return err
	}
	book, err := mgr.books.FetchOrderBook(ctx, info.YesTokenID)
	if err != nil {
		slog.Warn("maker: book fetch failed, no update this tick",
			"market_id", mc.MarketID, "err", err)
		return nil
	}

	rank := book.BidRank(order.Price)
	protection := book.ProtectionAt(order.Price)

	var (
		newPrice float64
		newRank  int
		found    bool
		reason   string
	)

	switch {
	case protection < mc.MinProtection:
		// Protection trigger: the hard invariant, always checked first.
		// Accept a position outside the cap rather than stay exposed.
		reason = "protection below threshold"
		newPrice, newRank, found = domain.SafeBidPrice(book, mc.MinProtection, mc.MaxRank)
		if !found {
			newPrice, newRank, found = domain.SafeBidPrice(book, mc.MinProtection, 0)
		}
		if !found {
			slog.Warn("maker: under-protected and no safe price anywhere, holding position",
				"market", truncate(order.Title, 30),
				"protection", fmt.Sprintf("$%.0f", protection),
				"min_protection", fmt.Sprintf("$%.0f", mc.MinProtection),
			)
			mgr.notify(ctx, "⚠️ Degraded protection",
				fmt.Sprintf("%s\norder at %.4f has $%.0f of protection (< $%.0f) and the book offers no safe price",
					truncate(order.Title, 40), order.Price, protection, mc.MinProtection))
			return nil
		}
		slog.Info("maker: protection trigger",
			"market", truncate(order.Title, 30),
			"protection", fmt.Sprintf("$%.0f", protection),
			"min_protection", fmt.Sprintf("$%.0f", mc.MinProtection),
		)

	case mc.MaxRank > 0 && rank > mc.MaxRank:
		// Rank trigger: soft preference. Move only when a position
		// inside the cap is itself safe; never trade protection for rank.
		newPrice, newRank, found = domain.SafeBidPrice(book, mc.MinProtection, mc.MaxRank)
		if !found {
			mgr.touch(mc.MarketID)
			return nil
		}
		reason = "rank above cap"
		slog.Info("maker: rank trigger",
			"market", truncate(order.Title, 30),
			"rank", rank,
			"max_rank", mc.MaxRank,
			"candidate_rank", newRank,
		)

	default:
		mgr.touch(mc.MarketID)
		return nil
	}

	// Hysteresis: a candidate at effectively the same price is noise.
	if math.Abs(newPrice-order.Price) < hysteresisEpsilon {
		mgr.touch(mc.MarketID)
		return nil
	}

	slog.Info("maker: adjusting order",
		"reason", reason,
		"market", truncate(order.Title, 30),
		"from", fmt.Sprintf("%.4f (bid %d)", order.Price, rank),
		"to", fmt.Sprintf("%.4f (bid %d)", newPrice, newRank),
	)

	if err := mgr.exec.CancelOrder(ctx, order.OrderID); err != nil {
		// Keep tracking the old order; the same adjustment retries on
		// the next tick.
		slog.Warn("maker: cancel failed, will retry next tick",
			"order_id", order.OrderID, "err", err)
		return nil
	}

	if err := mgr.journal.RecordCancel(ctx, order.ID, order.RestingFor(mgr.now())); err != nil {
		slog.Warn("maker: journal cancel failed", "err", err)
	}
	delete(mgr.orders, mc.MarketID)

	// Give the venue a moment to settle the cancel before re-placing.
	mgr.pause(ctx)

	placed, err := mgr.Place(ctx, mc)
	if err != nil {
		slog.Error("maker: replacement failed after cancel",
			"market_id", mc.MarketID, "err", err)
	}
	if !placed && !mgr.observeOnly {
		// The market sits with zero resting orders until a later tick
		// manages to place again. Worth telling the operator.
		mgr.notify(ctx, "⚠️ Coverage gap",
			fmt.Sprintf("%s\nold order at %.4f was cancelled but no replacement is resting",
				truncate(order.Title, 40), order.Price))
	}
	return nil
}

// handleFill ends tracking for a filled order and alerts the operator.
// No immediate re-placement: a fill means the market moved against the
// assumptions, so re-entry waits for the operator.
func (mgr *Manager) handleFill(ctx context.Context, mc MarketConfig, order domain.TrackedOrder, st domain.OrderStatus) {
	resting := order.RestingFor(mgr.now())

	kind := "Order filled"
	if st.PartialFill() {
		kind = "Order partially filled"
	}

	slog.Warn("maker: unexpected fill",
		"market", truncate(order.Title, 30),
		"price", fmt.Sprintf("%.4f", order.Price),
		"filled", fmt.Sprintf("$%.2f", st.FilledAmount),
		"amount", fmt.Sprintf("$%.2f", order.Amount),
		"venue_status", st.Status,
		"resting", resting.Round(time.Second),
	)

	if err := mgr.journal.RecordFill(ctx, order.ID, st.FilledAmount, st.Status, resting); err != nil {
		slog.Warn("maker: journal fill failed", "err", err)
	}
	delete(mgr.orders, mc.MarketID)

	mgr.notify(ctx, "⚠️ "+kind, fmt.Sprintf(
		"%s\nBUY YES @ %.4f\nfilled $%.2f of $%.2f\nvenue status: %s\nresting for %s\ncheck your position",
		truncate(order.Title, 40), order.Price, st.FilledAmount, order.Amount,
		st.Status, formatSeconds(resting)))
}

// DrainAll best-effort cancels every tracked order on shutdown.
// Failures are logged, not retried; the process is exiting.
func (mgr *Manager) DrainAll(ctx context.Context) {
	for id, order := range mgr.orders {
		slog.Info("maker: cancelling on shutdown",
			"market", truncate(order.Title, 30),
			"price", fmt.Sprintf("%.4f", order.Price),
		)
		if err := mgr.exec.CancelOrder(ctx, order.OrderID); err != nil {
			slog.Error("maker: shutdown cancel failed", "order_id", order.OrderID, "err", err)
			continue
		}
		if err := mgr.journal.RecordCancel(ctx, order.ID, order.RestingFor(mgr.now())); err != nil {
			slog.Warn("maker: journal cancel failed", "err", err)
		}
		delete(mgr.orders, id)
	}
}

// BuildReport arma el snapshot de estado: balance, órdenes con su
// rank/protección actual, y contadores del journal.
func (mgr *Manager) BuildReport(ctx context.Context) domain.StatusReport {
	report := domain.StatusReport{At: mgr.now(), ObserveOnly: mgr.observeOnly}

	if bal, err := mgr.exec.Balance(ctx); err != nil {
		slog.Debug("maker: balance fetch failed", "err", err)
	} else {
		report.Balance, report.BalanceKnown = bal, true
	}

	ids := make([]int64, 0, len(mgr.orders))
	for id := range mgr.orders {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		order := mgr.orders[id]
		snap := domain.OrderSnapshot{
			Title:      order.Title,
			Price:      order.Price,
			Amount:     order.Amount,
			RestingFor: order.RestingFor(report.At),
		}
		if info, ok := mgr.marketInfo[id]; ok {
			if book, err := mgr.books.FetchOrderBook(ctx, info.YesTokenID); err == nil {
				snap.Rank = book.BidRank(order.Price)
				snap.Protection = book.ProtectionAt(order.Price)
				snap.RankKnown = true
			}
		}
		report.Orders = append(report.Orders, snap)
	}

	if stats, err := mgr.journal.Stats(ctx); err != nil {
		slog.Debug("maker: journal stats failed", "err", err)
	} else {
		report.Stats = stats
	}
	return report
}

// marketMeta devuelve la metadata del mercado, cacheada tras el primer fetch.
func (mgr *Manager) marketMeta(ctx context.Context, marketID int64) (domain.Market, error) {
	if info, ok := mgr.marketInfo[marketID]; ok {
		return info, nil
	}
	info, err := mgr.markets.FetchMarket(ctx, marketID)
	if err != nil {
		return domain.Market{}, fmt.Errorf("maker: market metadata %d: %w", marketID, err)
	}
	mgr.marketInfo[marketID] = info
	return info, nil
}

// touch actualiza el last-checked de la orden trackeada.
func (mgr *Manager) touch(marketID int64) {
	if order, ok := mgr.orders[marketID]; ok {
		order.LastCheckedAt = mgr.now()
		mgr.orders[marketID] = order
	}
}

// notify entrega una alerta sin dejar que una falla del sink frene el loop.
func (mgr *Manager) notify(ctx context.Context, title, body string) {
	if err := mgr.notifier.Send(ctx, title, body); err != nil {
		slog.Warn("maker: notify failed", "title", title, "err", err)
	}
}

// pause espera el settle del venue respetando el contexto.
func (mgr *Manager) pause(ctx context.Context) {
	if mgr.settlePause <= 0 {
		return
	}
	select {
	case <-time.After(mgr.settlePause):
	case <-ctx.Done():
	}
}

// logDepth loguea la parte alta de la escalera de bids con la
// protección acumulada, para auditar decisiones de placement.
func (mgr *Manager) logDepth(title string, book domain.OrderBook) {
	var cumulative float64
	for i, level := range book.Bids {
		if i >= 10 {
			break
		}
		cumulative += level.Notional()
		slog.Debug("book depth",
			"market", truncate(title, 20),
			"bid", i+1,
			"price", fmt.Sprintf("%.4f", level.Price),
			"level", fmt.Sprintf("$%.0f", level.Notional()),
			"cumulative", fmt.Sprintf("$%.0f", cumulative),
		)
	}
}

// truncate corta s a maxLen caracteres con elipsis. Opera sobre runas
// porque los títulos de mercado pueden ser multibyte.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}

// formatSeconds muestra una duración en segundos enteros para alertas.
func formatSeconds(d time.Duration) string {
	return fmt.Sprintf("%.0fs", d.Seconds())
}
