package opinion

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/0xwenjian/opinion-mmscript/internal/domain"
)

// quoteCurrency es la moneda quote del venue.
const quoteCurrency = "USDT"

// mapMarket convierte un marketData DTO a domain.Market.
// Falla si al mercado le falta el token YES: sin él no hay orderbook.
func mapMarket(r marketData) (domain.Market, error) {
	if r.YesTokenID == "" {
		return domain.Market{}, fmt.Errorf("market %d: missing yes token id", r.TopicID)
	}
	return domain.Market{
		ID:         r.TopicID,
		Title:      r.Title,
		YesTokenID: r.YesTokenID,
		NoTokenID:  r.NoTokenID,
	}, nil
}

// mapOrderBook convierte el snapshot raw a domain.OrderBook con los
// niveles ordenados y sin entradas inválidas.
func mapOrderBook(tokenID string, r orderBookData) domain.OrderBook {
	return domain.OrderBook{
		TokenID: tokenID,
		Bids:    mapBookLevels(r.Bids, false),
		Asks:    mapBookLevels(r.Asks, true),
	}
}

// mapBookLevels convierte niveles raw a domain.BookEntry y los ordena.
// ascending=true → menor a mayor (asks), false → mayor a menor (bids).
func mapBookLevels(raw []bookLevelRaw, ascending bool) []domain.BookEntry {
	entries := make([]domain.BookEntry, 0, len(raw))
	for _, r := range raw {
		price, _ := strconv.ParseFloat(r.Price, 64)
		size, _ := strconv.ParseFloat(r.Size, 64)
		if price <= 0 || size <= 0 {
			continue
		}
		entries = append(entries, domain.BookEntry{Price: price, Size: size})
	}

	sort.Slice(entries, func(i, j int) bool {
		if ascending {
			return entries[i].Price < entries[j].Price
		}
		return entries[i].Price > entries[j].Price
	})

	return entries
}

// mapOrderStatus convierte el orderData raw a domain.OrderStatus.
// filledAmount llega como string JSON; un valor no numérico es un error
// de decode, no un cero silencioso.
func mapOrderStatus(r orderData) (domain.OrderStatus, error) {
	filled := 0.0
	if r.FilledAmount != "" {
		v, err := r.FilledAmount.Float64()
		if err != nil {
			return domain.OrderStatus{}, fmt.Errorf("order %s: bad filledAmount %q: %w", r.OrderID, r.FilledAmount, err)
		}
		filled = v
	}
	return domain.OrderStatus{Status: r.Status, FilledAmount: filled}, nil
}

// mapBalance extrae el saldo en la moneda quote (USDT) a domain.Balance.
// Una respuesta multi-moneda sin entrada USDT es un error, no el saldo
// de otra moneda cualquiera.
func mapBalance(r balancesData) (domain.Balance, error) {
	for _, bal := range r.Balances {
		if !strings.EqualFold(bal.Currency, quoteCurrency) {
			continue
		}
		available, _ := bal.AvailableBalance.Float64()
		frozen, _ := bal.FrozenBalance.Float64()
		total, _ := bal.TotalBalance.Float64()
		return domain.Balance{Available: available, Frozen: frozen, Total: total}, nil
	}
	return domain.Balance{}, fmt.Errorf("balance: no %s entry among %d balances", quoteCurrency, len(r.Balances))
}
