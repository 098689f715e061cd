package domain

import "math"

// priceEpsilon es la tolerancia para comparar precios del venue.
const priceEpsilon = 1e-5

// OrderBook es el libro de órdenes normalizado de un token.
// Se construye fresco en cada poll a partir del snapshot del venue
// y no se muta después.
type OrderBook struct {
	TokenID string
	Bids    []BookEntry // ordenados mayor a menor precio
	Asks    []BookEntry // ordenados menor a mayor precio
}

// BookEntry es un nivel de precio en el orderbook.
type BookEntry struct {
	Price float64
	Size  float64
}

// Notional devuelve el valor del nivel en moneda quote (price × size).
// Siempre se recalcula, nunca se guarda por separado.
func (e BookEntry) Notional() float64 {
	return e.Price * e.Size
}

// BestBid devuelve el mejor precio de compra (mayor bid).
// Devuelve 0 si no hay bids.
func (ob OrderBook) BestBid() float64 {
	if len(ob.Bids) == 0 {
		return 0
	}
	return ob.Bids[0].Price
}

// BestAsk devuelve el mejor precio de venta (menor ask).
// Devuelve 0 si no hay asks.
func (ob OrderBook) BestAsk() float64 {
	if len(ob.Asks) == 0 {
		return 0
	}
	return ob.Asks[0].Price
}

// ProtectionAt devuelve el notional acumulado de los bids con precio
// estrictamente mayor que price: el volumen que tendría que consumirse
// antes de alcanzar una orden descansando en price. Un nivel empatado
// con price no suma — ahí descansa nuestra propia orden y no cuenta
// como protección.
func (ob OrderBook) ProtectionAt(price float64) float64 {
	var total float64
	for _, b := range ob.Bids {
		switch {
		case b.Price > price+priceEpsilon:
			total += b.Notional()
		case math.Abs(b.Price-price) <= priceEpsilon:
			// nivel propio
		default:
			return total
		}
	}
	return total
}

// BidRank devuelve la posición 1-based que ocupa price en la escalera
// de bids ordenada de mejor a peor.
func (ob OrderBook) BidRank(price float64) int {
	rank := 1
	for _, b := range ob.Bids {
		if b.Price > price+priceEpsilon {
			rank++
			continue
		}
		break
	}
	return rank
}
