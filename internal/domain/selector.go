package domain

import "math"

const (
	// PriceTick es el incremento mínimo de precio del venue.
	PriceTick = 0.001
	// MinPrice es el suelo absoluto para un precio calculado.
	MinPrice = 0.01
)

// SafeBidPrice busca un precio de compra "seguro": uno con al menos
// minProtection de notional acumulado en los bids por delante.
//
// Recorre los niveles de mejor a peor acumulando notional. El primer
// nivel i que completa el umbral define el precio: level[i].price − tick,
// un puesto detrás del nivel que nos protege. Así la protección se
// mantiene incluso si ese nivel se consume desde su propia cola.
// El rank estimado de la nueva orden es i+2.
//
// maxRank (1-based) limita hasta qué puesto se acepta descansar;
// maxRank <= 0 desactiva el límite. La igualdad exacta con el umbral
// cuenta como satisfecha.
func SafeBidPrice(ob OrderBook, minProtection float64, maxRank int) (price float64, rank int, ok bool) {
	if len(ob.Bids) == 0 || minProtection <= 0 {
		return 0, 0, false
	}

	var cumulative float64
	for i, level := range ob.Bids {
		estRank := i + 2
		if maxRank > 0 && estRank > maxRank {
			break
		}

		cumulative += level.Notional()
		if cumulative >= minProtection {
			p := level.Price - PriceTick
			if p < MinPrice {
				p = MinPrice
			}
			return roundPrice(p), estRank, true
		}
	}

	return 0, 0, false
}

// roundPrice redondea a 4 decimales, la precisión de precios del venue.
func roundPrice(v float64) float64 {
	return math.Round(v*10000) / 10000
}
