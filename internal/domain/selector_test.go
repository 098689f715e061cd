package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// level arma un BookEntry con un notional dado en moneda quote.
func level(price, notional float64) BookEntry {
	return BookEntry{Price: price, Size: notional / price}
}

func bidsBook(levels ...BookEntry) OrderBook {
	return OrderBook{TokenID: "yes", Bids: levels}
}

func TestSafeBidPrice_FirstLevelCovers(t *testing.T) {
	// El primer nivel solo ya cubre el umbral: descansamos un tick
	// detrás de él, en el puesto 2.
	ob := bidsBook(
		level(0.6260, 2000),
		level(0.6250, 800),
		level(0.6240, 450),
	)

	price, rank, ok := SafeBidPrice(ob, 500, 0)

	require.True(t, ok)
	assert.InDelta(t, 0.6250, price, 1e-9)
	assert.Equal(t, 2, rank)
}

func TestSafeBidPrice_ExactThresholdCounts(t *testing.T) {
	// Igualdad exacta con el umbral cuenta como cubierto.
	ob := bidsBook(
		level(0.50, 500),
		level(0.49, 300),
	)

	price, rank, ok := SafeBidPrice(ob, 500, 0)

	require.True(t, ok)
	assert.InDelta(t, 0.499, price, 1e-9)
	assert.Equal(t, 2, rank)
}

func TestSafeBidPrice_ThinBookFindsNothing(t *testing.T) {
	ob := bidsBook(
		level(0.50, 100),
		level(0.49, 100),
		level(0.48, 100),
	)

	_, _, ok := SafeBidPrice(ob, 5000, 0)
	assert.False(t, ok)
}

func TestSafeBidPrice_EmptyBook(t *testing.T) {
	_, _, ok := SafeBidPrice(OrderBook{}, 500, 0)
	assert.False(t, ok)
}

func TestSafeBidPrice_NonPositiveThreshold(t *testing.T) {
	ob := bidsBook(level(0.50, 1000))
	_, _, ok := SafeBidPrice(ob, 0, 0)
	assert.False(t, ok)
}

func TestSafeBidPrice_AccumulatesAcrossLevels(t *testing.T) {
	// Ningún nivel solo alcanza; la suma de los tres primeros sí.
	ob := bidsBook(
		level(0.60, 200),
		level(0.59, 200),
		level(0.58, 200),
		level(0.57, 50),
	)

	price, rank, ok := SafeBidPrice(ob, 550, 0)

	require.True(t, ok)
	assert.InDelta(t, 0.579, price, 1e-9)
	assert.Equal(t, 4, rank)
}

func TestSafeBidPrice_RankCapCutsSearch(t *testing.T) {
	// Con cap en 3 solo se consideran los dos primeros niveles
	// (rank estimado i+2 ≤ 3); el umbral recién se cubre en el tercero.
	ob := bidsBook(
		level(0.60, 200),
		level(0.59, 200),
		level(0.58, 200),
	)

	_, _, ok := SafeBidPrice(ob, 550, 3)
	assert.False(t, ok)

	// Sin cap, el mismo libro sí tiene precio seguro.
	price, rank, ok := SafeBidPrice(ob, 550, 0)
	require.True(t, ok)
	assert.InDelta(t, 0.579, price, 1e-9)
	assert.Equal(t, 4, rank)
}

func TestSafeBidPrice_FloorsAtMinPrice(t *testing.T) {
	ob := bidsBook(level(0.010, 1000))

	price, rank, ok := SafeBidPrice(ob, 500, 0)

	require.True(t, ok)
	assert.InDelta(t, MinPrice, price, 1e-9)
	assert.Equal(t, 2, rank)
}

func TestSafeBidPrice_HigherThresholdNeverImprovesPrice(t *testing.T) {
	// Subir el umbral solo puede empujar el precio hacia abajo (más
	// profundo en el libro), nunca hacia arriba.
	ob := bidsBook(
		level(0.62, 300),
		level(0.61, 300),
		level(0.60, 300),
		level(0.59, 300),
		level(0.58, 300),
	)

	prev := 1.0
	for _, threshold := range []float64{100, 300, 600, 900, 1200} {
		price, _, ok := SafeBidPrice(ob, threshold, 0)
		require.True(t, ok, "threshold %.0f", threshold)
		assert.LessOrEqual(t, price, prev, "threshold %.0f", threshold)
		prev = price
	}
}

func TestSafeBidPrice_AddingDepthNeverWorsensPrice(t *testing.T) {
	// Engordar un nivel mejor que el precio seguro actual solo puede
	// mover la recomendación a un nivel igual o mejor.
	base := bidsBook(
		level(0.62, 300),
		level(0.61, 300),
		level(0.60, 300),
	)
	before, _, ok := SafeBidPrice(base, 500, 0)
	require.True(t, ok)

	fatter := bidsBook(
		level(0.62, 900), // el mejor nivel ahora cubre solo
		level(0.61, 300),
		level(0.60, 300),
	)
	after, _, ok := SafeBidPrice(fatter, 500, 0)
	require.True(t, ok)
	assert.GreaterOrEqual(t, after, before)
}

func TestSafeBidPrice_RemovingDepthNeverImprovesPrice(t *testing.T) {
	base := bidsBook(
		level(0.62, 600),
		level(0.61, 300),
		level(0.60, 300),
	)
	before, _, ok := SafeBidPrice(base, 500, 0)
	require.True(t, ok)

	thinner := bidsBook(
		level(0.62, 100),
		level(0.61, 300),
		level(0.60, 300),
	)
	after, _, ok := SafeBidPrice(thinner, 500, 0)
	require.True(t, ok)
	assert.LessOrEqual(t, after, before)
}

func TestSafeBidPrice_ResultSatisfiesProtection(t *testing.T) {
	// Propiedad central: el notional estrictamente mejor que el precio
	// devuelto cubre el umbral.
	ob := bidsBook(
		level(0.62, 250),
		level(0.61, 250),
		level(0.605, 100),
		level(0.60, 700),
	)

	for _, threshold := range []float64{100, 400, 500, 1000} {
		price, _, ok := SafeBidPrice(ob, threshold, 0)
		require.True(t, ok, "threshold %.0f", threshold)
		assert.GreaterOrEqual(t, ob.ProtectionAt(price), threshold, "threshold %.0f", threshold)
	}
}

func TestSafeBidPrice_Deterministic(t *testing.T) {
	// Mismo libro, mismo resultado: el selector es una función pura
	// del snapshot.
	ob := bidsBook(
		level(0.55, 400),
		level(0.54, 400),
	)

	p1, r1, ok1 := SafeBidPrice(ob, 600, 5)
	p2, r2, ok2 := SafeBidPrice(ob, 600, 5)

	require.True(t, ok1)
	require.True(t, ok2)
	assert.Equal(t, p1, p2)
	assert.Equal(t, r1, r2)
}
