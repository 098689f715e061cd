package maker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(hour, minute int) time.Time {
	return time.Date(2025, 3, 1, hour, minute, 0, 0, time.UTC)
}

func newTestMonitor(venue *fakeVenue) (*Monitor, *Manager, *fakeNotifier) {
	mgr, _, notifier := newTestManager(venue)
	mon := NewMonitor(Config{
		Interval:     time.Millisecond,
		StartupPause: time.Millisecond,
		Markets:      []MarketConfig{testMarketConfig()},
	}, mgr)
	return mon, mgr, notifier
}

func TestMaybeReport_OncePerHour(t *testing.T) {
	venue := newFakeVenue(bidsBook(level(0.626, 2000)))
	mon, _, notifier := newTestMonitor(venue)
	ctx := context.Background()

	// Minuto 0: se envía y se marca la hora.
	mon.maybeReport(ctx, at(14, 0))
	assert.Len(t, notifier.reports, 1)

	// Ticks tardíos dentro del mismo minuto no duplican.
	mon.maybeReport(ctx, at(14, 0))
	mon.maybeReport(ctx, at(14, 1))
	assert.Len(t, notifier.reports, 1)

	// Pasado el minuto 1 se rearma el marcador.
	mon.maybeReport(ctx, at(14, 30))
	assert.Len(t, notifier.reports, 1)

	// La hora siguiente vuelve a enviar.
	mon.maybeReport(ctx, at(15, 0))
	assert.Len(t, notifier.reports, 2)
}

func TestMaybeReport_MidHourDoesNothing(t *testing.T) {
	venue := newFakeVenue(bidsBook(level(0.626, 2000)))
	mon, _, notifier := newTestMonitor(venue)

	for minute := 2; minute < 60; minute += 7 {
		mon.maybeReport(context.Background(), at(10, minute))
	}
	assert.Empty(t, notifier.reports)
}

func TestTick_IdleMarketIsSkipped(t *testing.T) {
	venue := newFakeVenue(bidsBook(level(0.626, 2000)))
	mon, mgr, _ := newTestMonitor(venue)
	mon.now = func() time.Time { return at(10, 30) }

	// Sin orden trackeada el tick no toca el venue.
	require.False(t, mgr.HasOrder(1))
	mon.tick(context.Background())

	assert.Empty(t, venue.placed)
	assert.Empty(t, venue.cancelled)
}

func TestRun_PlacesThenDrainsOnCancel(t *testing.T) {
	venue := newFakeVenue(bidsBook(level(0.626, 2000)))
	mon, mgr, notifier := newTestMonitor(venue)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = mon.Run(ctx)
	}()

	// Esperar el placement inicial y algunos ticks.
	require.Eventually(t, func() bool { return venue.placedCount() == 1 },
		2*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("monitor did not stop after cancel")
	}

	// Shutdown limpio: la orden quedó cancelada en el venue.
	assert.False(t, mgr.HasOrder(1))
	assert.Len(t, venue.cancelled, 1)

	// El reporte inicial salió al arrancar.
	assert.NotEmpty(t, notifier.reports)
}

func TestNewMonitor_Defaults(t *testing.T) {
	mon := NewMonitor(Config{}, nil)
	assert.Equal(t, defaultInterval, mon.cfg.Interval)
	assert.Equal(t, defaultStartupPause, mon.cfg.StartupPause)
	assert.Equal(t, -1, mon.lastHour)
}
