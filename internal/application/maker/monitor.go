package maker

// monitor.go — polling loop and report scheduling.

import (
	"context"
	"log/slog"
	"time"
)

const (
	defaultInterval     = 1 * time.Second
	defaultStartupPause = 1 * time.Second
	drainTimeout        = 30 * time.Second
)

// Config controla el loop de monitoreo.
type Config struct {
	Interval     time.Duration // periodo del tick, default 1s
	StartupPause time.Duration // pausa entre placements iniciales
	Markets      []MarketConfig
}

// Monitor corre el loop: placements iniciales, ticks periódicos y el
// reporte horario. Single-goroutine: todas las operaciones del manager
// pasan por acá.
type Monitor struct {
	cfg      Config
	mgr      *Manager
	now      func() time.Time
	lastHour int // última hora (0-23) con reporte enviado, -1 si ninguna
}

// NewMonitor builds the loop around an already-configured manager.
func NewMonitor(cfg Config, mgr *Manager) *Monitor {
	if cfg.Interval <= 0 {
		cfg.Interval = defaultInterval
	}
	if cfg.StartupPause <= 0 {
		cfg.StartupPause = defaultStartupPause
	}
	return &Monitor{
		cfg:      cfg,
		mgr:      mgr,
		now:      time.Now,
		lastHour: -1,
	}
}

// Run blocks until the context is cancelled, then drains all resting
// orders before returning.
func (m *Monitor) Run(ctx context.Context) error {
	slog.Info("monitor: starting",
		"markets", len(m.cfg.Markets),
		"interval", m.cfg.Interval,
	)

	for _, mc := range m.cfg.Markets {
		if ctx.Err() != nil {
			break
		}
		if _, err := m.mgr.Place(ctx, mc); err != nil {
			slog.Error("monitor: initial placement failed",
				"market_id", mc.MarketID, "err", err)
		}
		m.sleep(ctx, m.cfg.StartupPause)
	}

	m.sendReport(ctx)

	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.drain()
			return nil
		case <-ticker.C:
			m.tick(ctx)
		}
	}
}

func (m *Monitor) tick(ctx context.Context) {
	for _, mc := range m.cfg.Markets {
		if ctx.Err() != nil {
			return
		}
		// Markets without a resting order stay idle: after a fill,
		// re-entry is an operator decision, not an automatic one.
		if !m.mgr.HasOrder(mc.MarketID) {
			continue
		}
		if err := m.mgr.CheckAndAdjust(ctx, mc); err != nil {
			slog.Error("monitor: tick failed",
				"market_id", mc.MarketID, "err", err)
		}
	}
	m.maybeReport(ctx, m.now())
}

// maybeReport envía el reporte una sola vez por hora, en el minuto 0.
// El marcador se resetea recién pasado el minuto 1, así un tick tardío
// dentro del mismo minuto no duplica el envío.
func (m *Monitor) maybeReport(ctx context.Context, now time.Time) {
	switch {
	case now.Minute() == 0:
		if now.Hour() != m.lastHour {
			m.sendReport(ctx)
			m.lastHour = now.Hour()
		}
	case now.Minute() > 1:
		m.lastHour = -1
	}
}

func (m *Monitor) sendReport(ctx context.Context) {
	report := m.mgr.BuildReport(ctx)
	if err := m.mgr.notifier.SendReport(ctx, report); err != nil {
		slog.Warn("monitor: report failed", "err", err)
	}
}

// drain cancela todo con un contexto propio: el del loop ya está muerto.
func (m *Monitor) drain() {
	slog.Info("monitor: shutting down, draining orders")
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	m.mgr.DrainAll(ctx)
	slog.Info("monitor: drain complete")
}

func (m *Monitor) sleep(ctx context.Context, d time.Duration) {
	select {
	case <-time.After(d):
	case <-ctx.Done():
	}
}
