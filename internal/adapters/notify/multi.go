package notify

import (
	"context"
	"log/slog"

	"github.com/0xwenjian/opinion-mmscript/internal/domain"
)

// Multi reparte cada notificación a varios sinks. La falla de un sink
// se loguea y no impide la entrega a los demás ni bloquea el loop.
type Multi struct {
	sinks []sink
}

type sink interface {
	Send(ctx context.Context, title, body string) error
	SendReport(ctx context.Context, report domain.StatusReport) error
}

// NewMulti crea un fan-out sobre los sinks dados.
func NewMulti(sinks ...sink) *Multi {
	return &Multi{sinks: sinks}
}

// Send entrega la alerta a todos los sinks.
func (m *Multi) Send(ctx context.Context, title, body string) error {
	for _, s := range m.sinks {
		if err := s.Send(ctx, title, body); err != nil {
			slog.Warn("notifier send failed", "title", title, "err", err)
		}
	}
	return nil
}

// SendReport entrega el reporte a todos los sinks.
func (m *Multi) SendReport(ctx context.Context, report domain.StatusReport) error {
	for _, s := range m.sinks {
		if err := s.SendReport(ctx, report); err != nil {
			slog.Warn("notifier report failed", "err", err)
		}
	}
	return nil
}
