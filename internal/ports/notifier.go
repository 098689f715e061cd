package ports

import (
	"context"

	"github.com/0xwenjian/opinion-mmscript/internal/domain"
)

// Notifier entrega alertas al operador (fill detectado, sin precio
// seguro, ajuste realizado, reporte de estado).
type Notifier interface {
	// Send entrega una alerta de texto libre.
	Send(ctx context.Context, title, body string) error

	// SendReport entrega el reporte periódico de estado.
	SendReport(ctx context.Context, report domain.StatusReport) error
}
