package ports

import (
	"context"
	"time"

	"github.com/0xwenjian/opinion-mmscript/internal/domain"
)

// OrderJournal persiste el ciclo de vida de cada orden colocada.
// Las fallas del journal se loguean y nunca bloquean el trading.
type OrderJournal interface {
	// RecordPlacement registra una orden recién colocada junto con el
	// rank y la protección que tenía al momento de colocarla.
	RecordPlacement(ctx context.Context, order domain.TrackedOrder, rank int, protection float64) error

	// RecordCancel cierra una orden cancelada por el propio agente.
	RecordCancel(ctx context.Context, localID string, restingFor time.Duration) error

	// RecordFill cierra una orden con monto ejecutado (fill no esperado).
	RecordFill(ctx context.Context, localID string, filledAmount float64, status string, restingFor time.Duration) error

	// Stats devuelve los contadores agregados del run.
	Stats(ctx context.Context) (domain.RunStats, error)

	// Close cierra la conexión a la base de datos limpiamente.
	Close() error
}
