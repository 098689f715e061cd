package storage

// sqlite.go — journal de órdenes en SQLite (pure Go, sin CGo).
//
// Una fila por orden colocada. Las órdenes se cierran con outcome
// `cancelled` (ajuste propio) o `filled`/`partial` (fill no esperado),
// guardando cuánto tiempo descansaron. El journal es observabilidad:
// sus fallas se loguean aguas arriba y nunca frenan el trading.

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/0xwenjian/opinion-mmscript/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS orders (
    local_id      TEXT PRIMARY KEY,
    venue_id      TEXT    NOT NULL,
    market_id     INTEGER NOT NULL,
    title         TEXT,
    price         REAL    NOT NULL,
    amount        REAL    NOT NULL,
    rank          INTEGER NOT NULL DEFAULT 0,
    protection    REAL    NOT NULL DEFAULT 0,
    placed_at     DATETIME NOT NULL,
    closed_at     DATETIME,
    outcome       TEXT    NOT NULL DEFAULT 'open',
    filled_amount REAL    NOT NULL DEFAULT 0,
    venue_status  TEXT,
    resting_secs  REAL    NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_orders_market  ON orders(market_id);
CREATE INDEX IF NOT EXISTS idx_orders_outcome ON orders(outcome);
CREATE INDEX IF NOT EXISTS idx_orders_placed  ON orders(placed_at DESC);
`

// SQLiteJournal implementa ports.OrderJournal.
type SQLiteJournal struct {
	db *sql.DB
}

// NewSQLiteJournal abre (o crea) la base en la ruta dada y aplica el schema.
// Acepta ":memory:" para tests.
func NewSQLiteJournal(path string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteJournal: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteJournal: apply schema: %w", err)
	}

	return &SQLiteJournal{db: db}, nil
}

// RecordPlacement registra una orden recién colocada.
func (s *SQLiteJournal) RecordPlacement(ctx context.Context, order domain.TrackedOrder, rank int, protection float64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO orders (local_id, venue_id, market_id, title, price, amount, rank, protection, placed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		order.ID, order.OrderID, order.MarketID, order.Title,
		order.Price, order.Amount, rank, protection, order.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("storage.RecordPlacement: %w", err)
	}
	return nil
}

// RecordCancel cierra una orden cancelada por el agente.
func (s *SQLiteJournal) RecordCancel(ctx context.Context, localID string, restingFor time.Duration) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE orders SET outcome = 'cancelled', closed_at = ?, resting_secs = ?
		WHERE local_id = ?`,
		time.Now().UTC(), restingFor.Seconds(), localID,
	)
	if err != nil {
		return fmt.Errorf("storage.RecordCancel: %w", err)
	}
	return nil
}

// RecordFill cierra una orden con monto ejecutado.
func (s *SQLiteJournal) RecordFill(ctx context.Context, localID string, filledAmount float64, status string, restingFor time.Duration) error {
	outcome := "filled"
	if st := (domain.OrderStatus{Status: status, FilledAmount: filledAmount}); st.PartialFill() {
		outcome = "partial"
	}

	_, err := s.db.ExecContext(ctx, `
		UPDATE orders SET outcome = ?, closed_at = ?, filled_amount = ?, venue_status = ?, resting_secs = ?
		WHERE local_id = ?`,
		outcome, time.Now().UTC(), filledAmount, status, restingFor.Seconds(), localID,
	)
	if err != nil {
		return fmt.Errorf("storage.RecordFill: %w", err)
	}
	return nil
}

// Stats devuelve los contadores agregados de todas las órdenes registradas.
func (s *SQLiteJournal) Stats(ctx context.Context) (domain.RunStats, error) {
	var stats domain.RunStats
	row := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN outcome = 'open' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN outcome IN ('filled', 'partial') THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(amount), 0),
		       COALESCE(SUM(resting_secs), 0)
		FROM orders`)

	if err := row.Scan(
		&stats.TotalOrders,
		&stats.OpenOrders,
		&stats.UnexpectedFills,
		&stats.TotalNotional,
		&stats.TotalRestingSec,
	); err != nil {
		return domain.RunStats{}, fmt.Errorf("storage.Stats: %w", err)
	}
	return stats, nil
}

// Close cierra la conexión.
func (s *SQLiteJournal) Close() error {
	return s.db.Close()
}
