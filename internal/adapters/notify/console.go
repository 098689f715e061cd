package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/0xwenjian/opinion-mmscript/internal/domain"
)

// Console implementa ports.Notifier escribiendo a stdout.
type Console struct {
	out io.Writer
}

// NewConsole crea un notificador de consola.
func NewConsole() *Console {
	return &Console{out: os.Stdout}
}

// NewConsoleWriter crea un notificador de consola para tests.
func NewConsoleWriter(w io.Writer) *Console {
	return &Console{out: w}
}

// Send imprime la alerta en una línea con timestamp.
func (c *Console) Send(_ context.Context, title, body string) error {
	fmt.Fprintf(c.out, "[%s] %s — %s\n", time.Now().Format("15:04:05"), title, body)
	return nil
}

// SendReport imprime el reporte de estado como tabla.
func (c *Console) SendReport(_ context.Context, report domain.StatusReport) error {
	fmt.Fprintf(c.out, "\n[%s] status report — %d resting orders, $%.2f notional\n",
		report.At.Format("15:04:05"), len(report.Orders), report.TotalAmount())

	if report.BalanceKnown {
		fmt.Fprintf(c.out, "balance: available $%.2f | frozen $%.2f | total $%.2f\n",
			report.Balance.Available, report.Balance.Frozen, report.Balance.Total)
	}
	if report.ObserveOnly {
		fmt.Fprintln(c.out, "observe-only: placement paused (insufficient balance)")
	}

	if len(report.Orders) > 0 {
		table := tablewriter.NewWriter(c.out)
		table.Header("Market", "Price", "Rank", "Protection", "Amount", "Resting")

		for _, o := range report.Orders {
			rank, protection := "?", "?"
			if o.RankKnown {
				rank = fmt.Sprintf("%d", o.Rank)
				protection = fmt.Sprintf("$%.0f", o.Protection)
			}
			table.Append(
				truncate(o.Title, 40),
				fmt.Sprintf("%.4f", o.Price),
				rank,
				protection,
				fmt.Sprintf("$%.2f", o.Amount),
				formatDuration(o.RestingFor),
			)
		}
		table.Render()
	}

	s := report.Stats
	fmt.Fprintf(c.out, "run: %d orders placed | %d unexpected fills | $%.0f total notional | avg resting %.0fs\n\n",
		s.TotalOrders, s.UnexpectedFills, s.TotalNotional, s.AvgRestingSec())
	return nil
}
