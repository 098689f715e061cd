package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/0xwenjian/opinion-mmscript/internal/domain"
)

// Telegram implementa ports.Notifier vía la Bot API de Telegram.
// Se instancia una vez con su configuración; no hay estado global.
type Telegram struct {
	token  string
	chatID string
	alias  string // alias legible de la wallet, opcional
	wallet string
	apiURL string
	client *http.Client
}

// NewTelegram crea un notificador de Telegram. alias o wallet se usan
// para el pie de página que identifica la cuenta en cada mensaje.
func NewTelegram(token, chatID, alias, wallet string) *Telegram {
	return &Telegram{
		token:  token,
		chatID: chatID,
		alias:  alias,
		wallet: wallet,
		apiURL: "https://api.telegram.org",
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Send entrega una alerta con formato HTML y el footer de cuenta.
func (t *Telegram) Send(ctx context.Context, title, body string) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "<b>%s</b>\n━━━━━━━━━━━━━━━\n%s", title, body)
	sb.WriteString(t.footer())
	return t.post(ctx, sb.String())
}

// SendReport entrega el reporte periódico de estado.
func (t *Telegram) SendReport(ctx context.Context, report domain.StatusReport) error {
	var sb strings.Builder
	sb.WriteString("📊 <b>Status report</b>\n━━━━━━━━━━━━━━━\n")

	if report.BalanceKnown {
		fmt.Fprintf(&sb, "💰 Available: <code>$%.2f</code>\n", report.Balance.Available)
		fmt.Fprintf(&sb, "🔒 Frozen: <code>$%.2f</code>\n", report.Balance.Frozen)
		fmt.Fprintf(&sb, "💵 Total: <code>$%.2f</code>\n", report.Balance.Total)
	} else {
		sb.WriteString("💰 Balance: <i>unavailable</i>\n")
	}

	fmt.Fprintf(&sb, "📦 Resting orders: <code>%d</code>\n", len(report.Orders))
	fmt.Fprintf(&sb, "💼 Resting notional: <code>$%.2f</code>\n", report.TotalAmount())
	if report.ObserveOnly {
		sb.WriteString("⚠️ Observe-only: placement paused (insufficient balance)\n")
	}
	sb.WriteString("━━━━━━━━━━━━━━━\n")

	if len(report.Orders) == 0 {
		sb.WriteString("<i>no resting orders</i>")
	}
	for i, o := range report.Orders {
		if i > 0 {
			sb.WriteString("\n")
		}
		pos := "unknown"
		if o.RankKnown {
			pos = fmt.Sprintf("bid %d | protection $%.0f", o.Rank, o.Protection)
		}
		fmt.Fprintf(&sb, "📌 %s\n   price <code>%.4f</code> | %s\n   amount <code>$%.2f</code> | resting %s\n",
			truncate(o.Title, 40), o.Price, pos, o.Amount, formatDuration(o.RestingFor))
	}

	fmt.Fprintf(&sb, "\n━━━━━━━━━━━━━━━\n⏰ %s", report.At.Format("2006-01-02 15:04:05"))
	sb.WriteString(t.footer())
	return t.post(ctx, sb.String())
}

// footer identifica la cuenta en cada mensaje: alias si existe, si no
// la wallet abreviada.
func (t *Telegram) footer() string {
	switch {
	case t.alias != "":
		return fmt.Sprintf("\n━━━━━━━━━━━━━━━\n🏷️ <b>%s</b>", t.alias)
	case len(t.wallet) > 10:
		return fmt.Sprintf("\n━━━━━━━━━━━━━━━\n👤 <code>%s...%s</code>", t.wallet[:6], t.wallet[len(t.wallet)-4:])
	default:
		return ""
	}
}

// post envía el mensaje vía sendMessage.
func (t *Telegram) post(ctx context.Context, text string) error {
	if t.token == "" || t.chatID == "" {
		return nil
	}

	payload := map[string]string{
		"chat_id":    t.chatID,
		"text":       text,
		"parse_mode": "HTML",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("telegram: marshal payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", t.apiURL, t.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("telegram: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram: send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("telegram: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

// truncate corta s a maxLen caracteres con elipsis. Opera sobre runas:
// los títulos de mercado pueden tener caracteres multibyte y un corte
// por bytes los rompería.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}

// formatDuration muestra una duración en horas o segundos según el tamaño.
func formatDuration(d time.Duration) string {
	if d >= time.Hour {
		return fmt.Sprintf("%.1fh", d.Hours())
	}
	if d >= time.Minute {
		return fmt.Sprintf("%.0fm", d.Minutes())
	}
	return fmt.Sprintf("%.0fs", d.Seconds())
}
