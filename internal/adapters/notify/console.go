package notify

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/alejandrodnm/updownbot/internal/domain"
	"github.com/olekukonko/tablewriter"
)

// Console implementa ports.Notifier: eventos del loop como one-liners con
// timestamp, y tablas para el reporte del journal.
type Console struct {
	out io.Writer
}

// NewConsole crea un notificador que escribe a stdout.
func NewConsole() *Console {
	return &Console{out: os.Stdout}
}

// NewConsoleWriter crea un notificador para tests.
func NewConsoleWriter(w io.Writer) *Console {
	return &Console{out: w}
}

// NotifyOrderPlaced imprime una línea por orden colocada.
func (c *Console) NotifyOrderPlaced(o domain.Order) {
	fmt.Fprintf(c.out, "[%s] PLACED   [%s] %s @ $%.2f x %.0f (%s)\n",
		time.Now().Format("15:04:05"), o.Strategy, o.Outcome, o.Price, o.Size, o.WindowSlug)
}

// NotifyOrderFilled imprime una línea por fill simulado.
func (c *Console) NotifyOrderFilled(o domain.Order) {
	fmt.Fprintf(c.out, "[%s] FILLED   [%s] %s @ $%.2f x %.0f (%s)\n",
		time.Now().Format("15:04:05"), o.Strategy, o.Outcome, o.Price, o.FilledSize, o.WindowSlug)
}

// NotifyTradeResolved imprime una línea por trade resuelto, con el P&L.
func (c *Console) NotifyTradeResolved(t domain.Trade) {
	fmt.Fprintf(c.out, "[%s] RESOLVED [%s] %s -> %s, P&L $%+.2f (%s)\n",
		time.Now().Format("15:04:05"), t.Strategy, t.Outcome, t.Result, t.PnL, t.WindowSlug)
}

// PrintOrders imprime la tabla de órdenes del journal.
func (c *Console) PrintOrders(orders []domain.Order) {
	if len(orders) == 0 {
		fmt.Fprintln(c.out, "\n  No orders recorded yet.")
		return
	}

	fmt.Fprintf(c.out, "\n=== ORDERS (%d) ===\n", len(orders))

	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Strategy", "Outcome", "Price", "Size", "Filled", "Status", "Window")

	for i, o := range orders {
		table.Append(
			fmt.Sprintf("%d", i+1),
			string(o.Strategy),
			string(o.Outcome),
			fmt.Sprintf("$%.2f", o.Price),
			fmt.Sprintf("%.0f", o.Size),
			fmt.Sprintf("%.0f", o.FilledSize),
			string(o.Status),
			o.WindowSlug,
		)
	}
	table.Render()
}

// PrintTrades imprime la tabla de trades con P&L y el total.
func (c *Console) PrintTrades(trades []domain.Trade) {
	if len(trades) == 0 {
		fmt.Fprintln(c.out, "\n  No trades recorded yet.")
		return
	}

	fmt.Fprintf(c.out, "\n=== TRADES (%d) ===\n", len(trades))

	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Strategy", "Outcome", "Entry", "Size", "Result", "PnL", "Window")

	var totalPnL float64
	for i, t := range trades {
		totalPnL += t.PnL
		table.Append(
			fmt.Sprintf("%d", i+1),
			string(t.Strategy),
			string(t.Outcome),
			fmt.Sprintf("$%.2f", t.EntryPrice),
			fmt.Sprintf("%.0f", t.FilledSize),
			string(t.Result),
			fmt.Sprintf("$%+.2f", t.PnL),
			t.WindowSlug,
		)
	}
	table.Render()

	fmt.Fprintf(c.out, "  Total P&L: $%+.2f\n", totalPnL)
}

// PrintMetrics imprime el resumen por estrategia y el veredicto agregado.
func (c *Console) PrintMetrics(metrics []domain.StrategyMetrics) {
	fmt.Fprintf(c.out, "\n=== STRATEGY METRICS ===\n")

	table := tablewriter.NewWriter(c.out)
	table.Header("Strategy", "Trades", "Wins", "Losses", "Pending", "Win rate", "PnL", "Invested", "ROI")

	var totalPnL float64
	settled := 0
	for _, m := range metrics {
		totalPnL += m.TotalPnL
		settled += m.Wins + m.Losses
		table.Append(
			string(m.Strategy),
			fmt.Sprintf("%d", m.TotalTrades),
			fmt.Sprintf("%d", m.Wins),
			fmt.Sprintf("%d", m.Losses),
			fmt.Sprintf("%d", m.Pending),
			fmt.Sprintf("%.1f%%", m.WinRate()),
			fmt.Sprintf("$%+.2f", m.TotalPnL),
			fmt.Sprintf("$%.2f", m.TotalInvested),
			fmt.Sprintf("%.1f%%", m.ROI()),
		)
	}
	table.Render()

	switch {
	case settled == 0:
		fmt.Fprintln(c.out, "  No settled trades yet. Let it run through a few windows.")
	case totalPnL > 0:
		fmt.Fprintf(c.out, "  POSITIVE: paper trading is net profitable ($%+.2f).\n", totalPnL)
	default:
		fmt.Fprintf(c.out, "  NEGATIVE: paper trading is not profitable ($%+.2f).\n", totalPnL)
	}
}
