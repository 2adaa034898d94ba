package storage

// sqlite.go — journal de paper trading.
//
// Estrategia:
//   - `orders`: UNA fila por orden (UPSERT por id). Cada transición de estado
//     reescribe la fila; no guardamos historial de transiciones.
//   - `trades`: UNA fila por trade (UPSERT por id), reescrita al resolver.
//   - Tiempos en UTC RFC3339 de ancho fijo, legibles con sqlite3 y
//     ordenables como TEXT.
//
// El engine mantiene su estado en memoria; esta DB es un journal para
// sobrevivir reinicios y para el reporte offline (-report).

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/alejandrodnm/updownbot/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
-- Una fila por orden, upsert por id
CREATE TABLE IF NOT EXISTS orders (
    id          TEXT PRIMARY KEY,
    strategy    TEXT NOT NULL,
    window_slug TEXT NOT NULL,
    outcome     TEXT NOT NULL,
    price       REAL NOT NULL,
    size        REAL NOT NULL,
    filled_size REAL NOT NULL DEFAULT 0,
    status      TEXT NOT NULL,
    created_at  TEXT NOT NULL,
    updated_at  TEXT NOT NULL
);

-- Una fila por trade, upsert por id
CREATE TABLE IF NOT EXISTS trades (
    id              TEXT PRIMARY KEY,
    strategy        TEXT NOT NULL,
    window_slug     TEXT NOT NULL,
    outcome         TEXT NOT NULL,
    entry_price     REAL NOT NULL,
    size            REAL NOT NULL,
    filled_size     REAL NOT NULL DEFAULT 0,
    entry_time      TEXT NOT NULL,
    resolution_time TEXT,
    result          TEXT NOT NULL,
    pnl             REAL NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_orders_status   ON orders(status);
CREATE INDEX IF NOT EXISTS idx_orders_window   ON orders(window_slug);
CREATE INDEX IF NOT EXISTS idx_trades_strategy ON trades(strategy);
CREATE INDEX IF NOT EXISTS idx_trades_result   ON trades(result);
`

// SQLiteStorage implementa ports.Storage usando SQLite (pure Go, sin CGo).
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage abre (o crea) la base de datos en la ruta dada.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStorage: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	return &SQLiteStorage{db: db}, nil
}

// ApplySchema crea las tablas e índices si no existen.
func (s *SQLiteStorage) ApplySchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("storage.ApplySchema: %w", err)
	}
	return nil
}

// SaveOrder hace upsert del estado actual de la orden.
func (s *SQLiteStorage) SaveOrder(ctx context.Context, o domain.Order) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO orders
			(id, strategy, window_slug, outcome, price, size, filled_size,
			 status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			filled_size = excluded.filled_size,
			status      = excluded.status,
			updated_at  = excluded.updated_at
	`,
		o.ID,
		string(o.Strategy),
		o.WindowSlug,
		string(o.Outcome),
		o.Price,
		o.Size,
		o.FilledSize,
		string(o.Status),
		formatTime(o.CreatedAt),
		formatTime(o.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("storage.SaveOrder: upsert %s: %w", o.ID, err)
	}
	return nil
}

// SaveTrade hace upsert del estado actual del trade.
func (s *SQLiteStorage) SaveTrade(ctx context.Context, t domain.Trade) error {
	var resolutionTime any
	if t.ResolutionTime != nil {
		resolutionTime = formatTime(*t.ResolutionTime)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO trades
			(id, strategy, window_slug, outcome, entry_price, size, filled_size,
			 entry_time, resolution_time, result, pnl)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			filled_size     = excluded.filled_size,
			resolution_time = excluded.resolution_time,
			result          = excluded.result,
			pnl             = excluded.pnl
	`,
		t.ID,
		string(t.Strategy),
		t.WindowSlug,
		string(t.Outcome),
		t.EntryPrice,
		t.Size,
		t.FilledSize,
		formatTime(t.EntryTime),
		resolutionTime,
		string(t.Result),
		t.PnL,
	)
	if err != nil {
		return fmt.Errorf("storage.SaveTrade: upsert %s: %w", t.ID, err)
	}
	return nil
}

// GetOrders devuelve todas las órdenes, las más antiguas primero.
func (s *SQLiteStorage) GetOrders(ctx context.Context) ([]domain.Order, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, strategy, window_slug, outcome, price, size, filled_size,
		       status, created_at, updated_at
		FROM orders
		ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("storage.GetOrders: query: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		var o domain.Order
		var strategy, outcome, status, createdAt, updatedAt string

		if err := rows.Scan(
			&o.ID, &strategy, &o.WindowSlug, &outcome,
			&o.Price, &o.Size, &o.FilledSize,
			&status, &createdAt, &updatedAt,
		); err != nil {
			return nil, fmt.Errorf("storage.GetOrders: scan row: %w", err)
		}

		o.Strategy = domain.Strategy(strategy)
		o.Outcome = domain.Outcome(outcome)
		o.Status = domain.OrderStatus(status)
		o.CreatedAt, err = parseTime(createdAt)
		if err != nil {
			return nil, fmt.Errorf("storage.GetOrders: row %s: %w", o.ID, err)
		}
		o.UpdatedAt, err = parseTime(updatedAt)
		if err != nil {
			return nil, fmt.Errorf("storage.GetOrders: row %s: %w", o.ID, err)
		}
		orders = append(orders, o)
	}

	return orders, rows.Err()
}

// GetTrades devuelve los trades de una estrategia, o todos si strategy es
// vacío. Los más antiguos primero.
func (s *SQLiteStorage) GetTrades(ctx context.Context, strategy domain.Strategy) ([]domain.Trade, error) {
	query := `
		SELECT id, strategy, window_slug, outcome, entry_price, size, filled_size,
		       entry_time, resolution_time, result, pnl
		FROM trades
	`
	var args []any
	if strategy != "" {
		query += ` WHERE strategy = ?`
		args = append(args, string(strategy))
	}
	query += ` ORDER BY entry_time ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("storage.GetTrades: query: %w", err)
	}
	defer rows.Close()

	var trades []domain.Trade
	for rows.Next() {
		var t domain.Trade
		var strat, outcome, result, entryTime string
		var resolutionTime sql.NullString

		if err := rows.Scan(
			&t.ID, &strat, &t.WindowSlug, &outcome,
			&t.EntryPrice, &t.Size, &t.FilledSize,
			&entryTime, &resolutionTime, &result, &t.PnL,
		); err != nil {
			return nil, fmt.Errorf("storage.GetTrades: scan row: %w", err)
		}

		t.Strategy = domain.Strategy(strat)
		t.Outcome = domain.Outcome(outcome)
		t.Result = domain.TradeResult(result)
		t.EntryTime, err = parseTime(entryTime)
		if err != nil {
			return nil, fmt.Errorf("storage.GetTrades: row %s: %w", t.ID, err)
		}
		if resolutionTime.Valid {
			rt, err := parseTime(resolutionTime.String)
			if err != nil {
				return nil, fmt.Errorf("storage.GetTrades: row %s: %w", t.ID, err)
			}
			t.ResolutionTime = &rt
		}
		trades = append(trades, t)
	}

	return trades, rows.Err()
}

// Close cierra la conexión a la base de datos.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// --- helpers internos ---

// timeLayout es RFC3339 con nanosegundos de ancho fijo. Las lecturas ordenan
// por estas columnas TEXT, y solo con anchura fija el orden lexicográfico
// coincide con el cronológico.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t, nil
}
