// Package storage provides SQLite-backed persistence for insider alerts.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/whalewatch/engine/internal/models"
	_ "modernc.org/sqlite"
)

// Storage wraps a SQLite database holding emitted alerts.
type Storage struct {
	db *sql.DB
}

// New opens or creates the SQLite database at dbPath.
// An empty dbPath defaults to $TMPDIR/whalewatch/data.db.
func New(dbPath string) (*Storage, error) {
	if dbPath == "" {
		dbPath = filepath.Join(os.TempDir(), "whalewatch", "data.db")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // single writer; WAL allows concurrent readers
	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}
	s := &Storage{db: db}
	if err := s.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) createTables() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS insider_alerts (
			id            TEXT PRIMARY KEY,
			wallet        TEXT NOT NULL,
			market_id     TEXT NOT NULL,
			market_title  TEXT,
			market_slug   TEXT,
			event_slug    TEXT,
			outcome       TEXT,
			side          TEXT,
			size          REAL NOT NULL,
			price         REAL NOT NULL,
			notional_usd  REAL NOT NULL,
			price_impact  REAL,
			insider_score REAL NOT NULL,
			trade_ts      INTEGER NOT NULL,
			detected_at   INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_trade_ts ON insider_alerts(trade_ts DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_wallet ON insider_alerts(wallet)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertAlert persists one alert. The caller treats a failure as a lost
// alert: log and proceed, no retry, no queue.
func (s *Storage) InsertAlert(ctx context.Context, alert *models.Alert) error {
	if err := alert.Validate(); err != nil {
		return fmt.Errorf("invalid alert: %w", err)
	}

	var impact sql.NullFloat64
	if alert.PriceImpact != nil {
		impact = sql.NullFloat64{Float64: *alert.PriceImpact, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO insider_alerts
			(id, wallet, market_id, market_title, market_slug, event_slug,
			 outcome, side, size, price, notional_usd, price_impact,
			 insider_score, trade_ts, detected_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		alert.ID, alert.Wallet, alert.MarketID, alert.MarketTitle, alert.MarketSlug,
		alert.EventSlug, alert.Outcome, alert.Side, alert.Size, alert.Price,
		alert.NotionalUSD, impact, alert.InsiderScore,
		alert.TradeTimestamp.Unix(), alert.DetectedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert alert: %w", err)
	}
	return nil
}

// ListAlerts returns stored alerts ordered by trade timestamp descending.
// A non-positive limit returns all alerts.
func (s *Storage) ListAlerts(ctx context.Context, limit int) ([]models.Alert, error) {
	query := `
		SELECT id, wallet, market_id, market_title, market_slug, event_slug,
		       outcome, side, size, price, notional_usd, price_impact,
		       insider_score, trade_ts, detected_at
		FROM insider_alerts ORDER BY trade_ts DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer rows.Close()

	alerts := []models.Alert{}
	for rows.Next() {
		var a models.Alert
		var impact sql.NullFloat64
		var tradeTS, detectedAtNano int64
		err := rows.Scan(
			&a.ID, &a.Wallet, &a.MarketID, &a.MarketTitle, &a.MarketSlug,
			&a.EventSlug, &a.Outcome, &a.Side, &a.Size, &a.Price,
			&a.NotionalUSD, &impact, &a.InsiderScore, &tradeTS, &detectedAtNano,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		if impact.Valid {
			v := impact.Float64
			a.PriceImpact = &v
		}
		a.TradeTimestamp = time.Unix(tradeTS, 0).UTC()
		a.DetectedAt = time.Unix(0, detectedAtNano).UTC()
		alerts = append(alerts, a)
	}

	return alerts, rows.Err()
}
