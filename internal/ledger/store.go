package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/quantbridge/fix-client-core/internal/fixmsg"
)

// Store is the durable append-only execution history. Every report the
// ledger sees is written here, including reports for unknown orders.
type Store struct {
	db *sql.DB
}

// OpenStore creates or opens the execution history database.
func OpenStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

func (s *Store) migrate() error {
	queries := []string{
		`PRAGMA journal_mode=WAL;`,
		`PRAGMA synchronous=NORMAL;`,
		`CREATE TABLE IF NOT EXISTS execution_reports (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			cl_ord_id INTEGER NOT NULL,
			symbol TEXT NOT NULL,
			side TEXT NOT NULL,
			price REAL NOT NULL,
			ord_type TEXT NOT NULL,
			ord_status TEXT NOT NULL,
			order_qty INTEGER NOT NULL,
			min_qty INTEGER NOT NULL,
			cum_qty INTEGER NOT NULL,
			leaves_qty INTEGER NOT NULL,
			transact_unix_millis INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_execution_reports_cl_ord_id
			ON execution_reports(cl_ord_id)`,
	}

	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute migration: %w", err)
		}
	}

	return nil
}

// Append writes one execution report.
func (s *Store) Append(ctx context.Context, r ExecutionReport) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO execution_reports
			(cl_ord_id, symbol, side, price, ord_type, ord_status,
			 order_qty, min_qty, cum_qty, leaves_qty, transact_unix_millis)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ClOrdID, r.Symbol, string(r.Side), r.Price, string(r.OrdType),
		string(r.Status), r.OrderQty, r.MinQty, r.CumQty, r.LeavesQty,
		r.TransactTime.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert execution report: %w", err)
	}
	return nil
}

// List returns the most recent reports in insertion order, oldest first.
func (s *Store) List(ctx context.Context, limit int) ([]ExecutionReport, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT cl_ord_id, symbol, side, price, ord_type, ord_status,
			order_qty, min_qty, cum_qty, leaves_qty, transact_unix_millis
		 FROM execution_reports
		 ORDER BY id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query execution reports: %w", err)
	}
	defer rows.Close()

	var reports []ExecutionReport
	for rows.Next() {
		var (
			r            ExecutionReport
			side, otype  string
			status       string
			transactUnix int64
		)
		err := rows.Scan(
			&r.ClOrdID, &r.Symbol, &side, &r.Price, &otype, &status,
			&r.OrderQty, &r.MinQty, &r.CumQty, &r.LeavesQty, &transactUnix,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan execution report: %w", err)
		}
		r.Side = fixmsg.Side(side)
		r.OrdType = fixmsg.OrdType(otype)
		r.Status = fixmsg.OrdStatus(status)
		r.TransactTime = time.UnixMilli(transactUnix).UTC()
		reports = append(reports, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate execution reports: %w", err)
	}

	// Oldest first.
	for i, j := 0, len(reports)-1; i < j; i, j = i+1, j-1 {
		reports[i], reports[j] = reports[j], reports[i]
	}
	return reports, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
