package execution

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"signal-systemv1/internal/model"
)

// Journal persists recorded trades to SQLite for analysis and audit.
// Best-effort: the in-memory ledger is the source of truth for performance
// numbers, the journal only survives restarts.
type Journal struct {
	mu sync.Mutex
	db *sql.DB
}

// NewJournal opens (or creates) a SQLite trade journal.
func NewJournal(dbPath string) (*Journal, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("journal: open: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	schema := `
	CREATE TABLE IF NOT EXISTS trades (
		id           TEXT PRIMARY KEY,
		product      TEXT NOT NULL,
		side         TEXT NOT NULL,
		amount       REAL NOT NULL,
		price        REAL NOT NULL,
		fees         REAL NOT NULL DEFAULT 0,
		simulated    INTEGER NOT NULL DEFAULT 0,
		realized_pnl REAL NOT NULL DEFAULT 0,
		strategy     TEXT,
		executed_at  DATETIME NOT NULL,
		created_at   DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_trades_product ON trades(product);
	CREATE INDEX IF NOT EXISTS idx_trades_executed_at ON trades(executed_at);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal: schema: %w", err)
	}

	return &Journal{db: db}, nil
}

// Record persists a trade. strategy names the emitting strategy instance.
func (j *Journal) Record(trade model.Trade, strategy string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	simulated := 0
	if trade.Simulated {
		simulated = 1
	}
	_, err := j.db.Exec(
		`INSERT INTO trades (id, product, side, amount, price, fees, simulated, realized_pnl, strategy, executed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		trade.ID,
		trade.Product.String(),
		string(trade.Side),
		trade.Amount,
		trade.Price,
		trade.Fees,
		simulated,
		trade.RealizedPnL,
		strategy,
		trade.TS.Format(time.RFC3339Nano),
	)
	return err
}

// Recent returns the last limit trades, newest first.
func (j *Journal) Recent(limit int) ([]model.Trade, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	rows, err := j.db.Query(
		`SELECT id, product, side, amount, price, fees, simulated, realized_pnl, executed_at
		 FROM trades ORDER BY executed_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trades []model.Trade
	for rows.Next() {
		var (
			t         model.Trade
			product   string
			side      string
			simulated int
			executed  string
		)
		if err := rows.Scan(&t.ID, &product, &side, &t.Amount, &t.Price, &t.Fees,
			&simulated, &t.RealizedPnL, &executed); err != nil {
			return nil, err
		}
		t.Product = model.ProductID(product)
		t.Side = model.Side(side)
		t.Simulated = simulated == 1
		if ts, err := time.Parse(time.RFC3339Nano, executed); err == nil {
			t.TS = ts
		}
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

// Close closes the journal database.
func (j *Journal) Close() error {
	return j.db.Close()
}
