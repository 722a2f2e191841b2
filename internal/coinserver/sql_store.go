package coinserver

import (
	"context"
	"embed"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
	"github.com/vadiminshakov/cointrack/internal/domain"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// SQLStore is a Store backed by SQLite.
type SQLStore struct {
	db *sqlx.DB
}

type coinRow struct {
	Symbol  string `db:"symbol"`
	Enabled bool   `db:"enabled"`
}

// OpenSQLStore connects to the SQLite database at path and applies pending migrations.
func OpenSQLStore(path string) (*SQLStore, error) {
	db, err := sqlx.Connect("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "connect coin db")
	}

	// a single connection keeps ":memory:" databases alive and serializes writers
	db.SetMaxOpenConns(1)

	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect(string(goose.DialectSQLite3)); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "set migration dialect")
	}
	if err := goose.Up(db.DB, "migrations"); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "apply migrations")
	}

	return &SQLStore{db: db}, nil
}

// SyncSymbols makes exactly the given symbols enabled. Listed symbols missing from the
// table are appended, tracked symbols absent from the list are disabled but kept.
func (s *SQLStore) SyncSymbols(ctx context.Context, symbols []string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin sync")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `UPDATE coins SET enabled = 0`); err != nil {
		return errors.Wrap(err, "disable coins")
	}

	for _, sym := range symbols {
		sym = domain.NormalizeSymbol(sym)
		if sym == "" {
			continue
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO coins (symbol, enabled, position)
			VALUES (?, 1, (SELECT COALESCE(MAX(position), 0) + 1 FROM coins))
			ON CONFLICT(symbol) DO UPDATE SET enabled = 1`, sym)
		if err != nil {
			return errors.Wrapf(err, "upsert coin %s", sym)
		}
	}

	return errors.Wrap(tx.Commit(), "commit sync")
}

// List returns coins in insertion order.
func (s *SQLStore) List(ctx context.Context) ([]domain.Coin, error) {
	var rows []coinRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT symbol, enabled FROM coins ORDER BY position`); err != nil {
		return nil, errors.Wrap(err, "list coins")
	}

	coins := make([]domain.Coin, 0, len(rows))
	for _, r := range rows {
		coins = append(coins, domain.Coin{Symbol: r.Symbol, Enabled: r.Enabled})
	}
	return coins, nil
}

// SetEnabled updates the flag for symbol.
func (s *SQLStore) SetEnabled(ctx context.Context, symbol string, enabled bool) (domain.Coin, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE coins SET enabled = ? WHERE symbol = ?`, enabled, symbol)
	if err != nil {
		return domain.Coin{}, errors.Wrapf(err, "update coin %s", symbol)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return domain.Coin{}, errors.Wrap(err, "rows affected")
	}
	if n == 0 {
		return domain.Coin{}, errors.Wrapf(ErrUnknownCoin, "set %q", symbol)
	}
	return domain.Coin{Symbol: symbol, Enabled: enabled}, nil
}

// Close closes the database.
func (s *SQLStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("closing coin db: %w", err)
	}
	return nil
}
