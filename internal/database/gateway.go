package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/salgozino/btcusdt/internal/config"
	"github.com/salgozino/btcusdt/internal/model"
)

// PostgreSQL error codes.
const (
	codeInvalidCatalog    = "3D000" // database does not exist
	codeDuplicateDatabase = "42P04"
)

// ErrNoTrades indicates a read against a symbol with no stored rows.
var ErrNoTrades = errors.New("no trades recorded")

// Gateway owns the PostgreSQL connection and translates symbol-keyed
// trade records into relational rows. Every operation reconnects on use
// if the underlying pool is absent or dead.
type Gateway struct {
	cfg    config.DBConfig
	logger *slog.Logger

	mu    sync.Mutex
	pool  *pgxpool.Pool
	known map[string]struct{} // tables confirmed to exist this process
}

// NewGateway creates a storage gateway. No connection is made until the
// first operation (or an explicit EnsureConnected).
func NewGateway(cfg config.DBConfig, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		cfg:    cfg,
		logger: logger.With("component", "database"),
		known:  make(map[string]struct{}),
	}
}

// EnsureConnected lazily (re)establishes the connection. Idempotent.
func (g *Gateway) EnsureConnected(ctx context.Context) error {
	_, err := g.ensurePool(ctx)
	return err
}

// Ping verifies the connection is healthy, connecting first if needed.
func (g *Gateway) Ping(ctx context.Context) error {
	pool, err := g.ensurePool(ctx)
	if err != nil {
		return err
	}
	return pool.Ping(ctx)
}

// Close releases the connection pool. Safe to call multiple times and
// from a termination signal handler.
func (g *Gateway) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.pool != nil {
		g.pool.Close()
		g.pool = nil
	}
}

// TableExists reports whether the symbol's table already exists.
func (g *Gateway) TableExists(ctx context.Context, symbol string) (bool, error) {
	table := TableName(symbol)

	pool, err := g.ensurePool(ctx)
	if err != nil {
		return false, err
	}
	return g.tableExists(ctx, pool, table)
}

// CreateTable provisions the symbol's table with the fixed schema.
// Idempotent: an existing table is not an error and is not recreated.
func (g *Gateway) CreateTable(ctx context.Context, symbol string) error {
	table := TableName(symbol)

	pool, err := g.ensurePool(ctx)
	if err != nil {
		return err
	}
	return g.createTable(ctx, pool, table)
}

// Append ensures the symbol's table exists and inserts one record.
// On failure the caller decides what to do with the record; the gateway
// does not queue or retry.
func (g *Gateway) Append(ctx context.Context, symbol string, rec model.TradeRecord) error {
	table := TableName(symbol)

	pool, err := g.ensurePool(ctx)
	if err != nil {
		return err
	}

	if !g.isKnown(table) {
		exists, err := g.tableExists(ctx, pool, table)
		if err != nil {
			return err
		}
		if !exists {
			if err := g.createTable(ctx, pool, table); err != nil {
				return err
			}
		} else {
			g.markKnown(table)
		}
	}

	_, err = pool.Exec(ctx, insertSQL(table),
		rec.EventTime, rec.TradeID, rec.Price, rec.Quantity,
		rec.BidID, rec.AskID, rec.TradeTime, rec.Maker,
	)
	if err != nil {
		return fmt.Errorf("insert into %s: %w", table, err)
	}
	return nil
}

// ReadLatestPrice returns the price of the newest stored trade.
func (g *Gateway) ReadLatestPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	table := TableName(symbol)

	pool, err := g.ensurePool(ctx)
	if err != nil {
		return decimal.Decimal{}, err
	}

	var price string
	err = pool.QueryRow(ctx, latestPriceSQL(table)).Scan(&price)
	if errors.Is(err, pgx.ErrNoRows) {
		return decimal.Decimal{}, ErrNoTrades
	}
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("read latest price from %s: %w", table, err)
	}

	d, err := decimal.NewFromString(price)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parse stored price %q: %w", price, err)
	}
	return d, nil
}

// ReadLastTrade returns the newest stored trade for the symbol.
func (g *Gateway) ReadLastTrade(ctx context.Context, symbol string) (model.TradeRecord, error) {
	table := TableName(symbol)

	pool, err := g.ensurePool(ctx)
	if err != nil {
		return model.TradeRecord{}, err
	}

	rec := model.TradeRecord{Symbol: symbol}
	err = pool.QueryRow(ctx, lastTradeSQL(table)).Scan(
		&rec.EventTime, &rec.TradeID, &rec.Price, &rec.Quantity,
		&rec.BidID, &rec.AskID, &rec.TradeTime, &rec.Maker,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.TradeRecord{}, ErrNoTrades
	}
	if err != nil {
		return model.TradeRecord{}, fmt.Errorf("read last trade from %s: %w", table, err)
	}
	return rec, nil
}

// ReadRange returns stored trades ordered ascending by trade time.
// Bounds are fixed-format timestamp strings; an empty bound widens the
// window on that side.
func (g *Gateway) ReadRange(ctx context.Context, symbol, start, end string) ([]model.TradeRecord, error) {
	table := TableName(symbol)

	pool, err := g.ensurePool(ctx)
	if err != nil {
		return nil, err
	}

	query, args := rangeSQL(table, start, end)
	rows, err := pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("read range from %s: %w", table, err)
	}
	defer rows.Close()

	records, err := scanTrades(rows, symbol)
	if err != nil {
		return nil, fmt.Errorf("read range from %s: %w", table, err)
	}
	return records, nil
}

// scanTrades collects trade rows, tagging each record with the symbol
// the caller asked about rather than the normalized table name.
func scanTrades(rows pgx.Rows, symbol string) ([]model.TradeRecord, error) {
	var records []model.TradeRecord
	for rows.Next() {
		rec := model.TradeRecord{Symbol: symbol}
		if err := rows.Scan(
			&rec.EventTime, &rec.TradeID, &rec.Price, &rec.Quantity,
			&rec.BidID, &rec.AskID, &rec.TradeTime, &rec.Maker,
		); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// ensurePool returns a live pool, reconnecting if the current one is
// absent or fails its ping.
func (g *Gateway) ensurePool(ctx context.Context) (*pgxpool.Pool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.pool != nil {
		err := g.pool.Ping(ctx)
		if err == nil {
			return g.pool, nil
		}
		g.logger.Warn("storage connection lost, reconnecting", "error", err)
		g.pool.Close()
		g.pool = nil
	}

	pool, err := g.connect(ctx)
	if err != nil {
		return nil, err
	}
	g.pool = pool
	g.logger.Debug("storage connected",
		"host", g.cfg.Host,
		"database", g.cfg.Name,
	)
	return pool, nil
}

// connect builds a pool, creating the configured database first if the
// server does not have it yet.
func (g *Gateway) connect(ctx context.Context) (*pgxpool.Pool, error) {
	pool, err := g.newPool(ctx, BuildConnString(g.cfg))
	if err == nil {
		return pool, nil
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != codeInvalidCatalog {
		return nil, err
	}

	g.logger.Info("database does not exist, creating", "name", g.cfg.Name)
	if err := g.createDatabase(ctx); err != nil {
		return nil, fmt.Errorf("create database %s: %w", g.cfg.Name, err)
	}
	return g.newPool(ctx, BuildConnString(g.cfg))
}

func (g *Gateway) newPool(ctx context.Context, connStr string) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	poolCfg.MinConns = int32(g.cfg.MinConns)
	poolCfg.MaxConns = int32(g.cfg.MaxConns)

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// createDatabase connects to the maintenance database and creates the
// configured one. A concurrent creation is not an error.
func (g *Gateway) createDatabase(ctx context.Context) error {
	conn, err := pgx.Connect(ctx, BuildMaintenanceConnString(g.cfg))
	if err != nil {
		return fmt.Errorf("connect maintenance database: %w", err)
	}
	defer conn.Close(ctx)

	_, err = conn.Exec(ctx, "CREATE DATABASE "+ident(g.cfg.Name))
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == codeDuplicateDatabase {
		return nil
	}
	return err
}

func (g *Gateway) tableExists(ctx context.Context, pool *pgxpool.Pool, table string) (bool, error) {
	const query = `SELECT EXISTS (
		SELECT 1 FROM information_schema.tables
		WHERE table_schema = 'public' AND table_name = $1
	)`

	var exists bool
	if err := pool.QueryRow(ctx, query, table).Scan(&exists); err != nil {
		return false, fmt.Errorf("check table %s: %w", table, err)
	}
	return exists, nil
}

func (g *Gateway) createTable(ctx context.Context, pool *pgxpool.Pool, table string) error {
	if _, err := pool.Exec(ctx, createTableSQL(table)); err != nil {
		return fmt.Errorf("create table %s: %w", table, err)
	}
	g.markKnown(table)
	g.logger.Info("table created", "table", table)
	return nil
}

func (g *Gateway) isKnown(table string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.known[table]
	return ok
}

func (g *Gateway) markKnown(table string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.known[table] = struct{}{}
}
