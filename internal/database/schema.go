package database

import (
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Fixed per-symbol schema. Prices land in REAL columns; the exact decimal
// strings survive only up to float precision, which the feed accepts.
const schemaColumns = `event_time TIMESTAMP, trade_id TEXT NOT NULL, price REAL, quantity REAL, bid_id TEXT, ask_id TEXT, trade_time TIMESTAMP, maker BOOL`

// timestampFormat renders stored timestamps back in the fixed format.
const timestampFormat = "YYYY-MM-DD HH24:MI:SS.US"

// ident quotes a table name for safe interpolation. Table names come
// from TableName but are venue-derived, so they are never trusted bare.
func ident(table string) string {
	return pgx.Identifier{table}.Sanitize()
}

func createTableSQL(table string) string {
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", ident(table), schemaColumns)
}

func insertSQL(table string) string {
	return fmt.Sprintf(
		`INSERT INTO %s (event_time, trade_id, price, quantity, bid_id, ask_id, trade_time, maker)
		 VALUES ($1::timestamp, $2, $3::real, $4::real, $5, $6, $7::timestamp, $8)`,
		ident(table),
	)
}

func latestPriceSQL(table string) string {
	return fmt.Sprintf("SELECT price::text FROM %s ORDER BY event_time DESC LIMIT 1", ident(table))
}

func lastTradeSQL(table string) string {
	return fmt.Sprintf(
		`SELECT to_char(event_time, '%s'), trade_id, price::text, quantity::text, bid_id, ask_id, to_char(trade_time, '%s'), maker
		 FROM %s ORDER BY event_time DESC LIMIT 1`,
		timestampFormat, timestampFormat, ident(table),
	)
}

// rangeSQL builds the range query. Empty bounds widen the window, matching
// the read contract consumed by the notification service. All bounds are
// inclusive.
func rangeSQL(table, start, end string) (query string, args []any) {
	selectList := fmt.Sprintf(
		`SELECT to_char(event_time, '%s'), trade_id, price::text, quantity::text, bid_id, ask_id, to_char(trade_time, '%s'), maker FROM %s`,
		timestampFormat, timestampFormat, ident(table),
	)

	switch {
	case start != "" && end != "":
		return selectList + " WHERE trade_time BETWEEN $1::timestamp AND $2::timestamp ORDER BY trade_time ASC",
			[]any{start, end}
	case start != "":
		return selectList + " WHERE trade_time >= $1::timestamp ORDER BY trade_time ASC", []any{start}
	case end != "":
		return selectList + " WHERE trade_time <= $1::timestamp ORDER BY trade_time ASC", []any{end}
	default:
		return selectList + " ORDER BY trade_time ASC", nil
	}
}
