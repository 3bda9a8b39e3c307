package database

import "strings"

// TableName derives the storage table name for a venue symbol: uppercase
// with dots, hyphens, slashes, and spaces stripped. "BTC-USD", "BTC/USD",
// "BTC USD", and "btc.usd" all map to BTCUSD; distinct symbols that
// normalize identically collide, which is an accepted limitation.
func TableName(symbol string) string {
	r := strings.NewReplacer(".", "", "-", "", "/", "", " ", "")
	return strings.ToUpper(r.Replace(symbol))
}
