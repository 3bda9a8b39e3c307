// Package database implements the storage gateway over PostgreSQL.
//
// Trades are stored one table per symbol, with the table provisioned
// lazily on the first observed trade. The gateway reconnects on use
// rather than holding callers to a connect-first protocol, so a storage
// outage only costs the records that arrive while it lasts.
package database
