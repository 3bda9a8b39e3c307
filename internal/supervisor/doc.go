// Package supervisor implements the ingestion supervisor.
//
// The supervisor owns the stream subscriber and the storage gateway,
// keeps exactly one trade stream alive for the configured symbol, and
// persists every well-formed trade it receives. Two flows cooperate:
// the delivery flow (the subscriber's callback) normalizes and stores
// trades, while the supervising flow polls liveness and drives the
// CONNECTED / DISCONNECTED / BACKOFF reconnect state machine. There is
// no retry cap: the process is meant to run unattended indefinitely.
package supervisor
