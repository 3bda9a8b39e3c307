// Package stream implements the exchange data-stream client.
//
// Client is a single websocket connection with keepalive and stale
// detection. Subscriber is the contract the ingestion supervisor
// depends on: one trade-stream subscription per symbol, frames parsed
// and delivered in arrival order on a single delivery goroutine.
//
// The subscriber retries dropped connections internally up to a bounded
// number of attempts; when the budget is exhausted it delivers a
// synthetic terminal error frame and stops, leaving long-term recovery
// to the consumer.
package stream
