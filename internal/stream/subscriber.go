package stream

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/salgozino/btcusdt/internal/model"
)

// MessageHandler consumes parsed inbound messages. Trade and generic
// error frames arrive in order on a single delivery goroutine; terminal
// error frames arrive on their own goroutine so the handler is free to
// stop and restart the subscriber.
type MessageHandler func(model.Message)

// Subscription identifies one trade-stream subscription.
type Subscription struct {
	ID     uuid.UUID
	Symbol string
	Stream string // Venue stream name (e.g., "btcusdt@trade")
}

// Subscriber keeps one trade-stream subscription and delivers its
// frames to a consumer callback. It does not supervise itself beyond
// the bounded internal reconnect budget.
type Subscriber struct {
	cfg    SubscriberConfig
	logger *slog.Logger
	parser *model.Parser

	mu      sync.Mutex
	sub     *Subscription
	handler MessageHandler
	client  Client
	done    chan struct{}
	alive   bool
	wg      sync.WaitGroup

	dropped atomic.Int64
}

// NewSubscriber creates a stream subscriber.
func NewSubscriber(cfg SubscriberConfig, logger *slog.Logger) *Subscriber {
	if logger == nil {
		logger = slog.Default()
	}
	return &Subscriber{
		cfg:    cfg,
		logger: logger.With("component", "stream"),
		parser: model.NewParser(),
	}
}

// Subscribe registers the trade stream for a symbol. Must be called
// before Start; calling it again replaces the previous subscription.
func (s *Subscriber) Subscribe(symbol string, handler MessageHandler) (*Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.alive {
		return nil, ErrAlreadyStarted
	}

	sub := &Subscription{
		ID:     uuid.New(),
		Symbol: symbol,
		Stream: StreamName(symbol),
	}
	s.sub = sub
	s.handler = handler

	s.logger.Debug("subscription created",
		"id", sub.ID,
		"stream", sub.Stream,
	)
	return sub, nil
}

// Start connects and begins delivering frames to the handler.
func (s *Subscriber) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sub == nil {
		return ErrNoSubscription
	}
	if s.alive {
		return ErrAlreadyStarted
	}

	cl := NewClient(s.clientConfig(), s.logger)
	if err := cl.Connect(ctx); err != nil {
		return err
	}

	s.client = cl
	s.done = make(chan struct{})
	s.alive = true

	s.wg.Add(1)
	go s.deliverLoop(ctx, cl, s.done)

	s.logger.Info("stream started", "stream", s.sub.Stream)
	return nil
}

// Stop closes the connection and ends delivery. Safe to call multiple
// times. Must not be called from inside the handler on the delivery
// goroutine; terminal error frames, wire-delivered or synthetic, are
// delivered off that goroutine precisely so the consumer can restart
// from its callback.
func (s *Subscriber) Stop() {
	s.mu.Lock()
	if s.done != nil {
		close(s.done)
		s.done = nil
	}
	if s.client != nil {
		s.client.Close()
		s.client = nil
	}
	s.alive = false
	s.mu.Unlock()

	s.wg.Wait()
}

// IsAlive reports whether the delivery flow is running. It stays true
// during internal reconnect attempts and turns false once the budget
// is exhausted or Stop is called.
func (s *Subscriber) IsAlive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.alive
}

// Dropped returns the count of malformed frames rejected at the
// boundary.
func (s *Subscriber) Dropped() int64 {
	return s.dropped.Load()
}

func (s *Subscriber) clientConfig() ClientConfig {
	return ClientConfig{
		URL:          s.cfg.WSURL + "/ws/" + s.sub.Stream,
		APIKey:       s.cfg.APIKey,
		ProxyURL:     s.cfg.ProxyURL,
		PingTimeout:  s.cfg.PingTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		BufferSize:   s.cfg.BufferSize,
	}
}

// deliverLoop is the single delivery goroutine: it pumps frames from
// the current client to the handler and redials on transport errors.
func (s *Subscriber) deliverLoop(ctx context.Context, cl Client, done chan struct{}) {
	defer s.wg.Done()

	for {
		select {
		case <-done:
			return

		case <-ctx.Done():
			return

		case err := <-cl.Errors():
			s.logger.Warn("transport error", "error", err)
			// Release the dead connection and its read loop; a stale
			// connection is still open at this point.
			cl.Close()

			next := s.redial(ctx, done)
			if next == nil {
				select {
				case <-done:
					return
				case <-ctx.Done():
					return
				default:
				}
				s.terminate()
				return
			}
			cl = next

		case tm, ok := <-cl.Messages():
			if !ok {
				return
			}
			s.dispatch(tm)
		}
	}
}

// redial attempts internal reconnects with backoff. Returns the new
// client, or nil once the budget is exhausted or the subscriber stops.
func (s *Subscriber) redial(ctx context.Context, done chan struct{}) Client {
	for attempt := 1; attempt <= s.cfg.MaxReconnects; attempt++ {
		wait := s.cfg.Backoff.Next(attempt)

		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return nil
		case <-time.After(wait):
		}

		cl := NewClient(s.clientConfig(), s.logger)
		if err := cl.Connect(ctx); err != nil {
			s.logger.Warn("reconnect failed",
				"attempt", attempt,
				"max", s.cfg.MaxReconnects,
				"error", err,
			)
			continue
		}

		s.mu.Lock()
		s.client = cl
		s.mu.Unlock()

		s.logger.Info("reconnected", "attempt", attempt)
		return cl
	}
	return nil
}

// terminate marks the subscriber dead and delivers the synthetic
// terminal error frame, mirroring what the venue transport reports
// when its own retry budget runs out.
func (s *Subscriber) terminate() {
	s.mu.Lock()
	s.alive = false
	handler := s.handler
	s.mu.Unlock()

	s.logger.Error("reconnect budget exhausted")

	frame := &model.ErrorFrame{EventType: "error", Reason: model.ReasonMaxReconnect}
	// Off the delivery goroutine, which is about to exit: the consumer
	// may stop and restart this subscriber from inside the callback.
	go handler(model.Message{Err: frame})
}

func (s *Subscriber) dispatch(tm TimestampedMessage) {
	msg, err := s.parser.Parse(tm.Data)
	if err != nil {
		s.dropped.Add(1)
		s.logger.Warn("dropping malformed frame", "error", err)
		return
	}

	s.mu.Lock()
	handler := s.handler
	s.mu.Unlock()

	if msg.Err != nil && msg.Err.Terminal() {
		// Same contract as an exhausted internal budget: off the
		// delivery goroutine, so the consumer can stop and restart
		// this subscriber from the callback.
		go handler(msg)
		return
	}

	handler(msg)
}
