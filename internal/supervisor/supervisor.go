package supervisor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/salgozino/btcusdt/internal/config"
	"github.com/salgozino/btcusdt/internal/model"
	"github.com/salgozino/btcusdt/internal/stream"
)

// StreamClient is the control surface the supervisor needs from the
// stream subscriber.
type StreamClient interface {
	Subscribe(symbol string, handler stream.MessageHandler) (*stream.Subscription, error)
	Start(ctx context.Context) error
	Stop()
	IsAlive() bool
}

// Storage is the write-side contract of the storage gateway.
type Storage interface {
	TableExists(ctx context.Context, symbol string) (bool, error)
	CreateTable(ctx context.Context, symbol string) error
	Append(ctx context.Context, symbol string, rec model.TradeRecord) error
	Close()
}

// Supervisor keeps one trade stream alive and persists its trades.
type Supervisor struct {
	cfg    config.SupervisorConfig
	symbol string
	stream StreamClient
	store  Storage
	logger *slog.Logger

	conn *ConnectionState

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	stopOnce sync.Once
	fatal    chan error
}

// New creates an ingestion supervisor for one symbol.
func New(cfg config.SupervisorConfig, symbol string, sc StreamClient, store Storage, logger *slog.Logger) *Supervisor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Supervisor{
		cfg:    cfg,
		symbol: symbol,
		stream: sc,
		store:  store,
		logger: logger.With("component", "supervisor", "symbol", symbol),
		conn:   NewConnectionState(),
		fatal:  make(chan error, 1),
	}
}

// Start provisions the subscription, begins delivery, and launches the
// supervising flow. A failed initial connect is not fatal: the
// supervising loop keeps retrying indefinitely.
func (s *Supervisor) Start(ctx context.Context) error {
	s.ctx, s.cancel = context.WithCancel(ctx)

	if _, err := s.stream.Subscribe(s.symbol, s.OnMessage); err != nil {
		return fmt.Errorf("subscribe %s: %w", s.symbol, err)
	}

	if err := s.stream.Start(s.ctx); err != nil {
		s.logger.Error("initial stream start failed, supervising loop will retry", "error", err)
		s.conn.set(StateDisconnected)
	} else {
		s.conn.set(StateConnected)
	}

	s.wg.Add(1)
	go s.supervise()

	s.logger.Info("supervisor started", "poll_interval", s.cfg.PollInterval)
	return nil
}

// Stop closes the stream and releases the storage connection. Safe to
// call from a signal handler and from the fatal path; idempotent.
func (s *Supervisor) Stop() {
	s.stopOnce.Do(func() {
		s.logger.Info("stopping supervisor")
		if s.cancel != nil {
			s.cancel()
		}
		s.stream.Stop()
		s.wg.Wait()
		s.store.Close()
		s.logger.Info("supervisor stopped")
	})
}

// Fatal reports unclassified processing errors. The process should shut
// down and exit non-zero when this fires.
func (s *Supervisor) Fatal() <-chan error {
	return s.fatal
}

// ConnState exposes the reconnect state for health reporting.
func (s *Supervisor) ConnState() *ConnectionState {
	return s.conn
}

// OnMessage is the sole message-processing entry point, invoked once
// per inbound message by the stream subscriber.
func (s *Supervisor) OnMessage(msg model.Message) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("unrecoverable error processing message", "panic", r)
			s.reportFatal(fmt.Errorf("message processing panic: %v", r))
		}
	}()

	switch {
	case msg.Err != nil:
		s.handleErrorFrame(msg.Err)
	case msg.Trade != nil:
		s.handleTrade(msg.Trade)
	default:
		s.logger.Warn("message with no variant set")
	}
}

// handleErrorFrame applies the error-frame policy: the terminal reason
// gets a cooldown and a full resubscribe, anything else is logged and
// damped so a hot error loop cannot spin.
func (s *Supervisor) handleErrorFrame(frame *model.ErrorFrame) {
	if !frame.Terminal() {
		s.logger.Error("stream error frame", "reason", frame.Reason)
		s.sleep(s.cfg.ErrorDamp)
		return
	}

	s.logger.Error("stream reached max reconnect retries")
	if !s.sleep(s.cfg.Cooldown) {
		return
	}

	s.logger.Debug("recreating subscription")
	s.stream.Stop()
	if _, err := s.stream.Subscribe(s.symbol, s.OnMessage); err != nil {
		// The supervising loop remains the long-term recovery mechanism.
		s.logger.Error("resubscribe failed", "error", err)
		return
	}
	if err := s.stream.Start(s.ctx); err != nil {
		s.logger.Error("restart after resubscribe failed", "error", err)
	}

	if s.stream.IsAlive() {
		s.conn.set(StateConnected)
		s.logger.Info("stream alive again after resubscribe")
	} else {
		s.logger.Error("stream still down after resubscribe")
	}
}

// handleTrade normalizes and persists one trade. Storage failures drop
// the record: this is a best-effort feed with no replay queue.
func (s *Supervisor) handleTrade(ev *model.TradeEvent) {
	rec := model.NewTradeRecord(ev)

	exists, err := s.store.TableExists(s.ctx, ev.Symbol)
	if err != nil {
		s.logger.Error("table check failed, dropping trade",
			"trade_id", rec.TradeID,
			"error", err,
		)
		return
	}
	if !exists {
		if err := s.store.CreateTable(s.ctx, ev.Symbol); err != nil {
			s.logger.Error("table creation failed, dropping trade",
				"trade_id", rec.TradeID,
				"error", err,
			)
			return
		}
	}

	if err := s.store.Append(s.ctx, ev.Symbol, rec); err != nil {
		s.logger.Error("append failed, dropping trade",
			"trade_id", rec.TradeID,
			"error", err,
		)
		return
	}

	s.logger.Debug("trade stored", "trade_id", rec.TradeID, "price", rec.Price)
}

// supervise runs for the process lifetime, polling liveness and
// recovering dead streams.
func (s *Supervisor) supervise() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			if s.stream.IsAlive() {
				s.conn.set(StateConnected)
				continue
			}
			s.recover()
		}
	}
}

// recover drives the reconnect state machine: restart immediately, wait
// before checking, and back off between failed attempts until the
// stream is alive again or the process terminates.
func (s *Supervisor) recover() {
	s.conn.set(StateDisconnected)
	s.logger.Error("stream connection lost, maybe from the server side")

	for {
		attempt := s.conn.incReconnects()
		s.logger.Debug("trying to reconnect", "attempt", attempt)

		s.stream.Stop()
		if err := s.stream.Start(s.ctx); err != nil {
			s.logger.Error("stream restart failed", "attempt", attempt, "error", err)
		}

		if !s.sleep(s.cfg.RestartWait) {
			return
		}

		if s.stream.IsAlive() {
			s.conn.set(StateConnected)
			s.logger.Info("connection re-established", "attempt", attempt)
			return
		}

		s.conn.set(StateBackoff)
		s.logger.Error("could not reconnect, backing off", "backoff", s.cfg.Backoff)
		if !s.sleep(s.cfg.Backoff) {
			return
		}
	}
}

// sleep waits without blocking shutdown. Returns false if the
// supervisor context was canceled.
func (s *Supervisor) sleep(d time.Duration) bool {
	select {
	case <-s.ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}

func (s *Supervisor) reportFatal(err error) {
	select {
	case s.fatal <- err:
	default:
	}
}
