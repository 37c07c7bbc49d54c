// Package engine runs the per-pair trading loop: quote the maker venue,
// reconcile resting orders, convert fills into hedges, and account outcomes.
package engine

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"arbbot-go/internal/fill"
	"arbbot-go/internal/hedge"
	"arbbot-go/internal/journal"
	"arbbot-go/internal/metrics"
	"arbbot-go/internal/order"
	"arbbot-go/internal/pricing"
	"arbbot-go/internal/risk"
	"arbbot-go/internal/venue"
)

// Config carries the loop timings and quoting knobs for one engine.
type Config struct {
	Pair                 string
	Mode                 pricing.Mode
	Params               pricing.Params
	LoopInterval         time.Duration
	ErrorRetry           time.Duration
	PriceUpdateThreshold float64
	ShutdownTimeout      time.Duration
}

// Engine owns the event loop for a single pair. All order, fill, and
// position mutations happen on the loop goroutine; venue fills and hedge
// outcomes arrive over channels, so no handler ever races another.
type Engine struct {
	log   zerolog.Logger
	cfg   Config
	maker venue.MakerClient

	orders   *order.Manager
	monitor  *fill.Monitor
	fills    *fill.Log
	recorder fill.Recorder
	hedger   *hedge.Executor
	risk     *risk.Controller
	store    *journal.Store

	statusCh chan venue.OrderStatusUpdate
	stopped  chan struct{}
	cancel   context.CancelFunc
}

// Option customizes an Engine.
type Option func(*Engine)

// WithRecorder attaches a durable fill recorder alongside the in-memory log.
func WithRecorder(r fill.Recorder) Option {
	return func(e *Engine) { e.recorder = r }
}

// WithJournal attaches a persistent hedge-intent journal. Intents are saved
// when created, cleared when confirmed, and restored on Start.
func WithJournal(s *journal.Store) Option {
	return func(e *Engine) { e.store = s }
}

// New wires an engine from its collaborators.
func New(cfg Config, maker venue.MakerClient, hedger *hedge.Executor, riskCtl *risk.Controller, log zerolog.Logger, opts ...Option) *Engine {
	if cfg.LoopInterval <= 0 {
		cfg.LoopInterval = time.Second
	}
	if cfg.ErrorRetry <= 0 {
		cfg.ErrorRetry = 5 * time.Second
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
	e := &Engine{
		log:      log,
		cfg:      cfg,
		maker:    maker,
		orders:   order.NewManager(cfg.PriceUpdateThreshold, log),
		monitor:  fill.NewMonitor(),
		fills:    fill.NewLog(64),
		hedger:   hedger,
		risk:     riskCtl,
		statusCh: make(chan venue.OrderStatusUpdate, 64),
		stopped:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start restores journaled hedge intents, subscribes to the maker status
// stream, and launches the event loop.
func (e *Engine) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel

	if e.store != nil {
		intents, err := e.store.LoadPending(runCtx)
		if err != nil {
			cancel()
			return err
		}
		if len(intents) > 0 {
			e.log.Info().Int("count", len(intents)).Msg("restoring journaled hedge intents")
			e.hedger.Restore(runCtx, intents)
		}
	}

	go func() {
		if err := e.maker.StreamOrderStatus(runCtx, e.statusCh); err != nil && runCtx.Err() == nil {
			e.log.Error().Err(err).Msg("order status stream ended")
		}
	}()
	go e.run(runCtx)
	return nil
}

// Stop shuts the loop down and drains: cancel resting orders, fold in any
// fills that raced those cancels, wait for in-flight hedges, account whatever
// outcomes arrived, and journal the rest. The drain is bounded by the
// configured shutdown timeout.
func (e *Engine) Stop() error {
	if e.cancel == nil {
		return nil
	}
	e.cancel()
	<-e.stopped

	ctx, cancel := context.WithTimeout(context.Background(), e.cfg.ShutdownTimeout)
	defer cancel()

	e.cancelResting(ctx)
	e.drainStatus(ctx)

	if err := e.hedger.Wait(ctx); err != nil {
		e.log.Warn().Err(err).Msg("hedge drain timed out")
	}

	// Account outcomes that landed after the loop exited.
	for {
		select {
		case res := <-e.hedger.Results():
			e.handleHedgeResult(ctx, res)
		default:
			return e.journalRemainder(ctx)
		}
	}
}

// cancelResting sweeps every tracked resting order through execCancel, so a
// fill racing the cancel is re-queried and hedged instead of dropped.
func (e *Engine) cancelResting(ctx context.Context) {
	for _, o := range e.orders.CancelAll() {
		e.execCancel(ctx, o.ID)
	}
}

// drainStatus folds in status updates still buffered from the stream.
func (e *Engine) drainStatus(ctx context.Context) {
	for {
		select {
		case u := <-e.statusCh:
			e.handleStatus(ctx, u)
		default:
			return
		}
	}
}

// journalRemainder clears confirmed intents from the journal and persists
// every intent that still needs a hedge after restart.
func (e *Engine) journalRemainder(ctx context.Context) error {
	if e.store == nil {
		return nil
	}
	for _, in := range e.hedger.Intents() {
		if in.State == hedge.StateConfirmed {
			if err := e.store.Clear(ctx, in.FillID); err != nil {
				e.log.Warn().Err(err).Str("fill_id", in.FillID).Msg("journal clear failed")
			}
		}
	}
	pending := e.hedger.Pending()
	if len(pending) > 0 {
		e.log.Warn().Int("count", len(pending)).Msg("journaling unfinished hedge intents")
	}
	return e.store.SavePending(ctx, pending)
}

func (e *Engine) run(ctx context.Context) {
	defer close(e.stopped)

	ticker := time.NewTicker(e.cfg.LoopInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case u := <-e.statusCh:
			e.handleStatus(ctx, u)
		case res := <-e.hedger.Results():
			e.handleHedgeResult(ctx, res)
		case <-ticker.C:
			if err := e.cycle(ctx); err != nil {
				e.log.Warn().Err(err).Msg("quoting cycle failed")
				ticker.Reset(e.cfg.ErrorRetry)
			} else {
				ticker.Reset(e.cfg.LoopInterval)
			}
		}
	}
}

// cycle runs one quoting pass: snapshot, quote, reconcile, execute the
// resulting cancels and placements.
func (e *Engine) cycle(ctx context.Context) error {
	metrics.CyclesTotal.Inc()

	snap, err := e.maker.OrderBook(ctx, e.cfg.Pair)
	if err != nil {
		return err
	}
	quote, err := pricing.ComputeQuote(snap, e.cfg.Mode, e.cfg.Params)
	if err != nil {
		if errors.Is(err, pricing.ErrInvalidSnapshot) {
			metrics.SkippedCyclesTotal.Inc()
			e.log.Debug().Err(err).Msg("skipping cycle on unusable book")
			return nil
		}
		return err
	}

	actions := e.orders.Reconcile(quote)
	for _, o := range actions.Cancels {
		e.execCancel(ctx, o.ID)
	}
	for _, req := range actions.Places {
		e.execPlace(ctx, req)
	}

	metrics.OpenMakerOrders.Set(float64(len(e.orders.Open())))
	return nil
}

func (e *Engine) execPlace(ctx context.Context, req venue.OrderRequest) {
	if err := e.risk.AllowPlacement(req.Side); err != nil {
		e.log.Debug().Err(err).Str("side", string(req.Side)).Msg("placement blocked by risk gate")
		_ = e.orders.MarkPlaceRejected(req.ClientID)
		return
	}

	orderID, err := e.maker.PlaceOrder(ctx, req)
	if err != nil {
		metrics.PlacementsRejectedTotal.Inc()
		e.log.Warn().Err(err).Str("side", string(req.Side)).Float64("price", req.Price).Msg("placement rejected")
		_ = e.orders.MarkPlaceRejected(req.ClientID)
		return
	}
	_ = e.orders.MarkPlaced(req.ClientID, orderID)
	metrics.OrdersPlacedTotal.WithLabelValues(string(req.Side)).Inc()
}

// execCancel issues a cancel; a rejection usually means a fill raced the
// cancel, so the order is re-queried and the final status folded in.
func (e *Engine) execCancel(ctx context.Context, orderID string) {
	err := e.maker.CancelOrder(ctx, orderID)
	if err == nil {
		_ = e.orders.MarkCancelled(orderID)
		metrics.OrdersCancelledTotal.Inc()
		return
	}

	e.log.Warn().Err(err).Str("order_id", orderID).Msg("cancel rejected, re-querying status")
	_ = e.orders.MarkCancelRejected(orderID)

	u, statusErr := e.maker.OrderStatus(ctx, orderID)
	if statusErr != nil {
		if errors.Is(statusErr, venue.ErrOrderNotFound) {
			_ = e.orders.MarkCancelled(orderID)
			return
		}
		e.log.Error().Err(statusErr).Str("order_id", orderID).Msg("status re-query failed")
		return
	}
	e.handleStatus(ctx, u)
}

// handleStatus folds one venue update into fills, order state, and hedges.
// The fill monitor is the dedup authority: only deltas it emits are recorded,
// accounted, and hedged.
func (e *Engine) handleStatus(ctx context.Context, u venue.OrderStatusUpdate) {
	events, err := e.monitor.Ingest(u)
	if err != nil {
		e.log.Warn().Err(err).Str("order_id", u.OrderID).Float64("filled", u.FilledSize).Msg("discarding stale status update")
		return
	}

	for _, ev := range events {
		e.fills.Record(ev)
		if e.recorder != nil {
			e.recorder.Record(ev)
		}
		metrics.FillsTotal.WithLabelValues(string(ev.Side)).Inc()
		e.risk.ApplyMakerFill(ev)

		intent := e.hedger.Execute(ctx, ev)
		if e.store != nil {
			if err := e.store.SavePending(ctx, []hedge.Intent{intent}); err != nil {
				e.log.Warn().Err(err).Str("fill_id", intent.FillID).Msg("journal save failed")
			}
		}
		e.log.Info().
			Str("fill_id", ev.FillID).
			Str("side", string(ev.Side)).
			Float64("qty", ev.Qty).
			Float64("price", ev.Price).
			Msg("maker fill, hedge dispatched")
	}

	if _, err := e.orders.ApplyStatus(u); err != nil && !errors.Is(err, order.ErrUnknownOrder) {
		e.log.Warn().Err(err).Str("order_id", u.OrderID).Msg("status apply failed")
	}
	metrics.OpenMakerOrders.Set(float64(len(e.orders.Open())))
}

// handleHedgeResult accounts one terminal hedge outcome and keeps the
// journal in sync. A halt raised by the outcome (stop loss or unhedged
// exposure) pulls every resting maker order off the book.
func (e *Engine) handleHedgeResult(ctx context.Context, res hedge.Result) {
	wasHalted := e.risk.Halted()
	e.risk.ApplyHedgeResult(res)
	if !wasHalted && e.risk.Halted() {
		e.log.Warn().Str("fill_id", res.Intent.FillID).Msg("halted, cancelling resting orders")
		e.cancelResting(ctx)
	}

	if res.Err != nil {
		e.log.Error().Err(res.Err).Str("fill_id", res.Intent.FillID).Msg("hedge failed, exposure unhedged")
		if e.store != nil {
			if err := e.store.SavePending(ctx, []hedge.Intent{res.Intent}); err != nil {
				e.log.Warn().Err(err).Str("fill_id", res.Intent.FillID).Msg("journal save failed")
			}
		}
		return
	}

	if e.store != nil {
		if err := e.store.Clear(ctx, res.Intent.FillID); err != nil {
			e.log.Warn().Err(err).Str("fill_id", res.Intent.FillID).Msg("journal clear failed")
		}
	}
	e.log.Info().
		Str("fill_id", res.Intent.FillID).
		Str("side", string(res.Intent.Side)).
		Float64("qty", res.Intent.Qty).
		Float64("fill_price", res.Intent.FillPrice).
		Msg("hedge confirmed")
}

// PositionSnapshot exposes the risk controller's accounting view.
func (e *Engine) PositionSnapshot() risk.PositionState {
	return e.risk.Snapshot()
}

// HedgeIntents exposes every tracked hedge intent.
func (e *Engine) HedgeIntents() []hedge.Intent {
	return e.hedger.Intents()
}

// OpenOrders exposes the currently tracked maker orders.
func (e *Engine) OpenOrders() []order.MakerOrder {
	return e.orders.Open()
}

// Fills exposes the fills observed this session.
func (e *Engine) Fills() []fill.Event {
	return e.fills.Snapshot()
}

// ResetHalt is the operator control that resumes trading after a halt.
func (e *Engine) ResetHalt() {
	e.risk.ResetHalt()
}
