// Package risk gates maker placements and accounts position, daily trade
// count, and stop-loss state.
package risk

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"arbbot-go/internal/fill"
	"arbbot-go/internal/hedge"
	"arbbot-go/internal/metrics"
	"arbbot-go/internal/venue"
)

var (
	// ErrPositionLimit rejects maker orders that would grow an already
	// oversized position. Hedges are never gated: they reduce exposure.
	ErrPositionLimit = errors.New("position limit reached")
	// ErrDailyTradeLimit rejects new maker placements until the UTC day
	// rolls over.
	ErrDailyTradeLimit = errors.New("daily trade limit reached")
	// ErrHalted rejects all new maker placements while halted. Only an
	// explicit operator reset leaves this state.
	ErrHalted = errors.New("risk controller halted")
)

// Limits carries the configured guard rails.
type Limits struct {
	MaxPositionSize float64
	MaxDailyTrades  int
	StopLossPct     float64
	// EquityBase is the reference equity for the drawdown estimate.
	EquityBase float64
}

// PositionState is the controller's accounting view. NetInventory is signed:
// maker-side filled minus hedge-side confirmed. Mutated only by fill and
// hedge outcomes, never by strategy logic.
type PositionState struct {
	NetInventory float64   `json:"net_inventory"`
	DailyTrades  int       `json:"daily_trades"`
	RealizedPnL  float64   `json:"realized_pnl"`
	Halted       bool      `json:"halted"`
	HaltReason   string    `json:"halt_reason,omitempty"`
	LastReset    time.Time `json:"last_reset"`
}

// Controller is the stateful risk gate. RUNNING -> HALTED happens on
// stop-loss breach or unhedged exposure; HALTED -> RUNNING only via
// ResetHalt. Auto-resume after a stop-loss is a safety hazard.
type Controller struct {
	mu     sync.Mutex
	log    zerolog.Logger
	limits Limits
	clock  venue.Clock
	state  PositionState
}

// NewController builds a running controller.
func NewController(limits Limits, clock venue.Clock, log zerolog.Logger) *Controller {
	if clock == nil {
		clock = venue.RealClock()
	}
	return &Controller{
		log:    log,
		limits: limits,
		clock:  clock,
		state:  PositionState{LastReset: clock.Now()},
	}
}

// AllowPlacement gates a new maker order. Rules evaluate in order: position
// cap (same-direction growth only), daily trade cap, halt state.
func (c *Controller) AllowPlacement(side venue.Side) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.maybeRollover()

	if c.limits.MaxPositionSize > 0 {
		net := c.state.NetInventory
		if (net > c.limits.MaxPositionSize && side == venue.Buy) ||
			(net < -c.limits.MaxPositionSize && side == venue.Sell) {
			metrics.RiskRejectionsTotal.WithLabelValues("position_limit").Inc()
			return ErrPositionLimit
		}
	}

	if c.limits.MaxDailyTrades > 0 && c.state.DailyTrades >= c.limits.MaxDailyTrades {
		metrics.RiskRejectionsTotal.WithLabelValues("daily_trades").Inc()
		return ErrDailyTradeLimit
	}

	if c.state.Halted {
		metrics.RiskRejectionsTotal.WithLabelValues("halted").Inc()
		return ErrHalted
	}
	return nil
}

// ApplyMakerFill books a confirmed maker fill into net inventory.
func (c *Controller) ApplyMakerFill(ev fill.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.maybeRollover()

	if ev.Side == venue.Buy {
		c.state.NetInventory += ev.Qty
	} else {
		c.state.NetInventory -= ev.Qty
	}
	metrics.NetInventory.Set(c.state.NetInventory)
}

// ApplyHedgeResult books a terminal hedge outcome. A confirmed hedge
// flattens inventory, bumps the daily trade counter, and realizes the
// captured spread; a failed hedge leaves inventory exposed and halts new
// maker placement.
func (c *Controller) ApplyHedgeResult(res hedge.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.maybeRollover()

	in := res.Intent
	if res.Err != nil || in.State == hedge.StateFailed {
		c.haltLocked("unhedged_exposure")
		c.log.Error().
			Str("fill_id", in.FillID).
			Float64("qty", in.Qty).
			Msg("unhedged exposure recorded, halting new maker placement")
		return
	}

	if in.Side == venue.Buy {
		c.state.NetInventory += in.Qty
	} else {
		c.state.NetInventory -= in.Qty
	}
	metrics.NetInventory.Set(c.state.NetInventory)

	// Spread capture: maker fill price vs hedge venue fill price. The hedge
	// side is the opposite of the maker fill.
	var realized float64
	if in.Side == venue.Sell {
		realized = (in.FillPrice - in.MakerPrice) * in.Qty
	} else {
		realized = (in.MakerPrice - in.FillPrice) * in.Qty
	}
	c.state.RealizedPnL += realized
	c.state.DailyTrades++

	if c.limits.StopLossPct > 0 && c.limits.EquityBase > 0 && c.state.RealizedPnL < 0 {
		drawdown := -c.state.RealizedPnL / c.limits.EquityBase
		if drawdown >= c.limits.StopLossPct {
			c.haltLocked("stop_loss")
			c.log.Error().
				Float64("drawdown", drawdown).
				Float64("realized_pnl", c.state.RealizedPnL).
				Msg("stop loss breached, halting")
		}
	}
}

// Halt moves the controller to HALTED with the given reason.
func (c *Controller) Halt(reason string) {
	c.mu.Lock()
	c.haltLocked(reason)
	c.mu.Unlock()
}

func (c *Controller) haltLocked(reason string) {
	if !c.state.Halted {
		c.state.Halted = true
		c.state.HaltReason = reason
	}
}

// ResetHalt is the explicit operator control that resumes trading. Nothing
// else leaves the halted state.
func (c *Controller) ResetHalt() {
	c.mu.Lock()
	if c.state.Halted {
		c.log.Info().Str("reason", c.state.HaltReason).Msg("operator reset, resuming")
	}
	c.state.Halted = false
	c.state.HaltReason = ""
	c.mu.Unlock()
}

// Halted reports the current gate state.
func (c *Controller) Halted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Halted
}

// Snapshot returns a read-only copy of the position state.
func (c *Controller) Snapshot() PositionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.maybeRollover()
	return c.state
}

// maybeRollover resets daily counters at the UTC day boundary. Caller holds
// the lock.
func (c *Controller) maybeRollover() {
	now := c.clock.Now().UTC()
	last := c.state.LastReset.UTC()
	if now.Year() != last.Year() || now.YearDay() != last.YearDay() {
		c.state.DailyTrades = 0
		c.state.LastReset = now
	}
}
