package hedge

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"arbbot-go/internal/fill"
	"arbbot-go/internal/metrics"
	"arbbot-go/internal/venue"
)

// Executor dispatches hedge intents against the hedge venue. Dispatches for
// distinct fills run concurrently under a max-in-flight bound; terminal
// outcomes funnel through a single results channel so position accounting
// stays serialized in the caller.
type Executor struct {
	log     zerolog.Logger
	client  venue.HedgeClient
	policy  RetryPolicy
	clock   venue.Clock
	sem     chan struct{}
	results chan Result

	mu      sync.Mutex
	intents map[string]*Intent
	wg      sync.WaitGroup
}

// NewExecutor builds an executor with the given retry policy and in-flight
// bound.
func NewExecutor(client venue.HedgeClient, policy RetryPolicy, maxInFlight int, log zerolog.Logger) *Executor {
	if maxInFlight <= 0 {
		maxInFlight = 4
	}
	return &Executor{
		log:     log,
		client:  client,
		policy:  policy,
		clock:   venue.RealClock(),
		sem:     make(chan struct{}, maxInFlight),
		results: make(chan Result, 4*maxInFlight),
		intents: make(map[string]*Intent),
	}
}

// SetClock overrides the wall clock, for tests.
func (e *Executor) SetClock(c venue.Clock) {
	if c != nil {
		e.clock = c
	}
}

// Results is the serialized accounting path: every intent that reaches
// CONFIRMED or FAILED emits exactly one Result here.
func (e *Executor) Results() <-chan Result {
	return e.results
}

// Execute turns a fill event into a hedge intent and dispatches it. If an
// intent with this fill id already exists in a non-FAILED state the existing
// intent is returned and nothing new is sent: duplicated or retried fill
// notifications never double-hedge. A FAILED intent is re-armed and
// dispatched again.
func (e *Executor) Execute(ctx context.Context, ev fill.Event) Intent {
	e.mu.Lock()
	if existing, ok := e.intents[ev.FillID]; ok {
		if existing.State != StateFailed {
			snap := *existing
			e.mu.Unlock()
			return snap
		}
		existing.State = StatePending
		existing.UpdatedAt = e.clock.Now()
		snap := *existing
		e.mu.Unlock()
		e.dispatch(ctx, ev.FillID)
		return snap
	}

	now := e.clock.Now()
	intent := &Intent{
		FillID:     ev.FillID,
		OrderID:    ev.OrderID,
		ClientID:   uuid.NewString(),
		Side:       ev.Side.Opposite(),
		Qty:        ev.Qty,
		MakerPrice: ev.Price,
		State:      StatePending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	e.intents[ev.FillID] = intent
	snap := *intent
	e.mu.Unlock()

	e.dispatch(ctx, ev.FillID)
	return snap
}

// Restore re-registers journaled intents and dispatches them. Confirmed
// intents are ignored.
func (e *Executor) Restore(ctx context.Context, intents []Intent) {
	for _, in := range intents {
		if in.State == StateConfirmed || in.FillID == "" {
			continue
		}
		e.mu.Lock()
		if _, ok := e.intents[in.FillID]; ok {
			e.mu.Unlock()
			continue
		}
		restored := in
		restored.State = StatePending
		restored.UpdatedAt = e.clock.Now()
		e.intents[in.FillID] = &restored
		e.mu.Unlock()
		e.dispatch(ctx, in.FillID)
	}
}

// dispatch runs the retry loop for one intent in its own goroutine, bounded
// by the in-flight semaphore.
func (e *Executor) dispatch(ctx context.Context, fillID string) {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()

		select {
		case e.sem <- struct{}{}:
		case <-ctx.Done():
			// Never dispatched; the intent stays PENDING for journaling.
			return
		}
		defer func() { <-e.sem }()

		intent := e.transition(fillID, StateSubmitted)
		if intent == nil {
			return
		}

		var lastErr error
		for attempt := 0; attempt < e.policy.attempts(); attempt++ {
			if attempt > 0 {
				select {
				case <-time.After(e.policy.Backoff(attempt - 1)):
				case <-ctx.Done():
					e.transition(fillID, StatePending)
					return
				}
			}

			metrics.HedgeAttemptsTotal.Inc()
			e.bumpAttempts(fillID)
			px, err := e.client.PlaceMarketOrder(ctx, intent.Side, intent.Qty)
			if err == nil {
				confirmed := e.confirm(fillID, px)
				metrics.HedgesTotal.WithLabelValues("confirmed").Inc()
				e.emit(ctx, Result{Intent: confirmed})
				return
			}
			lastErr = err
			if ctx.Err() != nil {
				e.transition(fillID, StatePending)
				return
			}
			e.log.Warn().Err(err).Str("fill_id", fillID).Int("attempt", attempt+1).Msg("hedge dispatch failed")
		}

		failed := e.transition(fillID, StateFailed)
		metrics.HedgesTotal.WithLabelValues("failed").Inc()
		metrics.UnhedgedAlarmsTotal.Inc()
		e.emit(ctx, Result{
			Intent: *failed,
			Err:    fmt.Errorf("%w: fill %s qty %.8f: %v", ErrUnhedgedExposure, fillID, failed.Qty, lastErr),
		})
	}()
}

// emit delivers a terminal outcome to the accounting path. The buffered send
// is tried first so a result landing during shutdown, after the context is
// already cancelled, still reaches the drain.
func (e *Executor) emit(ctx context.Context, res Result) {
	select {
	case e.results <- res:
		return
	default:
	}
	select {
	case e.results <- res:
	case <-ctx.Done():
	}
}

func (e *Executor) transition(fillID string, state IntentState) *Intent {
	e.mu.Lock()
	defer e.mu.Unlock()
	intent, ok := e.intents[fillID]
	if !ok {
		return nil
	}
	intent.State = state
	intent.UpdatedAt = e.clock.Now()
	snap := *intent
	return &snap
}

func (e *Executor) bumpAttempts(fillID string) {
	e.mu.Lock()
	if intent, ok := e.intents[fillID]; ok {
		intent.Attempts++
	}
	e.mu.Unlock()
}

func (e *Executor) confirm(fillID string, px float64) Intent {
	e.mu.Lock()
	defer e.mu.Unlock()
	intent := e.intents[fillID]
	intent.State = StateConfirmed
	intent.FillPrice = px
	intent.UpdatedAt = e.clock.Now()
	return *intent
}

// Wait blocks until every in-flight dispatch finished or the context ends.
func (e *Executor) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pending returns intents that have not confirmed: PENDING, SUBMITTED, or
// FAILED. These are the intents worth journaling across a restart.
func (e *Executor) Pending() []Intent {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []Intent
	for _, in := range e.intents {
		if in.State != StateConfirmed {
			out = append(out, *in)
		}
	}
	return out
}

// Intents returns a snapshot of every tracked intent for observability.
func (e *Executor) Intents() []Intent {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Intent, 0, len(e.intents))
	for _, in := range e.intents {
		out = append(out, *in)
	}
	return out
}
