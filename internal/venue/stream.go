package venue

import (
	"context"
	"encoding/json"
	"math"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// statusFrame is the wire shape pushed by venues that stream order updates
// over websocket. Timestamps arrive as unix milliseconds.
type statusFrame struct {
	OrderID    string  `json:"order_id"`
	Status     string  `json:"status"`
	Side       string  `json:"side"`
	Price      float64 `json:"price"`
	Size       float64 `json:"size"`
	FilledSize float64 `json:"filled_size"`
	Ts         int64   `json:"ts"`
}

// StatusStream consumes order-status updates from a websocket endpoint,
// reconnecting with backoff on failure. Delivery is at-least-once: a
// reconnect can replay updates the consumer has already seen.
type StatusStream struct {
	url string
	log zerolog.Logger
}

// NewStatusStream builds a stream consumer for the given websocket URL.
func NewStatusStream(url string, log zerolog.Logger) *StatusStream {
	return &StatusStream{url: url, log: log}
}

// Run pushes decoded updates onto out until the context is cancelled.
func (s *StatusStream) Run(ctx context.Context, out chan<- OrderStatusUpdate) error {
	backoff := time.Second
	const maxBackoff = 30 * time.Second

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := s.consume(ctx, out); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.log.Warn().Err(err).Msg("order status stream disconnected, retrying")
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			backoff = time.Duration(math.Min(float64(maxBackoff), float64(backoff)*1.8))
			continue
		}
		return nil
	}
}

func (s *StatusStream) consume(ctx context.Context, out chan<- OrderStatusUpdate) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	s.log.Info().Str("url", s.url).Msg("connected order status stream")

	conn.SetReadLimit(1 << 20)
	conn.SetReadDeadline(time.Now().Add(30 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(30 * time.Second))
		return nil
	})

	pingCtx, pingCancel := context.WithCancel(ctx)
	defer pingCancel()
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					s.log.Warn().Err(err).Msg("status stream ping failed")
					return
				}
			case <-pingCtx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		_, message, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var frame statusFrame
		if err := json.Unmarshal(message, &frame); err != nil {
			s.log.Warn().Err(err).Msg("failed to decode status frame")
			continue
		}
		if frame.OrderID == "" {
			continue
		}

		update := OrderStatusUpdate{
			OrderID:    frame.OrderID,
			Status:     OrderStatus(frame.Status),
			Side:       Side(frame.Side),
			Price:      frame.Price,
			Size:       frame.Size,
			FilledSize: frame.FilledSize,
			Ts:         time.UnixMilli(frame.Ts),
		}

		select {
		case out <- update:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
