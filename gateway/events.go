package gateway

import (
	"context"
	"net/url"
	"sync"

	"github.com/fasthttp/websocket"

	"github.com/manus-manager/console/domain"
)

// SubscribeOptions carries the optional caller hooks for a subscription.
// Agent and task events always flow into the stores; log events have no
// store and reach the caller through OnLog.
type SubscribeOptions struct {
	// OnEvent observes every decoded envelope, including types the stores
	// already consumed.
	OnEvent func(*domain.Event)
	// OnLog receives log_update payloads.
	OnLog func(*domain.LogEvent)
}

// Subscription is one live event channel. It ends when the context given to
// SubscribeEvents is cancelled, Close is called, or the peer drops the
// connection; there is no reconnection. Delivery is best-effort,
// at-most-once.
type Subscription struct {
	conn      *websocket.Conn
	done      chan struct{}
	closeOnce sync.Once

	mu  sync.Mutex
	err error
}

// SubscribeEvents opens the tracking channel, authenticated by the session's
// bearer token passed as a query parameter, and feeds pushed events into
// the stores until the subscription ends.
func (g *Gateway) SubscribeEvents(ctx context.Context, opts SubscribeOptions) (*Subscription, error) {
	token := g.session.Token()
	if token == "" {
		return nil, ErrNotAuthenticated
	}

	wsURL := g.eventsURL + "/tracking/ws?token=" + url.QueryEscape(token)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	sub := &Subscription{
		conn: conn,
		done: make(chan struct{}),
	}

	go func() {
		select {
		case <-ctx.Done():
			sub.Close()
		case <-sub.done:
		}
	}()

	go g.readEvents(sub, opts)

	g.logger.Infow("events_subscribed", "url", g.eventsURL)
	return sub, nil
}

func (g *Gateway) readEvents(sub *Subscription, opts SubscribeOptions) {
	defer func() {
		sub.conn.Close()
		sub.closeOnce.Do(func() { close(sub.done) })
	}()

	for {
		_, raw, err := sub.conn.ReadMessage()
		if err != nil {
			sub.setErr(err)
			g.logger.Infow("events_closed", "error", err)
			return
		}
		g.applyEvent(raw, opts)
	}
}

func (g *Gateway) applyEvent(raw []byte, opts SubscribeOptions) {
	ev, err := domain.ParseEvent(raw)
	if err != nil {
		g.logger.Warnw("event_parse_failed", "error", err)
		return
	}

	if opts.OnEvent != nil {
		opts.OnEvent(ev)
	}

	switch ev.Type {
	case domain.EventAgentUpdate:
		payload, err := ev.DecodeAgent()
		if err != nil {
			g.logger.Warnw("event_decode_failed", "type", ev.Type, "error", err)
			return
		}
		g.agents.ApplyEvent(payload)
	case domain.EventTaskUpdate:
		payload, err := ev.DecodeTask()
		if err != nil {
			g.logger.Warnw("event_decode_failed", "type", ev.Type, "error", err)
			return
		}
		g.tasks.ApplyEvent(payload)
	case domain.EventLogUpdate:
		if opts.OnLog == nil {
			return
		}
		payload, err := ev.DecodeLog()
		if err != nil {
			g.logger.Warnw("event_decode_failed", "type", ev.Type, "error", err)
			return
		}
		opts.OnLog(payload)
	default:
		g.logger.Warnw("event_unknown_type", "type", ev.Type)
	}
}

// Close tears the channel down. Safe to call more than once.
func (s *Subscription) Close() error {
	return s.conn.Close()
}

// Done is closed when the subscription ends for any reason.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Err reports why the read loop ended; nil before Done is closed.
func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Subscription) setErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err == nil {
		s.err = err
	}
}
