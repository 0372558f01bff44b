package stream

import (
	"context"
	"io"

	"github.com/kbukum/chatstream/jsonstream"
)

// Client opens streaming sessions through a Transport.
type Client struct {
	transport Transport
	opts      []Option
}

// New creates a Client. Options apply to every session and can be
// extended per call.
func New(transport Transport, opts ...Option) *Client {
	return &Client{transport: transport, opts: opts}
}

func (c *Client) options(extra []Option) *options {
	all := make([]Option, 0, len(c.opts)+len(extra))
	all = append(all, c.opts...)
	all = append(all, extra...)
	return newOptions(all)
}

// Run issues req and blocks until the session ends. Handlers are called
// synchronously; exactly one of OnError and OnComplete fires.
func (c *Client) Run(ctx context.Context, req Request, h Handlers, opts ...Option) Outcome {
	req = req.clone()
	o := c.options(opts)
	ctx, s := newSession(ctx, h, o, req.URL)

	if err := req.Validate(); err != nil {
		return s.fail(&Failure{Kind: KindTransport, Reason: err.Error(), Err: err})
	}

	body, err := c.transport.Open(ctx, req)
	if err != nil {
		return s.fail(normalize(ctx, err))
	}
	if body == nil || body.ReadCloser == nil {
		return s.fail(&Failure{Kind: KindTransport, Reason: "no response body"})
	}
	defer func() { _ = body.Close() }()

	if err := s.useCharset(body.ContentType); err != nil {
		return s.fail(decodeFailure(err))
	}

	stop := context.AfterFunc(ctx, func() { _ = body.Close() })
	defer stop()
	return s.run(ctx, body)
}

// Consume runs a session over an already open body. A body that is also
// an io.Closer is closed when ctx is cancelled, but not otherwise.
func Consume(ctx context.Context, body io.Reader, h Handlers, opts ...Option) Outcome {
	o := newOptions(opts)
	ctx, s := newSession(ctx, h, o, "")
	if err := s.useCharset(""); err != nil {
		return s.fail(decodeFailure(err))
	}
	if closer, ok := body.(io.Closer); ok {
		stop := context.AfterFunc(ctx, func() { _ = closer.Close() })
		defer stop()
	}
	return s.run(ctx, body)
}

// EventKind identifies a channel event.
type EventKind int

const (
	EventUnit EventKind = iota + 1
	EventError
	EventComplete
)

// Event is one session event delivered by Stream.
type Event struct {
	Kind EventKind
	Unit jsonstream.Unit
	Err  error
}

// Stream runs the session on its own goroutine and delivers its events on
// the returned channel, which is closed after the terminal event. Sends
// give up once ctx is done, so a caller that stops receiving must cancel
// ctx; the terminal event may then be dropped.
func (c *Client) Stream(ctx context.Context, req Request, opts ...Option) <-chan Event {
	ch := make(chan Event)
	send := func(ev Event) {
		select {
		case ch <- ev:
		case <-ctx.Done():
		}
	}
	go func() {
		defer close(ch)
		c.Run(ctx, req, Handlers{
			OnUnit:     func(u jsonstream.Unit) { send(Event{Kind: EventUnit, Unit: u}) },
			OnError:    func(err error) { send(Event{Kind: EventError, Err: err}) },
			OnComplete: func() { send(Event{Kind: EventComplete}) },
		}, opts...)
	}()
	return ch
}
