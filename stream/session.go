package stream

import (
	"context"
	"errors"
	"io"
	"mime"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/chatstream/jsonstream"
	"github.com/kbukum/chatstream/logger"
	"github.com/kbukum/chatstream/observability"
)

// Handlers receive session events. Nil handlers are skipped. All calls
// happen on the session goroutine.
type Handlers struct {
	OnUnit     func(jsonstream.Unit)
	OnError    func(error)
	OnComplete func()
}

// OutcomeStatus is how a session ended.
type OutcomeStatus int

const (
	OutcomeCompleted OutcomeStatus = iota + 1
	OutcomeFailed
)

// String returns the status name.
func (s OutcomeStatus) String() string {
	switch s {
	case OutcomeCompleted:
		return "completed"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome is the result of a finished session.
type Outcome struct {
	SessionID string
	Status    OutcomeStatus
	// Units is the number of units delivered.
	Units   int
	Failure *Failure
}

// Err returns the failure, or nil for a completed session.
func (o Outcome) Err() error {
	if o.Failure == nil {
		return nil
	}
	return o.Failure
}

// Session is one streaming request from open to its terminal event. It
// owns its decoder and scanner.
type Session struct {
	ID string

	handlers Handlers
	opts     *options
	log      *logger.Logger
	span     trace.Span

	decoder *jsonstream.Decoder
	scanner *jsonstream.Scanner

	started time.Time
	bytes   int
	units   int

	once    sync.Once
	outcome Outcome
}

func newSession(ctx context.Context, h Handlers, o *options, url string) (context.Context, *Session) {
	s := &Session{
		ID:       uuid.NewString(),
		handlers: h,
		opts:     o,
		started:  time.Now(),
	}
	ctx, s.span = o.tracer.Start(ctx, observability.SpanStreamSession, trace.WithAttributes(
		attribute.String(observability.AttrSessionID, s.ID),
		attribute.String(observability.AttrPolicy, o.policy.String()),
	))
	if url != "" {
		s.span.SetAttributes(attribute.String(observability.AttrURL, url))
	}
	s.log = o.log.WithContext(ctx).WithFields(map[string]interface{}{
		logger.FieldSessionID: s.ID,
	})

	s.scanner = jsonstream.NewScanner(
		jsonstream.WithPolicy(o.policy),
		jsonstream.WithMalformedHandler(func(fragment []byte) {
			s.log.Warn("malformed object in stream", map[string]interface{}{
				logger.FieldPolicy: o.policy.String(),
				logger.FieldBytes:  len(fragment),
			})
			o.metrics.RecordMalformed(ctx, o.policy.String())
		}),
	)
	s.decoder = s.newDecoder(nil)
	s.log.Debug("stream session started", map[string]interface{}{logger.FieldURL: url})
	return ctx, s
}

func (s *Session) newDecoder(enc jsonstream.DecoderOption) *jsonstream.Decoder {
	var opts []jsonstream.DecoderOption
	if enc != nil {
		opts = append(opts, enc)
	}
	if s.opts.strictDecoding {
		opts = append(opts, jsonstream.WithStrict())
	}
	return jsonstream.NewDecoder(opts...)
}

// useCharset selects the decoder from a forced charset or the
// Content-Type header.
func (s *Session) useCharset(contentType string) error {
	label := s.opts.charset
	if label == "" && contentType != "" {
		if _, params, err := mime.ParseMediaType(contentType); err == nil {
			label = params["charset"]
		}
	}
	if label == "" {
		return nil
	}
	enc, err := jsonstream.WithCharset(label)
	if err != nil {
		return err
	}
	s.decoder = s.newDecoder(enc)
	return nil
}

// run reads body until end of stream, failure or cancellation.
func (s *Session) run(ctx context.Context, body io.Reader) Outcome {
	buf := make([]byte, s.opts.chunkSize)
	for {
		if ctx.Err() != nil {
			return s.fail(cancelled(ctx, ctx.Err()))
		}

		n, err := body.Read(buf)
		if n > 0 {
			s.bytes += n
			s.opts.metrics.RecordBytes(ctx, n)
			text, derr := s.decoder.Decode(buf[:n])
			if derr != nil {
				return s.fail(decodeFailure(derr))
			}
			s.scanner.Append(text)
			s.drain(ctx)
		}

		switch {
		case err == nil:
		case errors.Is(err, io.EOF):
			return s.finish(ctx)
		case ctx.Err() != nil:
			return s.fail(cancelled(ctx, err))
		default:
			return s.fail(readFailure(err))
		}
	}
}

// drain dispatches every complete unit in the buffer.
func (s *Session) drain(ctx context.Context) {
	for {
		u, ok := s.scanner.Next()
		if !ok {
			return
		}
		s.units++
		s.opts.metrics.RecordUnit(ctx)
		if s.handlers.OnUnit != nil {
			s.handlers.OnUnit(u)
		}
	}
}

// finish flushes the decoder, dispatches what is left and completes.
func (s *Session) finish(ctx context.Context) Outcome {
	tail, err := s.decoder.Flush()
	if err != nil {
		return s.fail(decodeFailure(err))
	}
	if tail != "" {
		s.scanner.Append(tail)
	}
	s.drain(ctx)

	if s.scanner.Pending() {
		remainder := len(s.scanner.Remainder())
		if s.opts.strictEOF {
			return s.fail(truncated(remainder))
		}
		s.log.Debug("discarding unparsed remainder", map[string]interface{}{
			logger.FieldRemainder: remainder,
			"stalled":             s.scanner.Stalled(),
		})
	}
	return s.complete(ctx)
}

func (s *Session) complete(ctx context.Context) Outcome {
	s.once.Do(func() {
		s.outcome = Outcome{SessionID: s.ID, Status: OutcomeCompleted, Units: s.units}
		s.end(ctx)
		if s.handlers.OnComplete != nil {
			s.handlers.OnComplete()
		}
	})
	return s.outcome
}

func (s *Session) fail(f *Failure) Outcome {
	s.once.Do(func() {
		s.outcome = Outcome{SessionID: s.ID, Status: OutcomeFailed, Units: s.units, Failure: f}
		s.end(context.Background())
		if s.handlers.OnError != nil {
			s.handlers.OnError(f)
		}
	})
	return s.outcome
}

func (s *Session) end(ctx context.Context) {
	d := time.Since(s.started)
	kind := ""
	if s.outcome.Failure != nil {
		kind = s.outcome.Failure.Kind.String()
	}
	status := s.outcome.Status.String()

	s.span.SetAttributes(
		attribute.Int(observability.AttrUnits, s.units),
		attribute.String(observability.AttrOutcome, status),
	)
	if f := s.outcome.Failure; f != nil {
		s.span.SetAttributes(attribute.String(observability.AttrFailureKind, kind))
		if f.StatusCode > 0 {
			s.span.SetAttributes(attribute.Int(observability.AttrStatusCode, f.StatusCode))
		}
		s.span.SetStatus(codes.Error, f.Reason)
	}
	s.span.End()
	s.opts.metrics.RecordSession(ctx, status, kind, d)

	fields := logger.MergeWithDuration(map[string]interface{}{
		logger.FieldOutcome: status,
		logger.FieldUnits:   s.units,
		logger.FieldBytes:   s.bytes,
	}, d)
	if f := s.outcome.Failure; f != nil {
		fields["kind"] = kind
		fields[logger.FieldError] = f.Reason
	}
	s.log.Debug("stream session finished", fields)
}
