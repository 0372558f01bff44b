package stream

import (
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/chatstream/jsonstream"
	"github.com/kbukum/chatstream/logger"
	"github.com/kbukum/chatstream/observability"
)

// DefaultChunkSize is the read buffer size of a session.
const DefaultChunkSize = 32 << 10

type options struct {
	chunkSize      int
	policy         jsonstream.MalformedPolicy
	strictEOF      bool
	strictDecoding bool
	charset        string
	log            *logger.Logger
	tracer         trace.Tracer
	metrics        *observability.StreamMetrics
}

func newOptions(opts []Option) *options {
	o := &options{
		chunkSize: DefaultChunkSize,
		policy:    jsonstream.PolicyStall,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.log == nil {
		o.log = logger.Nop()
	}
	if o.tracer == nil {
		o.tracer = observability.Tracer()
	}
	return o
}

// Option configures a Client or a single session.
type Option func(*options)

// WithChunkSize sets the read buffer size. Values below 1 are ignored.
func WithChunkSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.chunkSize = n
		}
	}
}

// WithPolicy sets how balanced but unparseable spans are handled.
func WithPolicy(p jsonstream.MalformedPolicy) Option {
	return func(o *options) { o.policy = p }
}

// WithStrictEOF reports leftover text at end of stream as a KindTruncated
// failure instead of discarding it.
func WithStrictEOF() Option {
	return func(o *options) { o.strictEOF = true }
}

// WithStrictDecoding makes invalid bytes a KindDecode failure instead of
// U+FFFD.
func WithStrictDecoding() Option {
	return func(o *options) { o.strictDecoding = true }
}

// WithCharset forces the body charset, overriding the Content-Type header.
func WithCharset(label string) Option {
	return func(o *options) { o.charset = label }
}

// WithLogger sets the session logger.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l.WithComponent("stream")
		}
	}
}

// WithTracer sets the tracer used for session spans.
func WithTracer(t trace.Tracer) Option {
	return func(o *options) { o.tracer = t }
}

// WithMetrics records session instruments.
func WithMetrics(m *observability.StreamMetrics) Option {
	return func(o *options) { o.metrics = m }
}
