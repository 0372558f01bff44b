package stream

import (
	"context"
	"errors"
	"fmt"

	"github.com/kbukum/chatstream/httpclient"
	"github.com/kbukum/chatstream/jsonstream"
)

// FailureKind classifies terminal session failures.
type FailureKind int

const (
	// KindTransport means the request could not be sent or the server
	// answered with a non-success status.
	KindTransport FailureKind = iota + 1
	// KindDecode means the charset is unknown or the bytes are invalid in
	// strict mode.
	KindDecode
	// KindRead means the body failed mid-stream.
	KindRead
	// KindTruncated means unparsed text was left at end of stream and
	// strict EOF handling is enabled.
	KindTruncated
	// KindCancelled means the context ended before the session did.
	KindCancelled
)

// String returns the kind name.
func (k FailureKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindDecode:
		return "decode"
	case KindRead:
		return "read"
	case KindTruncated:
		return "truncated"
	case KindCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Failure is the error passed to OnError.
type Failure struct {
	Kind FailureKind
	// Reason is the human-readable description. For failure statuses it is
	// taken from the response body when possible.
	Reason string
	// StatusCode is set for non-success responses.
	StatusCode int
	Err        error
}

// Error returns the reason.
func (f *Failure) Error() string {
	return f.Reason
}

// Unwrap returns the underlying error.
func (f *Failure) Unwrap() error {
	return f.Err
}

func kindOf(err error) FailureKind {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	return 0
}

// IsTransport checks if err is a transport failure.
func IsTransport(err error) bool { return kindOf(err) == KindTransport }

// IsDecode checks if err is a decode failure.
func IsDecode(err error) bool { return kindOf(err) == KindDecode }

// IsRead checks if err is a mid-stream read failure.
func IsRead(err error) bool { return kindOf(err) == KindRead }

// IsTruncated checks if err reports leftover text at end of stream.
func IsTruncated(err error) bool { return kindOf(err) == KindTruncated }

// IsCancelled checks if err reports a cancelled session.
func IsCancelled(err error) bool { return kindOf(err) == KindCancelled }

// normalize turns an error from Transport.Open into a Failure.
func normalize(ctx context.Context, err error) *Failure {
	var f *Failure
	if errors.As(err, &f) {
		return f
	}
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		return cancelled(ctx, err)
	}
	var he *httpclient.Error
	if errors.As(err, &he) {
		return &Failure{
			Kind:       KindTransport,
			Reason:     he.Reason(),
			StatusCode: he.StatusCode,
			Err:        err,
		}
	}
	return &Failure{Kind: KindTransport, Reason: err.Error(), Err: err}
}

func cancelled(ctx context.Context, err error) *Failure {
	cause := context.Cause(ctx)
	if cause == nil {
		cause = err
	}
	return &Failure{Kind: KindCancelled, Reason: "stream cancelled", Err: cause}
}

func decodeFailure(err error) *Failure {
	reason := "invalid byte sequence in stream"
	if errors.Is(err, jsonstream.ErrUnknownCharset) {
		reason = err.Error()
	}
	return &Failure{Kind: KindDecode, Reason: reason, Err: err}
}

func readFailure(err error) *Failure {
	return &Failure{Kind: KindRead, Reason: fmt.Sprintf("stream read failed: %v", err), Err: err}
}

func truncated(remainder int) *Failure {
	return &Failure{
		Kind:   KindTruncated,
		Reason: fmt.Sprintf("stream ended with %d unparsed bytes", remainder),
	}
}
