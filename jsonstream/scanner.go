package jsonstream

import (
	"bytes"
	"encoding/json"
)

// ScannerOption configures a Scanner.
type ScannerOption func(*Scanner)

// WithPolicy sets the malformed-fragment policy. The default is PolicyStall.
func WithPolicy(p MalformedPolicy) ScannerOption {
	return func(s *Scanner) { s.policy = p }
}

// WithMalformedHandler registers fn to observe balanced spans that fail to
// parse. The slice is only valid during the call.
func WithMalformedHandler(fn func(fragment []byte)) ScannerOption {
	return func(s *Scanner) { s.onMalformed = fn }
}

// Scanner extracts complete top-level objects from appended text, in order.
// It is not safe for concurrent use.
type Scanner struct {
	buf         Buffer
	tok         Tokenizer
	policy      MalformedPolicy
	stalled     bool
	seq         int
	onMalformed func([]byte)
}

// NewScanner creates an empty Scanner.
func NewScanner(opts ...ScannerOption) *Scanner {
	s := &Scanner{}
	s.tok.Reset()
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Append adds decoded text to the scanner.
func (s *Scanner) Append(text string) {
	s.buf.Append(text)
}

// Next returns the next complete object. It returns false when the buffer
// holds no complete object yet, in which case nothing was consumed.
func (s *Scanner) Next() (Unit, bool) {
	for !s.stalled {
		data := s.buf.Bytes()
		end, ok := s.tok.Feed(data)
		if !ok {
			return Unit{}, false
		}

		start := s.tok.Start()
		span := data[start : end+1]
		if json.Valid(span) {
			raw := make(json.RawMessage, len(span))
			copy(raw, span)
			s.buf.Discard(end + 1)
			s.buf.TrimLeftSpace()
			s.tok.Reset()
			s.seq++
			return Unit{Seq: s.seq, Raw: raw}, true
		}

		if s.onMalformed != nil {
			s.onMalformed(span)
		}
		if s.policy == PolicyResync {
			s.buf.Discard(start + 1)
			s.tok.Reset()
			continue
		}
		s.stalled = true
	}
	return Unit{}, false
}

// Stalled reports whether a malformed fragment stopped extraction.
func (s *Scanner) Stalled() bool {
	return s.stalled
}

// Remainder returns the text that has not been consumed.
func (s *Scanner) Remainder() string {
	return s.buf.String()
}

// Pending reports whether the unconsumed text holds anything but
// whitespace.
func (s *Scanner) Pending() bool {
	return len(bytes.TrimSpace(s.buf.Bytes())) > 0
}

// Count returns how many units have been extracted.
func (s *Scanner) Count() int {
	return s.seq
}

// ExtractAll scans a complete text and returns its units and the
// unconsumed remainder.
func ExtractAll(text string, opts ...ScannerOption) ([]Unit, string) {
	s := NewScanner(opts...)
	s.Append(text)
	var units []Unit
	for {
		u, ok := s.Next()
		if !ok {
			break
		}
		units = append(units, u)
	}
	return units, s.Remainder()
}
