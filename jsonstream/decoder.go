package jsonstream

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	// ErrInvalidEncoding is returned in strict mode when the input holds a
	// byte sequence that is not valid in the source encoding.
	ErrInvalidEncoding = errors.New("jsonstream: invalid byte sequence")

	// ErrUnknownCharset is returned when a charset label cannot be resolved.
	ErrUnknownCharset = errors.New("jsonstream: unknown charset")
)

const defaultDecodeBuffer = 4096

// DecoderOption configures a Decoder.
type DecoderOption func(*decoderConfig)

type decoderConfig struct {
	enc    encoding.Encoding
	strict bool
}

// WithEncoding sets the source encoding. The default is UTF-8.
func WithEncoding(enc encoding.Encoding) DecoderOption {
	return func(c *decoderConfig) {
		if enc != nil {
			c.enc = enc
		}
	}
}

// WithCharset resolves a charset label, as found in a Content-Type header,
// into a decoder option.
func WithCharset(label string) (DecoderOption, error) {
	enc, err := CharsetEncoding(label)
	if err != nil {
		return nil, err
	}
	return WithEncoding(enc), nil
}

// WithStrict makes invalid UTF-8 input an error instead of U+FFFD.
func WithStrict() DecoderOption {
	return func(c *decoderConfig) { c.strict = true }
}

// CharsetEncoding resolves a WHATWG charset label. An empty label means UTF-8.
func CharsetEncoding(label string) (encoding.Encoding, error) {
	label = strings.TrimSpace(strings.Trim(label, `"'`))
	if label == "" {
		return unicode.UTF8, nil
	}
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("%w %q", ErrUnknownCharset, label)
	}
	return enc, nil
}

// Decoder converts raw chunks into text incrementally. A multi-byte sequence
// split across chunks is held back until it is complete.
type Decoder struct {
	t       transform.Transformer
	utf8    bool
	strict  bool
	pending []byte
	dst     []byte
}

// NewDecoder creates a Decoder. Without options it decodes UTF-8 and
// replaces invalid bytes with U+FFFD.
func NewDecoder(opts ...DecoderOption) *Decoder {
	cfg := decoderConfig{enc: unicode.UTF8}
	for _, opt := range opts {
		opt(&cfg)
	}
	name, _ := htmlindex.Name(cfg.enc)
	return &Decoder{
		t:      cfg.enc.NewDecoder(),
		utf8:   name == "utf-8",
		strict: cfg.strict,
		dst:    make([]byte, defaultDecodeBuffer),
	}
}

// Decode returns the text of all complete characters in the retained tail
// plus chunk.
func (d *Decoder) Decode(chunk []byte) (string, error) {
	src := chunk
	if len(d.pending) > 0 {
		src = append(d.pending, chunk...)
		d.pending = nil
	}
	return d.transform(src, false)
}

// Flush ends the input. A retained incomplete sequence becomes U+FFFD, or
// ErrInvalidEncoding in strict mode.
func (d *Decoder) Flush() (string, error) {
	src := d.pending
	d.pending = nil
	if len(src) == 0 {
		return "", nil
	}
	return d.transform(src, true)
}

// Pending reports how many bytes are held back waiting for more input.
func (d *Decoder) Pending() int {
	return len(d.pending)
}

func (d *Decoder) transform(src []byte, atEOF bool) (string, error) {
	if d.strict && d.utf8 {
		if off := invalidUTF8(src, atEOF); off >= 0 {
			return "", fmt.Errorf("%w at offset %d", ErrInvalidEncoding, off)
		}
	}

	var out strings.Builder
	for {
		nDst, nSrc, err := d.t.Transform(d.dst, src, atEOF)
		out.Write(d.dst[:nDst])
		src = src[nSrc:]

		switch {
		case err == nil:
			return out.String(), nil
		case errors.Is(err, transform.ErrShortDst):
			if nDst == 0 && nSrc == 0 {
				d.dst = make([]byte, 2*len(d.dst))
			}
		case errors.Is(err, transform.ErrShortSrc) && !atEOF:
			d.pending = append([]byte(nil), src...)
			return out.String(), nil
		default:
			return out.String(), fmt.Errorf("%w: %v", ErrInvalidEncoding, err)
		}
	}
}

// invalidUTF8 returns the offset of the first invalid sequence in src, or -1.
// An incomplete sequence at the very end is valid unless atEOF is set.
func invalidUTF8(src []byte, atEOF bool) int {
	for i := 0; i < len(src); {
		if src[i] < utf8.RuneSelf {
			i++
			continue
		}
		r, size := utf8.DecodeRune(src[i:])
		if r == utf8.RuneError && size <= 1 {
			if !atEOF && !utf8.FullRune(src[i:]) {
				return -1
			}
			return i
		}
		i += size
	}
	return -1
}
