package jsonstream

import (
	"unicode"
	"unicode/utf8"
)

// Buffer holds decoded text that has not been consumed yet. Text is only
// ever appended at the back and discarded from the front.
type Buffer struct {
	data []byte
	off  int
}

// Append adds text to the back of the buffer.
func (b *Buffer) Append(text string) {
	if text == "" {
		return
	}
	if b.off > 0 && b.off >= len(b.data)/2 {
		n := copy(b.data, b.data[b.off:])
		b.data = b.data[:n]
		b.off = 0
	}
	b.data = append(b.data, text...)
}

// Bytes returns the unconsumed text. The slice is valid until the next
// call that modifies the buffer.
func (b *Buffer) Bytes() []byte {
	return b.data[b.off:]
}

// Len returns the number of unconsumed bytes.
func (b *Buffer) Len() int {
	return len(b.data) - b.off
}

// Discard drops n bytes from the front.
func (b *Buffer) Discard(n int) {
	if n <= 0 {
		return
	}
	if n >= b.Len() {
		b.Reset()
		return
	}
	b.off += n
}

// TrimLeftSpace drops leading whitespace and returns how many bytes it
// removed.
func (b *Buffer) TrimLeftSpace() int {
	data := b.Bytes()
	n := 0
	for n < len(data) {
		r, size := utf8.DecodeRune(data[n:])
		if !unicode.IsSpace(r) && r != '\ufeff' {
			break
		}
		n += size
	}
	b.Discard(n)
	return n
}

// String returns the unconsumed text.
func (b *Buffer) String() string {
	return string(b.Bytes())
}

// Reset empties the buffer.
func (b *Buffer) Reset() {
	b.data = b.data[:0]
	b.off = 0
}
