package jsonstream

// State is the position of the Tokenizer relative to JSON structure.
type State int

const (
	// StateOutside is between top-level objects.
	StateOutside State = iota
	// StateObject is inside an object, outside any string.
	StateObject
	// StateString is inside a string literal.
	StateString
	// StateEscape follows a backslash inside a string literal.
	StateEscape
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateOutside:
		return "outside"
	case StateObject:
		return "object"
	case StateString:
		return "string"
	case StateEscape:
		return "escape"
	default:
		return "unknown"
	}
}

// Tokenizer finds the end of the first top-level object in a byte slice.
// It remembers where it stopped, so feeding a longer version of the same
// slice examines each byte once.
type Tokenizer struct {
	state State
	depth int
	start int
	pos   int
}

// NewTokenizer returns a Tokenizer in the outside state.
func NewTokenizer() *Tokenizer {
	t := &Tokenizer{}
	t.Reset()
	return t
}

// Feed scans buf from where the previous call stopped. It returns the
// offset of the closing brace once depth returns to zero.
func (t *Tokenizer) Feed(buf []byte) (end int, ok bool) {
	for ; t.pos < len(buf); t.pos++ {
		c := buf[t.pos]
		switch t.state {
		case StateOutside:
			if c == '{' {
				t.state = StateObject
				t.depth = 1
				t.start = t.pos
			}
		case StateObject:
			switch c {
			case '"':
				t.state = StateString
			case '{':
				t.depth++
			case '}':
				t.depth--
				if t.depth == 0 {
					end = t.pos
					t.pos++
					return end, true
				}
			}
		case StateString:
			switch c {
			case '\\':
				t.state = StateEscape
			case '"':
				t.state = StateObject
			}
		case StateEscape:
			t.state = StateString
		}
	}
	return -1, false
}

// Start returns the offset of the opening brace, or -1 when outside.
func (t *Tokenizer) Start() int { return t.start }

// Depth returns the current brace depth.
func (t *Tokenizer) Depth() int { return t.depth }

// State returns the current state.
func (t *Tokenizer) State() State { return t.state }

// Reset returns the tokenizer to the outside state at offset zero.
func (t *Tokenizer) Reset() {
	*t = Tokenizer{start: -1}
}
