package jsonstream

import "testing"

func TestTokenizer_States(t *testing.T) {
	tests := []struct {
		name  string
		input string
		state State
		depth int
	}{
		{"empty", "", StateOutside, 0},
		{"junk before object", "abc ", StateOutside, 0},
		{"open object", `{`, StateObject, 1},
		{"nested", `{"a":{`, StateObject, 2},
		{"inside string", `{"a`, StateString, 1},
		{"after backslash", `{"a\`, StateEscape, 1},
		{"escaped quote stays in string", `{"a\"`, StateString, 1},
		{"escaped backslash closes string", `{"a\\"`, StateObject, 1},
		{"brace in string ignored", `{"{{"`, StateObject, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok := NewTokenizer()
			if _, ok := tok.Feed([]byte(tt.input)); ok {
				t.Fatal("expected no complete object")
			}
			if tok.State() != tt.state {
				t.Errorf("expected state %s, got %s", tt.state, tok.State())
			}
			if tok.Depth() != tt.depth {
				t.Errorf("expected depth %d, got %d", tt.depth, tok.Depth())
			}
		})
	}
}

func TestTokenizer_FindsEnd(t *testing.T) {
	tests := []struct {
		input string
		start int
		end   int
	}{
		{`{}`, 0, 1},
		{`  {"a":1} {"b":2}`, 2, 8},
		{`{"a":{"b":{}}}`, 0, 13},
		{`{"text":"a \"b{c}\" d"}`, 0, 22},
		{`{"p":"C:\\"}`, 0, 11},
		{`x}{"a":"}"}`, 2, 10},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tok := NewTokenizer()
			end, ok := tok.Feed([]byte(tt.input))
			if !ok {
				t.Fatal("expected a complete object")
			}
			if tok.Start() != tt.start {
				t.Errorf("expected start %d, got %d", tt.start, tok.Start())
			}
			if end != tt.end {
				t.Errorf("expected end %d, got %d", tt.end, end)
			}
		})
	}
}

func TestTokenizer_ResumesAcrossFeeds(t *testing.T) {
	full := []byte(`{"a":"}{","b":[1,2]}`)
	tok := NewTokenizer()
	for i := 1; i < len(full); i++ {
		if _, ok := tok.Feed(full[:i]); ok {
			t.Fatalf("unexpected end after %d bytes", i)
		}
	}
	end, ok := tok.Feed(full)
	if !ok {
		t.Fatal("expected a complete object")
	}
	if end != len(full)-1 {
		t.Errorf("expected end %d, got %d", len(full)-1, end)
	}
}

func TestTokenizer_Reset(t *testing.T) {
	tok := NewTokenizer()
	tok.Feed([]byte(`{"a`))
	tok.Reset()
	if tok.State() != StateOutside || tok.Depth() != 0 || tok.Start() != -1 {
		t.Errorf("expected outside/0/-1, got %s/%d/%d", tok.State(), tok.Depth(), tok.Start())
	}
}
