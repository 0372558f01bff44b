package jsonstream

import (
	"fmt"
	"strings"
)

// MalformedPolicy decides what the Scanner does with a balanced span that
// is not valid JSON.
type MalformedPolicy int

const (
	// PolicyStall keeps the buffer as it is and stops extracting for the
	// rest of the session. Later text accumulates but yields no units.
	PolicyStall MalformedPolicy = iota

	// PolicyResync drops everything through the offending opening brace and
	// keeps scanning from the next byte.
	PolicyResync
)

// String returns the policy name used in configuration.
func (p MalformedPolicy) String() string {
	switch p {
	case PolicyStall:
		return "stall"
	case PolicyResync:
		return "resync"
	default:
		return fmt.Sprintf("MalformedPolicy(%d)", int(p))
	}
}

// ParsePolicy parses a policy name. An empty name selects PolicyStall.
func ParsePolicy(name string) (MalformedPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "stall":
		return PolicyStall, nil
	case "resync":
		return PolicyResync, nil
	default:
		return PolicyStall, fmt.Errorf("jsonstream: unknown malformed policy %q", name)
	}
}
