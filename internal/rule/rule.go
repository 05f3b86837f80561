// Package rule defines outer-totalistic birth/survival rules for the
// 8-cell Moore neighbourhood.
package rule

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalid reports a malformed rule string.
var ErrInvalid = errors.New("invalid rule")

// Rule maps (alive, live neighbour count) to the next cell state. Bit n of
// Birth is set when a dead cell with n neighbours is born; bit n of Survive
// is set when a live cell with n neighbours stays alive.
type Rule struct {
	Birth   uint16
	Survive uint16
}

// Conway is the standard Game of Life rule, B3/S23.
var Conway = Rule{Birth: 1 << 3, Survive: 1<<2 | 1<<3}

// Next returns whether the cell is alive next generation.
func (r Rule) Next(alive bool, neighbours int) bool {
	if alive {
		return r.Survive&(1<<neighbours) != 0
	}
	return r.Birth&(1<<neighbours) != 0
}

// Parse reads a rule in B/S notation, e.g. "B3/S23" or "b36/s23".
// The survival part may be empty ("B1/S").
func Parse(s string) (Rule, error) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) != 2 {
		return Rule{}, fmt.Errorf("%w: %q (want B<digits>/S<digits>)", ErrInvalid, s)
	}

	birth, err := parseDigits(parts[0], 'b')
	if err != nil {
		return Rule{}, fmt.Errorf("%w: %q: %v", ErrInvalid, s, err)
	}
	survive, err := parseDigits(parts[1], 's')
	if err != nil {
		return Rule{}, fmt.Errorf("%w: %q: %v", ErrInvalid, s, err)
	}

	// B0 would make the infinite dead background alive.
	if birth&1 != 0 {
		return Rule{}, fmt.Errorf("%w: %q: B0 rules are not supported on a bounded grid", ErrInvalid, s)
	}

	return Rule{Birth: birth, Survive: survive}, nil
}

// MustParse is like Parse but panics on error.
func MustParse(s string) Rule {
	r, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return r
}

func parseDigits(part string, prefix byte) (uint16, error) {
	part = strings.ToLower(part)
	if len(part) == 0 || part[0] != prefix {
		return 0, fmt.Errorf("part %q must start with %c", part, prefix-'a'+'A')
	}
	var mask uint16
	for _, ch := range part[1:] {
		if ch < '0' || ch > '8' {
			return 0, fmt.Errorf("neighbour count %q out of range 0-8", ch)
		}
		mask |= 1 << (ch - '0')
	}
	return mask, nil
}

// String formats the rule in B/S notation.
func (r Rule) String() string {
	var b strings.Builder
	b.WriteByte('B')
	for n := 0; n <= 8; n++ {
		if r.Birth&(1<<n) != 0 {
			b.WriteByte(byte('0' + n))
		}
	}
	b.WriteString("/S")
	for n := 0; n <= 8; n++ {
		if r.Survive&(1<<n) != 0 {
			b.WriteByte(byte('0' + n))
		}
	}
	return b.String()
}
