package domain

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Verdict is the classifier's judgment of a message, reduced to three states
type Verdict int

const (
	// VerdictIndeterminate covers empty, malformed, timed out and failed calls
	VerdictIndeterminate Verdict = iota
	VerdictRelevant
	VerdictNotRelevant
)

var verdictNames = map[Verdict]string{
	VerdictIndeterminate: "indeterminate",
	VerdictRelevant:      "relevant",
	VerdictNotRelevant:   "not_relevant",
}

func (v Verdict) String() string {
	if name, ok := verdictNames[v]; ok {
		return name
	}
	return fmt.Sprintf("verdict(%d)", int(v))
}

// ShouldForward reports whether the verdict lets a message reach the primary reply path.
// Only VerdictRelevant does; uncertainty never forwards.
func (v Verdict) ShouldForward() bool {
	return v == VerdictRelevant
}

// MarshalText implements encoding.TextMarshaler
func (v Verdict) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (v *Verdict) UnmarshalText(text []byte) error {
	for verdict, name := range verdictNames {
		if name == string(text) {
			*v = verdict
			return nil
		}
	}
	return fmt.Errorf("unknown verdict %q", text)
}

// ParseVerdict reduces a raw classifier response to a Verdict.
// The response is trimmed and lower-cased; a leading "yes" is relevant, a
// leading "no" is not, anything else is indeterminate. The keyword must end
// at a word boundary, so "yesterday" and "nothing" are indeterminate.
func ParseVerdict(response string) Verdict {
	s := strings.ToLower(strings.TrimSpace(response))
	s = strings.TrimLeft(s, "\"'`*")
	switch {
	case hasKeyword(s, "yes"):
		return VerdictRelevant
	case hasKeyword(s, "no"):
		return VerdictNotRelevant
	default:
		return VerdictIndeterminate
	}
}

func hasKeyword(s, keyword string) bool {
	if !strings.HasPrefix(s, keyword) {
		return false
	}
	r, size := utf8.DecodeRuneInString(s[len(keyword):])
	if size == 0 {
		return true
	}
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}
