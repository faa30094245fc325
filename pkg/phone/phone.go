package phone

import (
	"fmt"
	"strings"
)

// Normalize converts a subscriber phone number into bare international
// format (country code followed by the national number, no plus sign).
// The mapping is deterministic and total: every input either yields
// exactly one canonical form or an error.
//
//	0712345678   -> 254712345678
//	+254712345678 -> 254712345678
//	254712345678 -> 254712345678
//	712345678    -> 254712345678
func Normalize(raw, countryCode string) (string, error) {
	s := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '\t':
			return -1
		}
		return r
	}, raw)

	s = strings.TrimPrefix(s, "+")

	if s == "" {
		return "", fmt.Errorf("phone number is empty")
	}

	for _, r := range s {
		if r < '0' || r > '9' {
			return "", fmt.Errorf("phone number contains invalid character %q", r)
		}
	}

	switch {
	case strings.HasPrefix(s, "0"):
		s = countryCode + s[1:]
	case strings.HasPrefix(s, countryCode):
		// already international
	default:
		s = countryCode + s
	}

	if len(s) <= len(countryCode) {
		return "", fmt.Errorf("phone number too short: %s", raw)
	}

	return s, nil
}
