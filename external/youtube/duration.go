package youtube

import (
	"strconv"
	"strings"
)

// ParseDuration converts the provider's ISO-8601-style duration token
// ("PT1H2M3S") into whole seconds. Missing components default to zero and a
// malformed token parses to zero rather than failing the whole candidate.
func ParseDuration(token string) int {
	token = strings.TrimSpace(token)
	rest, ok := strings.CutPrefix(token, "PT")
	if !ok || rest == "" {
		return 0
	}

	total := 0
	digits := strings.Builder{}
	seen := map[byte]bool{}
	for i := 0; i < len(rest); i++ {
		c := rest[i]
		if c >= '0' && c <= '9' {
			digits.WriteByte(c)
			continue
		}

		var multiplier int
		switch c {
		case 'H':
			multiplier = 3600
		case 'M':
			multiplier = 60
		case 'S':
			multiplier = 1
		default:
			return 0
		}
		if digits.Len() == 0 || seen[c] {
			return 0
		}
		seen[c] = true

		value, err := strconv.Atoi(digits.String())
		if err != nil {
			return 0
		}
		total += value * multiplier
		digits.Reset()
	}

	// Trailing digits without a unit designator make the token malformed.
	if digits.Len() > 0 {
		return 0
	}
	return total
}
