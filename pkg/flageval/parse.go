package flageval

import (
	"math"
	"strconv"
	"strings"
)

// parseFloat mirrors the numeric coercion the greater/lower operators have
// always used: numbers pass through, strings are parsed from their leading
// numeric prefix ("22px" is 22), and everything else is NaN. Comparing
// against NaN is always false, which is exactly the fail-closed behavior
// the operators rely on.
func parseFloat(v any, present bool) float64 {
	if !present {
		return math.NaN()
	}
	if f, ok := asNumber(v); ok {
		return f
	}
	s, ok := v.(string)
	if !ok {
		return math.NaN()
	}
	return parseFloatPrefix(s)
}

func parseFloatPrefix(s string) float64 {
	s = strings.TrimLeft(s, " \t\n\r\f\v")

	i := 0
	n := len(s)
	sign := 1.0
	if i < n && (s[i] == '+' || s[i] == '-') {
		if s[i] == '-' {
			sign = -1.0
		}
		i++
	}

	if strings.HasPrefix(s[i:], "Infinity") {
		return sign * math.Inf(1)
	}

	start := i
	intDigits := 0
	for i < n && s[i] >= '0' && s[i] <= '9' {
		i++
		intDigits++
	}
	fracDigits := 0
	if i < n && s[i] == '.' {
		i++
		for i < n && s[i] >= '0' && s[i] <= '9' {
			i++
			fracDigits++
		}
	}
	if intDigits == 0 && fracDigits == 0 {
		return math.NaN()
	}

	// Optional exponent; only consumed when well formed, otherwise the
	// mantissa alone is the parsed value ("1e" is 1).
	if i < n && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < n && (s[j] == '+' || s[j] == '-') {
			j++
		}
		expDigits := 0
		for j < n && s[j] >= '0' && s[j] <= '9' {
			j++
			expDigits++
		}
		if expDigits > 0 {
			i = j
		}
	}

	f, err := strconv.ParseFloat(s[start:i], 64)
	if err != nil {
		return math.NaN()
	}
	return sign * f
}
