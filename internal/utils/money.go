package utils

import (
	"strconv"
	"strings"
)

// FormatLKR renders a rupee amount with thousand separators for outbound
// messages and documents, e.g. 5400 -> "LKR 5,400".
func FormatLKR(amount float64) string {
	n := int64(amount)
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	return sign + "LKR " + formatThousand(n)
}

// ParseAmount parses a display amount like "5,400" into a number.
// Anything unparseable counts as zero rather than failing.
func ParseAmount(s string) float64 {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

func formatThousand(n int64) string {
	if n == 0 {
		return "0"
	}
	str := strconv.FormatInt(n, 10)
	var out strings.Builder
	for i, c := range str {
		if i != 0 && (len(str)-i)%3 == 0 {
			out.WriteByte(',')
		}
		out.WriteRune(c)
	}
	return out.String()
}
