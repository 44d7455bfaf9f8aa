package intake

import "strings"

// NormalizeDigits keeps only the ASCII digits of raw, truncated to maxLen.
// Nothing else is trimmed or collapsed.
func NormalizeDigits(raw string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	var b strings.Builder
	for i := 0; i < len(raw) && b.Len() < maxLen; i++ {
		if c := raw[i]; c >= '0' && c <= '9' {
			b.WriteByte(c)
		}
	}
	return b.String()
}
