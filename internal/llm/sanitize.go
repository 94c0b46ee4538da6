package llm

import "strings"

// StripFences removes a BOM and a surrounding markdown code fence, which
// models add despite being told not to.
func StripFences(s string) string {
	s = strings.TrimSpace(strings.TrimPrefix(s, "\ufeff"))
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	// optional language tag before the payload
	if i := strings.IndexAny(s, "{["); i > 0 && strings.TrimSpace(strings.TrimLeft(s[:i], "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ")) == "" {
		s = s[i:]
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
