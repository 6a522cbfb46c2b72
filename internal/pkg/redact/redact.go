package redact

import "strings"

func Email(s string) string {
	parts := strings.Split(s, "@")
	if len(parts) != 2 {
		return "***"
	}

	local, domain := parts[0], parts[1]
	if len(local) > 2 {
		local = local[:2] + "***"
	} else {
		local = "***"
	}

	return local + "@" + domain
}

func Token() string    { return "[REDACTED_TOKEN]" }
func Password() string { return "[REDACTED_PASSWORD]" }

// Address маскирует адрес доставки: оставляем только первые слова до запятой.
func Address(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	if i := strings.IndexByte(s, ','); i > 0 {
		return s[:i] + ", ***"
	}

	return "***"
}
