package llm

import "strings"

// CleanJSONBlock strips a markdown fence and any conversational text around a JSON value.
// Models wrap JSON in ```json ... ``` blocks or add a preamble even when told not to.
func CleanJSONBlock(text string) string {
	text = strings.TrimSpace(text)

	if start := strings.Index(text, "```"); start >= 0 {
		inner := text[start+3:]
		// skip a language tag on the fence line
		if nl := strings.Index(inner, "\n"); nl >= 0 {
			tag := strings.TrimSpace(inner[:nl])
			if len(tag) < 20 && !strings.ContainsAny(tag, " {[") {
				inner = inner[nl+1:]
			}
		}
		if end := strings.LastIndex(inner, "```"); end >= 0 {
			inner = inner[:end]
		}
		text = strings.TrimSpace(inner)
	}

	if text == "" || text[0] == '{' || text[0] == '[' {
		if v := extractJSONValue(text); v != "" {
			return v
		}
		return text
	}

	// preamble: start at the first brace or bracket
	if idx := strings.IndexAny(text, "{["); idx >= 0 {
		if v := extractJSONValue(text[idx:]); v != "" {
			return v
		}
	}
	return text
}

// extractJSONValue returns the balanced object or array at the start of s, ignoring
// brackets inside strings. It returns "" when s does not start with one or never closes.
func extractJSONValue(s string) string {
	if s == "" || (s[0] != '{' && s[0] != '[') {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 {
				return s[:i+1]
			}
		}
	}
	return ""
}
