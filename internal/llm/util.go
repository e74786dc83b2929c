package llm

import "strings"

// CleanJSONBlock normalizes an LLM response down to its JSON payload.
// Models wrap JSON in ```json blocks, lead with conversational preambles,
// and append sign-offs even when instructed not to; all are stripped.
func CleanJSONBlock(text string) string {
	text = strings.TrimSpace(text)

	// Handle ```json ... ``` blocks
	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
	} else if strings.HasPrefix(text, "```") {
		// Handle generic ``` ... ``` blocks
		text = strings.TrimPrefix(text, "```")
		// Skip potential language identifier on first line
		if idx := strings.Index(text, "\n"); idx >= 0 {
			firstLine := text[:idx]
			// If first line looks like a language identifier (no spaces, short), skip it
			if len(firstLine) < 20 && !strings.Contains(firstLine, " ") && !strings.Contains(firstLine, "{") {
				text = text[idx+1:]
			}
		}
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
	}

	// Cut any prose before and after the first JSON value.
	objIdx := strings.Index(text, "{")
	arrIdx := strings.Index(text, "[")
	start := objIdx
	extract := extractJSONObject
	if objIdx < 0 || (arrIdx >= 0 && arrIdx < objIdx) {
		start = arrIdx
		extract = extractJSONArray
	}
	if start < 0 {
		return text
	}

	if payload := extract(text[start:]); payload != "" {
		return payload
	}
	return text
}

// extractJSONObject returns the balanced JSON object at the start of text,
// or "" if text does not start with one.
func extractJSONObject(text string) string {
	if len(text) == 0 || text[0] != '{' {
		return ""
	}
	return balancedPrefix(text, '{', '}')
}

// extractJSONArray returns the balanced JSON array at the start of text,
// or "" if text does not start with one.
func extractJSONArray(text string) string {
	if len(text) == 0 || text[0] != '[' {
		return ""
	}
	return balancedPrefix(text, '[', ']')
}

// balancedPrefix scans for the closer matching the opening delimiter,
// ignoring delimiters that appear inside JSON strings.
func balancedPrefix(text string, opener, closer byte) string {
	depth := 0
	inString := false
	escaped := false
	for i := 0; i < len(text); i++ {
		c := text[i]
		if escaped {
			escaped = false
			continue
		}
		switch {
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == opener:
			depth++
		case c == closer:
			depth--
			if depth == 0 {
				return text[:i+1]
			}
		}
	}
	return ""
}
