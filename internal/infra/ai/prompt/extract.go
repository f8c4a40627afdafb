package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bryanwahyu/convodoc/internal/domain/ai"
)

// ExtractJSON decodes a model reply into v. Only a JSON object is accepted;
// when the reply is not a bare object the first balanced object in the text
// is tried once.
func ExtractJSON(text string, v any) error {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "{") {
		if err := json.Unmarshal([]byte(text), v); err == nil {
			return nil
		}
	}
	block := firstObject(text)
	if block == "" {
		return fmt.Errorf("%w: no JSON object in reply", ai.ErrMalformedResponse)
	}
	if err := json.Unmarshal([]byte(block), v); err != nil {
		return fmt.Errorf("%w: %v", ai.ErrMalformedResponse, err)
	}
	return nil
}

func firstObject(text string) string {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return ""
	}
	depth := 0
	inString, escaped := false, false
	for i := start; i < len(text); i++ {
		c := text[i]
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
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}
