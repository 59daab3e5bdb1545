package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var fenceRegex = regexp.MustCompile("```(?:json)?")

// ExtractJSON strips code fences and surrounding prose from model output,
// keeping the span from the first '[' or '{' to the last ']' or '}'.
func ExtractJSON(text string) string {
	text = fenceRegex.ReplaceAllString(text, "")
	text = strings.Trim(text, "` \t\r\n")

	start := strings.IndexAny(text, "[{")
	end := strings.LastIndexAny(text, "]}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}
	return strings.TrimSpace(text)
}

// ParseRows cleans raw model output and parses it into a row batch.
// A JSON object is accepted as a single-row batch. An empty result after
// cleanup is a parse failure, never a silent empty success.
func ParseRows(text string) ([]Row, error) {
	cleaned := ExtractJSON(text)
	if cleaned == "" {
		return nil, fmt.Errorf("empty response after cleanup")
	}

	var value any
	if err := json.Unmarshal([]byte(cleaned), &value); err != nil {
		return nil, fmt.Errorf("parsing JSON: %v", err)
	}

	switch v := value.(type) {
	case []any:
		rows := make([]Row, 0, len(v))
		for _, item := range v {
			obj, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("array item is not an object")
			}
			rows = append(rows, Row(obj))
		}
		if len(rows) == 0 {
			return nil, fmt.Errorf("response contained no rows")
		}
		return rows, nil
	case map[string]any:
		return []Row{Row(v)}, nil
	default:
		return nil, fmt.Errorf("response is not a JSON array or object")
	}
}
