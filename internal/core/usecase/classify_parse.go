package usecase

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/kirillkom/fedramp-ai-catalog/internal/core/domain"
)

const codeFence = "```"

// classificationItem is one element of the generated JSON array. Every
// field tolerates a missing or oddly typed value.
type classificationItem struct {
	ServiceName     domain.FieldValue `json:"service_name"`
	HasAI           lenientBool       `json:"has_ai"`
	HasGenAI        lenientBool       `json:"has_genai"`
	HasLLM          lenientBool       `json:"has_llm"`
	RelevantExcerpt domain.FieldValue `json:"relevant_excerpt"`
}

func parseClassificationResponse(raw string) ([]classificationItem, error) {
	payload := stripCodeFence(raw)
	var items []classificationItem
	if err := json.Unmarshal([]byte(payload), &items); err != nil {
		return nil, domain.WrapError(domain.ErrMalformedResponse, "parse classification response", err)
	}
	return items, nil
}

// stripCodeFence returns the body of the first fenced block, dropping a
// language tag on the opening fence whether or not it sits on its own
// line. Unfenced text is returned trimmed.
func stripCodeFence(raw string) string {
	text := strings.TrimSpace(raw)
	_, after, found := strings.Cut(text, codeFence)
	if !found {
		return text
	}

	body, _, _ := strings.Cut(after, codeFence)
	body = strings.TrimSpace(body)
	if idx := strings.IndexAny(body, "[{"); idx > 0 {
		body = body[idx:]
	}
	return body
}

type lenientBool bool

func (b *lenientBool) UnmarshalJSON(data []byte) error {
	var value any
	if err := json.Unmarshal(data, &value); err != nil {
		*b = false
		return nil
	}

	switch v := value.(type) {
	case bool:
		*b = lenientBool(v)
	case float64:
		*b = v != 0
	case string:
		text := strings.TrimSpace(v)
		if parsed, err := strconv.ParseBool(text); err == nil {
			*b = lenientBool(parsed)
		} else {
			*b = lenientBool(strings.EqualFold(text, "yes"))
		}
	default:
		*b = false
	}
	return nil
}
