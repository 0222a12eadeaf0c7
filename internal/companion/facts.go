package companion

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/chirino/gina-service/internal/model"
)

var errNotAnObject = errors.New("model output is not a JSON object")

// ParseFacts decodes the fact-extraction output. Model output is untrusted:
// anything that is not a JSON object yields an empty map.
func ParseFacts(text string) model.Facts {
	facts, err := parseFactsStrict(text)
	if err != nil {
		return model.Facts{}
	}
	return facts
}

func parseFactsStrict(text string) (model.Facts, error) {
	body := stripCodeFence(strings.TrimSpace(text))
	if !strings.HasPrefix(body, "{") {
		return nil, errNotAnObject
	}
	var facts model.Facts
	if err := json.Unmarshal([]byte(body), &facts); err != nil {
		return nil, err
	}
	if facts == nil {
		return nil, errNotAnObject
	}
	return facts, nil
}

// stripCodeFence removes a surrounding ```json ... ``` fence.
func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = ""
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
