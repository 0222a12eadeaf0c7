package companion

import (
	"testing"

	"github.com/chirino/gina-service/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestParseFacts(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want model.Facts
	}{
		{"object", `{"favorite_color":"green"}`, model.Facts{"favorite_color": "green"}},
		{"empty object", `{}`, model.Facts{}},
		{"fenced", "```json\n{\"pet\":\"cat\"}\n```", model.Facts{"pet": "cat"}},
		{"prose", "Sure! Here are the facts.", model.Facts{}},
		{"array", `["a","b"]`, model.Facts{}},
		{"null", `null`, model.Facts{}},
		{"truncated", `{"pet":`, model.Facts{}},
		{"blank", "", model.Facts{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ParseFacts(tc.in))
		})
	}
}
