package model

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Role tags a turn in a conversation history.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one entry of a conversation history.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// TurnType returns the client-side tag of the turn: "user" or "ai".
func (t Turn) TurnType() string {
	if t.Role == RoleUser {
		return "user"
	}
	return "ai"
}

// MarshalJSON writes both the role and the client "type" tag.
func (t Turn) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Role    Role   `json:"role"`
		Type    string `json:"type"`
		Content string `json:"content"`
	}{t.Role, t.TurnType(), t.Content})
}

// UnmarshalJSON accepts both {"role": ...} and the older {"type": ...} shape.
// Anything that is not a user turn is treated as an assistant turn.
func (t *Turn) UnmarshalJSON(b []byte) error {
	var raw struct {
		Role    string `json:"role"`
		Type    string `json:"type"`
		Content string `json:"content"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	role := raw.Role
	if role == "" {
		role = raw.Type
	}
	t.Role = RoleAssistant
	if Role(role) == RoleUser {
		t.Role = RoleUser
	}
	t.Content = raw.Content
	return nil
}

// Facts is the open-ended personal memory of a user.
type Facts map[string]interface{}

// Well-known fact keys.
const (
	FactPreferredName        = "preferredName"
	FactPronouns             = "pronouns"
	FactAge                  = "age"
	FactLocation             = "location"
	FactHobbies              = "hobbies"
	FactSupport              = "support"
	FactSummary              = "summary"
	FactGoals                = "goals"
	FactPresentingIssues     = "presentingIssues"
	FactTherapySuggestion    = "therapySuggestion"
	FactIntakeLastUpdated    = "intakeLastUpdated"
	FactLastMentalMetrics    = "lastMentalMetrics"
	FactLastMetricsUpdatedAt = "lastMetricsUpdatedAt"
)

// Merge returns a new Facts holding f overlaid with patch. Keys in patch win;
// keys only in f are kept. Neither input is modified.
func (f Facts) Merge(patch Facts) Facts {
	out := make(Facts, len(f)+len(patch))
	for k, v := range f {
		out[k] = v
	}
	for k, v := range patch {
		out[k] = v
	}
	return out
}

// String returns the value at key when it is a string, otherwise "".
func (f Facts) String(key string) string {
	s, _ := f[key].(string)
	return s
}

// Number is a JSON number that also accepts numeric strings.
type Number float64

func (n *Number) UnmarshalJSON(b []byte) error {
	var f float64
	if err := json.Unmarshal(b, &f); err == nil {
		*n = Number(f)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return err
	}
	*n = Number(f)
	return nil
}

// String renders the number without a trailing fractional part when it is whole.
func (n Number) String() string {
	return strconv.FormatFloat(float64(n), 'f', -1, 64)
}

// Wellbeing is the self-reported wellbeing score (0-100).
type Wellbeing struct {
	Value *Number `json:"value,omitempty"`
	Trend *Number `json:"trend,omitempty"`
	Notes string  `json:"notes,omitempty"`
}

// StressLevel is the self-reported stress score (0-100).
type StressLevel struct {
	Value     *Number  `json:"value,omitempty"`
	Label     string   `json:"label,omitempty"`
	Trend     *Number  `json:"trend,omitempty"`
	Stressors []string `json:"stressors,omitempty"`
	Notes     string   `json:"notes,omitempty"`
}

// Mood is the self-reported mood with an intensity from 1 to 10.
type Mood struct {
	Value     string   `json:"value,omitempty"`
	Intensity *Number  `json:"intensity,omitempty"`
	Triggers  []string `json:"triggers,omitempty"`
	Notes     string   `json:"notes,omitempty"`
}

// MentalMetrics is the client-held metrics snapshot forwarded with a chat turn.
type MentalMetrics struct {
	Wellbeing   *Wellbeing   `json:"wellbeing,omitempty"`
	StressLevel *StressLevel `json:"stressLevel,omitempty"`
	Mood        *Mood        `json:"mood,omitempty"`
}

// UnmarshalJSON decodes each block on its own. A malformed block is dropped
// without failing the others.
func (m *MentalMetrics) UnmarshalJSON(b []byte) error {
	var raw struct {
		Wellbeing   json.RawMessage `json:"wellbeing"`
		StressLevel json.RawMessage `json:"stressLevel"`
		Mood        json.RawMessage `json:"mood"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*m = MentalMetrics{}
	decodeBlock(raw.Wellbeing, &m.Wellbeing)
	decodeBlock(raw.StressLevel, &m.StressLevel)
	decodeBlock(raw.Mood, &m.Mood)
	return nil
}

func decodeBlock[T any](raw json.RawMessage, dst **T) {
	if len(raw) == 0 || string(raw) == "null" {
		return
	}
	var v T
	if err := json.Unmarshal(raw, &v); err == nil {
		*dst = &v
	}
}

// Empty reports whether no block is present.
func (m *MentalMetrics) Empty() bool {
	return m == nil || (m.Wellbeing == nil && m.StressLevel == nil && m.Mood == nil)
}

// ParseMentalMetrics decodes raw JSON into a snapshot. It returns nil when the
// input is absent, not an object, or holds no recognizable block.
func ParseMentalMetrics(raw []byte) *MentalMetrics {
	if len(raw) == 0 {
		return nil
	}
	var m MentalMetrics
	if err := json.Unmarshal(raw, &m); err != nil || m.Empty() {
		return nil
	}
	return &m
}

// MentalMetricsFromValue converts a decoded JSON value, such as the
// lastMentalMetrics fact, into a snapshot. It returns nil when v is unusable.
func MentalMetricsFromValue(v interface{}) *MentalMetrics {
	switch t := v.(type) {
	case nil:
		return nil
	case *MentalMetrics:
		return t
	case MentalMetrics:
		return &t
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return ParseMentalMetrics(b)
}
