package companion

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/chirino/gina-service/internal/model"
)

const (
	profileHeader = "USER PROFILE CONTEXT (authoritative intake + known facts):"
	liveHeader    = "MENTAL METRICS (user-reported):"

	// memoryPreamble introduces the composed profile context to the model.
	memoryPreamble = "Use the following context when helpful and accurate. If unclear, ask a short clarifying question.\n"
)

var factLabels = []struct{ key, label string }{
	{model.FactPreferredName, "Preferred name"},
	{model.FactPronouns, "Pronouns"},
	{model.FactAge, "Age"},
	{model.FactLocation, "Location"},
	{model.FactHobbies, "Hobbies"},
	{model.FactSupport, "Support network"},
}

// Compose renders the profile context from intake and facts. Absent or empty
// values are skipped. Returns "" when nothing is known about the user.
func Compose(intake *model.Intake, facts model.Facts) string {
	var lines []string
	add := func(label string, v interface{}) {
		if s, ok := displayValue(v); ok {
			lines = append(lines, label+": "+s)
		}
	}

	for _, f := range factLabels {
		add(f.label, facts[f.key])
	}
	if intake != nil {
		add("Intake name", intake.FullName)
		add("Intake age", intake.Age)
		add("Intake pronouns", intake.Pronouns)
		add("Intake location", intake.Location)
		add("Presenting issues", intake.PresentingIssues)
		add("Therapy goals", intake.Goals)
		add("Symptoms", intake.Symptoms)
		add("Severity (1-5)", intake.Severity)
		add("Duration", intake.Duration)
		add("Risk factors", intake.RiskFactors)
		add("Medications", intake.Medications)
		add("Past therapy history", intake.HistoryTherapy)
		add("Preferences", intake.Preferences)
		add("Availability", intake.Availability)
		add("Suggested therapy", intake.Suggestion)
	}
	add("Conversation summary", facts[model.FactSummary])

	if mm := metricLines(model.MentalMetricsFromValue(facts[model.FactLastMentalMetrics])); len(mm) > 0 {
		lines = append(lines, "MENTAL METRICS:")
		lines = append(lines, mm...)
	}

	if len(lines) == 0 {
		return ""
	}
	return profileHeader + "\n- " + strings.Join(lines, "\n- ")
}

// FormatLiveMetrics renders the metrics sent with the current turn. Returns ""
// when m has nothing to show.
func FormatLiveMetrics(m *model.MentalMetrics) string {
	lines := metricLines(m)
	if len(lines) == 0 {
		return ""
	}
	return liveHeader + "\n- " + strings.Join(lines, "\n- ")
}

// systemContext joins the composed profile and the live metrics block into
// the optional context system message.
func systemContext(profile, live string) string {
	var out string
	if profile != "" {
		out = memoryPreamble + profile
	}
	if live != "" {
		if out != "" {
			out += "\n\n"
		}
		out += live
	}
	return out
}

func metricLines(m *model.MentalMetrics) []string {
	if m == nil {
		return nil
	}
	var lines []string
	if wb := m.Wellbeing; wb != nil && wb.Value != nil {
		line := "Wellbeing: " + wb.Value.String() + "%" + trend(wb.Trend)
		if wb.Notes != "" {
			line += " — Notes: " + wb.Notes
		}
		lines = append(lines, line)
	}
	if s := m.StressLevel; s != nil && (s.Value != nil || s.Label != "") {
		line := "Stress level:"
		if s.Label != "" {
			line += " " + s.Label
		}
		if s.Value != nil {
			line += " (" + s.Value.String() + ")"
		}
		line += trend(s.Trend)
		if len(s.Stressors) > 0 {
			line += " — Stressors: " + strings.Join(s.Stressors, ", ")
		}
		if s.Notes != "" {
			line += " — Notes: " + s.Notes
		}
		lines = append(lines, line)
	}
	if md := m.Mood; md != nil && (md.Value != "" || md.Intensity != nil) {
		line := "Mood:"
		if md.Value != "" {
			line += " " + md.Value
		}
		if md.Intensity != nil {
			line += " (intensity " + md.Intensity.String() + "/10)"
		}
		if len(md.Triggers) > 0 {
			line += " — Triggers: " + strings.Join(md.Triggers, ", ")
		}
		if md.Notes != "" {
			line += " — Notes: " + md.Notes
		}
		lines = append(lines, line)
	}
	return lines
}

func trend(t *model.Number) string {
	if t == nil {
		return ""
	}
	sign := ""
	if *t >= 0 {
		sign = "+"
	}
	return " (trend " + sign + t.String() + ")"
}

// displayValue renders a fact or intake value. The boolean is false for
// values that count as absent: nil, empty strings, false, zero and empty
// collections.
func displayValue(v interface{}) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case *string:
		if t == nil {
			return "", false
		}
		return displayValue(*t)
	case *int:
		if t == nil {
			return "", false
		}
		return displayValue(*t)
	case string:
		if strings.TrimSpace(t) == "" {
			return "", false
		}
		return t, true
	case bool:
		if !t {
			return "", false
		}
		return "true", true
	case float64:
		if t == 0 {
			return "", false
		}
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case int:
		if t == 0 {
			return "", false
		}
		return strconv.Itoa(t), true
	case json.Number:
		if f, err := t.Float64(); err == nil && f == 0 {
			return "", false
		}
		return t.String(), true
	case []interface{}:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := displayValue(item); ok {
				parts = append(parts, s)
			}
		}
		if len(parts) == 0 {
			return "", false
		}
		return strings.Join(parts, ", "), true
	case []string:
		var parts []string
		for _, item := range t {
			if strings.TrimSpace(item) != "" {
				parts = append(parts, item)
			}
		}
		if len(parts) == 0 {
			return "", false
		}
		return strings.Join(parts, ", "), true
	case map[string]interface{}:
		if len(t) == 0 {
			return "", false
		}
		b, err := json.Marshal(t)
		if err != nil {
			return "", false
		}
		return string(b), true
	default:
		s := fmt.Sprint(t)
		return s, s != ""
	}
}
