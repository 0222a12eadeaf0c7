package companion

import (
	"strings"
	"time"

	"github.com/chirino/gina-service/internal/model"
	registrystore "github.com/chirino/gina-service/internal/registry/store"
)

// DefaultTherapySuggestion is used when no rule matches.
const DefaultTherapySuggestion = "Supportive Therapy"

// suggestionRules are checked in order; the first match wins.
var suggestionRules = []struct {
	keywords   []string
	suggestion string
}{
	{[]string{"trauma", "ptsd"}, "Trauma-focused CBT or EMDR"},
	{[]string{"anxiety", "panic"}, "CBT (with exposure)"},
	{[]string{"depress", "sad", "low mood"}, "CBT or Behavioral Activation"},
	{[]string{"borderline", "emotion regulation", "self-harm"}, "DBT (Dialectical Behavior Therapy)"},
	{[]string{"ocd", "compulsion", "obsess"}, "ERP (Exposure and Response Prevention)"},
	{[]string{"relationship", "couples"}, "Couples Therapy (Emotion-Focused or Gottman)"},
}

// SuggestTherapy picks a therapy modality from the presenting issues and
// symptoms by keyword.
func SuggestTherapy(presentingIssues, symptoms string) string {
	text := strings.ToLower(presentingIssues + " " + symptoms)
	for _, rule := range suggestionRules {
		for _, kw := range rule.keywords {
			if strings.Contains(text, kw) {
				return rule.suggestion
			}
		}
	}
	return DefaultTherapySuggestion
}

// IntakeFacts returns the facts patch an intake submission folds into
// memory. Only fields present in the submission overwrite existing facts;
// the suggestion and the update time are always written.
func IntakeFacts(in registrystore.IntakeUpdate, suggestion string, now time.Time) model.Facts {
	patch := model.Facts{
		model.FactTherapySuggestion: suggestion,
		model.FactIntakeLastUpdated: now.UTC().Format(time.RFC3339Nano),
	}
	setString := func(key string, v *string) {
		if v != nil && strings.TrimSpace(*v) != "" {
			patch[key] = *v
		}
	}
	setString(model.FactPreferredName, in.FullName)
	setString(model.FactPronouns, in.Pronouns)
	setString(model.FactLocation, in.Location)
	setString(model.FactGoals, in.Goals)
	setString(model.FactPresentingIssues, in.PresentingIssues)
	if in.Age != nil {
		patch[model.FactAge] = *in.Age
	}
	return patch
}

// NoIntakeSummary is returned by IntakeSummary when nothing is saved.
const NoIntakeSummary = "No intake information saved yet."

// IntakeSummary renders the intake for the user to read back, one labelled
// line per answered question, followed by the conversation summary.
func IntakeSummary(intake *model.Intake, facts model.Facts) string {
	var lines []string
	add := func(label string, v interface{}) {
		if s, ok := displayValue(v); ok {
			lines = append(lines, label+": "+s)
		}
	}
	if intake != nil {
		add("Name", intake.FullName)
		add("Age", intake.Age)
		add("Pronouns", intake.Pronouns)
		add("Location", intake.Location)
		add("Presenting issues", intake.PresentingIssues)
		add("Symptoms", intake.Symptoms)
		add("Severity (1-5)", intake.Severity)
		add("Duration", intake.Duration)
		add("Risk factors", intake.RiskFactors)
		add("Medications", intake.Medications)
		add("Past therapy", intake.HistoryTherapy)
		add("Therapy goals", intake.Goals)
		add("Preferences", intake.Preferences)
		add("Availability", intake.Availability)
		add("Suggested therapy", intake.Suggestion)
	}
	add("Conversation summary", facts[model.FactSummary])
	if len(lines) == 0 {
		return NoIntakeSummary
	}
	return strings.Join(lines, "\n")
}
