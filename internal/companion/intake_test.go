package companion

import (
	"testing"
	"time"

	"github.com/chirino/gina-service/internal/model"
	registrystore "github.com/chirino/gina-service/internal/registry/store"
	"github.com/stretchr/testify/assert"
)

func TestSuggestTherapy(t *testing.T) {
	cases := []struct {
		issues, symptoms, want string
	}{
		{"PTSD after an accident", "", "Trauma-focused CBT or EMDR"},
		{"", "panic attacks", "CBT (with exposure)"},
		{"feeling sad", "", "CBT or Behavioral Activation"},
		{"", "Low mood most days", "CBT or Behavioral Activation"},
		{"emotion regulation", "", "DBT (Dialectical Behavior Therapy)"},
		{"", "compulsions", "ERP (Exposure and Response Prevention)"},
		{"relationship trouble", "", "Couples Therapy (Emotion-Focused or Gottman)"},
		{"work stress", "tired", DefaultTherapySuggestion},
		// earlier rules win
		{"anxiety and trauma", "", "Trauma-focused CBT or EMDR"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, SuggestTherapy(tc.issues, tc.symptoms), "%q / %q", tc.issues, tc.symptoms)
	}
}

func TestIntakeFacts(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	age := 31
	patch := IntakeFacts(registrystore.IntakeUpdate{
		FullName: strPtr("Jordan"),
		Pronouns: strPtr(""),
		Age:      &age,
		Goals:    strPtr("sleep better"),
	}, "CBT (with exposure)", now)

	assert.Equal(t, model.Facts{
		model.FactPreferredName:     "Jordan",
		model.FactAge:               31,
		model.FactGoals:             "sleep better",
		model.FactTherapySuggestion: "CBT (with exposure)",
		model.FactIntakeLastUpdated: "2026-03-01T09:30:00Z",
	}, patch)
}

func TestIntakeSummary(t *testing.T) {
	assert.Equal(t, NoIntakeSummary, IntakeSummary(nil, model.Facts{}))

	severity := 3
	in := &model.Intake{
		FullName:       strPtr("Jordan"),
		Severity:       &severity,
		HistoryTherapy: strPtr("two years of CBT"),
		Goals:          strPtr("sleep better"),
		Suggestion:     strPtr("Supportive Therapy"),
	}
	got := IntakeSummary(in, model.Facts{model.FactSummary: "Talked about sleep."})
	assert.Equal(t, "Name: Jordan\n"+
		"Severity (1-5): 3\n"+
		"Past therapy: two years of CBT\n"+
		"Therapy goals: sleep better\n"+
		"Suggested therapy: Supportive Therapy\n"+
		"Conversation summary: Talked about sleep.", got)

	assert.Equal(t, "Conversation summary: only this", IntakeSummary(nil, model.Facts{model.FactSummary: "only this"}))
}
