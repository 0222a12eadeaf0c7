package companion

import "strings"

var (
	sadnessKeywords = []string{
		"sad", "depressed", "down", "upset", "crying", "tears", "heartbroken", "devastated",
		"feel awful", "feel terrible", "feel bad", "feel lost", "lost", "lonely", "empty",
		"hopeless", "despair", "grief", "mourning", "miss", "hurt", "pain", "ache",
	}
	frustrationKeywords = []string{
		"frustrated", "angry", "mad", "annoyed", "irritated", "furious", "rage", "pissed",
		"fed up", "sick of", "tired of", "hate", "can't stand", "bothered", "stressed",
		"overwhelmed", "exhausted", "burnt out", "anxious", "worried", "nervous",
	}
	helplessnessKeywords = []string{
		"don't know what to do", "need help", "struggling", "difficult time", "hard time",
		"can't cope", "falling apart", "breaking down", "giving up", "want to quit",
		"feel stuck", "trapped", "confused", "lost",
	}
)

// Emotion is the coarse emotional reading of a user message.
type Emotion struct {
	NeedsEmpathy bool
	Sadness      bool
	Frustration  bool
	Helplessness bool
}

// Classify matches the message against fixed keyword lists. Matching is a
// case-insensitive substring test with no negation or stemming, so "not sad"
// still counts as sadness.
func Classify(message string) Emotion {
	lower := strings.ToLower(message)
	e := Emotion{
		Sadness:      containsAny(lower, sadnessKeywords),
		Frustration:  containsAny(lower, frustrationKeywords),
		Helplessness: containsAny(lower, helplessnessKeywords),
	}
	e.NeedsEmpathy = e.Sadness || e.Frustration || e.Helplessness
	return e
}

// Categories lists the triggered categories in a fixed order.
func (e Emotion) Categories() []string {
	var out []string
	if e.Sadness {
		out = append(out, "sadness")
	}
	if e.Frustration {
		out = append(out, "frustration/stress")
	}
	if e.Helplessness {
		out = append(out, "helplessness")
	}
	return out
}

// Annotation is the bracketed prefix added to the user message sent to the
// model. It is empty when no category triggered.
func (e Emotion) Annotation() string {
	cats := e.Categories()
	if len(cats) == 0 {
		return ""
	}
	return "[User appears to be experiencing: " + strings.Join(cats, ", ") + "]"
}

// Annotate prefixes message with the annotation when empathy is needed.
func (e Emotion) Annotate(message string) string {
	if a := e.Annotation(); a != "" {
		return a + " " + message
	}
	return message
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
