package companion

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name    string
		message string
		want    Emotion
	}{
		{
			name:    "sadness",
			message: "I feel so hopeless and lost",
			want:    Emotion{NeedsEmpathy: true, Sadness: true, Helplessness: true},
		},
		{
			name:    "neutral",
			message: "The weather is nice today",
			want:    Emotion{},
		},
		{
			name:    "frustration is case insensitive",
			message: "I am SO OVERWHELMED at work",
			want:    Emotion{NeedsEmpathy: true, Frustration: true},
		},
		{
			name:    "helplessness phrase",
			message: "I can't cope anymore",
			want:    Emotion{NeedsEmpathy: true, Helplessness: true},
		},
		{
			name:    "no negation handling",
			message: "I'm not sad at all",
			want:    Emotion{NeedsEmpathy: true, Sadness: true},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.message))
		})
	}
}

func TestAnnotation(t *testing.T) {
	e := Emotion{NeedsEmpathy: true, Sadness: true, Frustration: true, Helplessness: true}
	assert.Equal(t, "[User appears to be experiencing: sadness, frustration/stress, helplessness]", e.Annotation())
	assert.Equal(t, "[User appears to be experiencing: sadness, frustration/stress, helplessness] hi", e.Annotate("hi"))

	assert.Empty(t, Emotion{}.Annotation())
	assert.Equal(t, "hi", Emotion{}.Annotate("hi"))
}
