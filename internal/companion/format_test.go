package companion

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatResources_SingleResource(t *testing.T) {
	in := "Here are some resources: • **Calm App**: relaxation Link: https://example.com/calm Take care!"
	out := FormatResources(in)

	assert.Equal(t, "Here are some helpful resources:\n\n• **Calm App**: relaxation\n  Link: https://example.com/calm\n\nTake care!", out)
	assert.Contains(t, out, "\n• **Calm App**: relaxation\n")
	assert.Contains(t, out, "Link: https://example.com/calm")
	assert.True(t, strings.HasSuffix(out, "Take care!"))
}

func TestFormatResources_LinkStyles(t *testing.T) {
	in := "I'm sorry you're going through this. Here are some options that may help:\n" +
		"• **Crisis Text Line**: Free 24/7 support. Link: https://www.crisistextline.org/\n" +
		"• **7 Cups**: Talk to trained listeners [7 Cups](https://www.7cups.com/)\n" +
		"• Headspace: Guided meditation https://www.headspace.com/\n" +
		"Let me know if you want more."

	want := "I'm sorry you're going through this. Here are some helpful resources:" +
		"\n\n• **Crisis Text Line**: Free 24/7 support\n  Link: https://www.crisistextline.org/" +
		"\n\n• **7 Cups**: Talk to trained listeners\n  Link: https://www.7cups.com/" +
		"\n\n• **Headspace**: Guided meditation\n  Link: https://www.headspace.com/" +
		"\n\nLet me know if you want more."
	assert.Equal(t, want, FormatResources(in))
}

func TestFormatResources_NoIntroAndNoLink(t *testing.T) {
	in := "• **Journaling**: write three lines each night\n• **Breathing**: box breathing, see https://example.com/box"
	out := FormatResources(in)
	assert.Equal(t, "• **Journaling**: write three lines each night\n\n• **Breathing**: box breathing, see\n  Link: https://example.com/box", out)
}

func TestFormatResources_DropsEmptyBullets(t *testing.T) {
	in := "Here are some links: • **Empty**: Link: https://example.com/x • **Real**: useful Link: https://example.com/y"
	out := FormatResources(in)
	assert.NotContains(t, out, "Empty")
	assert.Contains(t, out, "• **Real**: useful\n  Link: https://example.com/y")
}

func TestFormatResources_UnchangedWithoutResourceList(t *testing.T) {
	for _, in := range []string{
		"",
		"Hello! How are you feeling today?",
		"Try this: breathe in for four counts.",
		"See https://example.com for details.",
		"• a bullet without any link",
		"  leading and trailing space  ",
	} {
		require.Equal(t, in, FormatResources(in), "input %q", in)
	}
}

func TestFormatResources_StableOnItsOwnOutput(t *testing.T) {
	once := FormatResources("Here are some resources: • **Calm App**: relaxation Link: https://example.com/calm Take care!")
	assert.Equal(t, once, FormatResources(once))
}

func TestFormatResources_BoldTextWithoutBulletsIsUntouched(t *testing.T) {
	for _, in := range []string{
		"You might try **Headspace** for guided meditation: https://www.headspace.com/",
		"Here are some ideas: 1. **Headspace** https://www.headspace.com/ 2. **Calm** https://calm.com",
	} {
		assert.Equal(t, in, FormatResources(in))
	}
}
