package speech_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/chirino/gina-service/internal/plugin/route/speech"
	registrycompletion "github.com/chirino/gina-service/internal/registry/completion"
	"github.com/chirino/gina-service/internal/testutil/testapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSpeaker struct {
	failVoices map[string]bool
	voices     []string
}

func (s *stubSpeaker) Synthesize(_ context.Context, text string, voice string) (*registrycompletion.Speech, error) {
	s.voices = append(s.voices, voice)
	if s.failVoices[voice] {
		return nil, errors.New("voice unavailable")
	}
	return &registrycompletion.Speech{Audio: []byte("mp3:" + voice + ":" + text), ContentType: "audio/mpeg"}, nil
}

func setup(t *testing.T, speaker *stubSpeaker) *testapi.Env {
	env := testapi.New(t)
	speech.MountRoutes(env.Router, speaker, env.OptionalAuth())
	return env
}

func TestNormalizeVoice(t *testing.T) {
	assert.Equal(t, "coral", speech.NormalizeVoice(" Coral "))
	assert.Equal(t, "alloy", speech.NormalizeVoice("robot"))
	assert.Equal(t, "alloy", speech.NormalizeVoice(""))
}

func TestSynthesize(t *testing.T) {
	speaker := &stubSpeaker{}
	env := setup(t, speaker)

	w := env.Do(t, http.MethodPost, "/tts", "", map[string]any{"text": " hi ", "voice": "SAGE"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "audio/mpeg", w.Header().Get("Content-Type"))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	assert.Equal(t, "sage", w.Header().Get("X-TTS-Voice-Used"))
	assert.Equal(t, "0", w.Header().Get("X-TTS-Fallback"))
	assert.Equal(t, "mp3:sage:hi", w.Body.String())
}

func TestSynthesizeRequiresText(t *testing.T) {
	speaker := &stubSpeaker{}
	env := setup(t, speaker)

	w := env.Do(t, http.MethodPost, "/tts", "", map[string]any{"text": "  "})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "text is required", testapi.Decode(t, w)["error"])
	assert.Empty(t, speaker.voices)
}

func TestSynthesizeFallsBackToDefaultVoice(t *testing.T) {
	speaker := &stubSpeaker{failVoices: map[string]bool{"ember": true}}
	env := setup(t, speaker)

	w := env.Do(t, http.MethodPost, "/tts", "", map[string]any{"text": "hello", "voice": "ember"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alloy", w.Header().Get("X-TTS-Voice-Used"))
	assert.Equal(t, "1", w.Header().Get("X-TTS-Fallback"))
	assert.Equal(t, []string{"ember", "alloy"}, speaker.voices)
}

func TestSynthesizeFailsWhenDefaultVoiceFails(t *testing.T) {
	speaker := &stubSpeaker{failVoices: map[string]bool{"alloy": true}}
	env := setup(t, speaker)

	w := env.Do(t, http.MethodPost, "/tts", "", map[string]any{"text": "hello"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Failed to synthesize speech", testapi.Decode(t, w)["error"])
	assert.Equal(t, []string{"alloy"}, speaker.voices)
}

func TestVoices(t *testing.T) {
	env := setup(t, &stubSpeaker{})

	w := env.Do(t, http.MethodGet, "/tts/voices", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := testapi.Decode(t, w)
	assert.Equal(t, "alloy", body["default"])
	assert.Len(t, body["voices"], 6)
}
