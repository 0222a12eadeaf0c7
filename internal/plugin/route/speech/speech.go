// Package speech serves text-to-speech.
package speech

import (
	"net/http"
	"slices"
	"strings"

	"github.com/charmbracelet/log"
	registrycompletion "github.com/chirino/gina-service/internal/registry/completion"
	"github.com/gin-gonic/gin"
)

// DefaultVoice is used for unknown voices and as the retry voice.
const DefaultVoice = "alloy"

// Voices lists the voices the client may pick from.
var Voices = []string{"verse", "ember", "alloy", "aria", "coral", "sage"}

// MountRoutes mounts POST /tts and GET /tts/voices. TTS needs no account, so
// auth should be optional auth.
func MountRoutes(r *gin.Engine, speaker registrycompletion.Speaker, auth gin.HandlerFunc) {
	r.POST("/tts", auth, func(c *gin.Context) { synthesize(c, speaker) })
	r.GET("/tts/voices", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"voices": Voices, "default": DefaultVoice})
	})
}

// NormalizeVoice lower-cases voice and replaces anything unsupported with
// DefaultVoice.
func NormalizeVoice(voice string) string {
	v := strings.ToLower(strings.TrimSpace(voice))
	if slices.Contains(Voices, v) {
		return v
	}
	return DefaultVoice
}

func synthesize(c *gin.Context, speaker registrycompletion.Speaker) {
	var req struct {
		Text  string `json:"text"`
		Voice string `json:"voice"`
	}
	_ = c.ShouldBindJSON(&req)
	text := strings.TrimSpace(req.Text)
	if text == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text is required"})
		return
	}

	ctx := c.Request.Context()
	voice := NormalizeVoice(req.Voice)
	speech, err := speaker.Synthesize(ctx, text, voice)
	if err == nil {
		writeAudio(c, speech, voice, false)
		return
	}
	log.Warn("Primary TTS failed", "voice", voice, "err", err)

	if voice != DefaultVoice {
		speech, err = speaker.Synthesize(ctx, text, DefaultVoice)
		if err == nil {
			writeAudio(c, speech, DefaultVoice, true)
			return
		}
		log.Error("Fallback TTS failed", "voice", DefaultVoice, "err", err)
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to synthesize speech"})
}

func writeAudio(c *gin.Context, speech *registrycompletion.Speech, voice string, fallback bool) {
	contentType := speech.ContentType
	if contentType == "" {
		contentType = "audio/mpeg"
	}
	flag := "0"
	if fallback {
		flag = "1"
	}
	c.Header("Cache-Control", "no-store")
	c.Header("X-TTS-Voice-Used", voice)
	c.Header("X-TTS-Fallback", flag)
	c.Data(http.StatusOK, contentType, speech.Audio)
}
