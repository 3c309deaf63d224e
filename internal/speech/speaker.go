package speech

import (
	"context"
	"log/slog"
	"time"
)

// Speaker voices feedback messages through an external text-to-speech
// command, fed on stdin. An empty argv disables speech entirely.
type Speaker struct {
	argv    []string
	voice   string
	enabled bool
	logger  *slog.Logger
}

// NewSpeaker builds a speaker. argv is the TTS command line; voice, when
// set, is appended as a trailing argument.
func NewSpeaker(argv []string, voice string, enabled bool, logger *slog.Logger) *Speaker {
	return &Speaker{argv: argv, voice: voice, enabled: enabled, logger: logger}
}

// SetEnabled toggles speech output at runtime.
func (s *Speaker) SetEnabled(enabled bool) { s.enabled = enabled }

// SetVoice replaces the trailing voice argument. Empty restores the
// command's own default voice.
func (s *Speaker) SetVoice(voice string) { s.voice = voice }

// Enabled reports whether speech output is active.
func (s *Speaker) Enabled() bool { return s.enabled && len(s.argv) > 0 }

// Speak voices text, returning whether anything was spoken. Failures are
// logged and swallowed; feedback speech must never break a session.
func (s *Speaker) Speak(ctx context.Context, text string) bool {
	if text == "" || !s.Enabled() {
		return false
	}

	argv := s.argv
	if s.voice != "" {
		argv = append(append([]string{}, argv...), s.voice)
	}

	speakCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := runCommandWithInput(speakCtx, argv, text); err != nil {
		if s.logger != nil {
			s.logger.Error("speak feedback failed", "error", err.Error())
		}
		return false
	}
	return true
}
