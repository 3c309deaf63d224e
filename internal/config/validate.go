package config

import (
	"fmt"
	"strings"
)

// Validate enforces config invariants and returns non-fatal warnings.
func Validate(cfg Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	if strings.TrimSpace(cfg.Speech.Endpoint) == "" {
		return nil, fmt.Errorf("speech.endpoint must not be empty")
	}
	if cfg.Speech.ProbeTimeoutMS < 0 {
		return nil, fmt.Errorf("speech.probe_timeout_ms must be >= 0")
	}
	if strings.TrimSpace(cfg.Speech.LanguageCode) == "" {
		return nil, fmt.Errorf("speech.language_code must not be empty")
	}
	if cfg.Suggest.Limit <= 0 {
		return nil, fmt.Errorf("suggest.limit must be > 0")
	}
	if cfg.Suggest.MinScore < 0 || cfg.Suggest.MinScore > 1 {
		return nil, fmt.Errorf("suggest.min_score must be between 0 and 1")
	}
	if cfg.History.MaxEntries <= 0 {
		return nil, fmt.Errorf("history.max_entries must be > 0")
	}
	if cfg.Persist.DebounceMS < 0 {
		return nil, fmt.Errorf("persist.debounce_ms must be >= 0")
	}

	if cfg.TTS.Enable && len(cfg.TTS.Cmd.Argv) == 0 {
		warnings = append(warnings, Warning{
			Message: "tts.enable is set but tts.cmd is empty; feedback will not be spoken",
		})
	}
	if cfg.TTS.Cmd.Raw != "" && len(cfg.TTS.Cmd.Argv) == 0 {
		return nil, fmt.Errorf("tts.cmd is configured but empty")
	}

	return warnings, nil
}
