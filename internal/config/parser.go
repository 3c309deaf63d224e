package config

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Parse reads configuration content as JSONC layered over base.
func Parse(content string, base Config) (Config, []Warning, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		validatedWarnings, err := Validate(base)
		if err != nil {
			return Config{}, nil, err
		}
		return base, validatedWarnings, nil
	}

	if !strings.HasPrefix(trimmed, "{") {
		return Config{}, nil, fmt.Errorf("config must be a JSONC object")
	}
	return parseJSONC(content, base)
}

type jsoncConfig struct {
	Store   *jsoncStore   `json:"store"`
	Speech  *jsoncSpeech  `json:"speech"`
	TTS     *jsoncTTS     `json:"tts"`
	Suggest *jsoncSuggest `json:"suggest"`
	History *jsoncHistory `json:"history"`
	Persist *jsoncPersist `json:"persist"`
}

type jsoncStore struct {
	DSN *string `json:"dsn"`
}

type jsoncSpeech struct {
	Endpoint       *string `json:"endpoint"`
	ProbeTimeoutMS *int    `json:"probe_timeout_ms"`
	LanguageCode   *string `json:"language_code"`
}

type jsoncTTS struct {
	Enable *bool   `json:"enable"`
	Cmd    *string `json:"cmd"`
	Voice  *string `json:"voice"`
}

type jsoncSuggest struct {
	Limit    *int     `json:"limit"`
	MinScore *float64 `json:"min_score"`
}

type jsoncHistory struct {
	MaxEntries *int `json:"max_entries"`
}

type jsoncPersist struct {
	DebounceMS *int `json:"debounce_ms"`
}

func parseJSONC(content string, base Config) (Config, []Warning, error) {
	normalized, err := normalizeJSONC(content)
	if err != nil {
		return Config{}, nil, err
	}

	decoder := json.NewDecoder(strings.NewReader(normalized))
	decoder.DisallowUnknownFields()

	var payload jsoncConfig
	if err := decoder.Decode(&payload); err != nil {
		return Config{}, nil, wrapJSONDecodeError(normalized, err)
	}
	if err := ensureSingleJSONValue(decoder); err != nil {
		return Config{}, nil, wrapJSONDecodeError(normalized, err)
	}

	cfg := base
	if err := payload.applyTo(&cfg); err != nil {
		return Config{}, nil, err
	}

	warnings, err := Validate(cfg)
	if err != nil {
		return Config{}, nil, err
	}
	return cfg, warnings, nil
}

func (payload jsoncConfig) applyTo(cfg *Config) error {
	if payload.Store != nil && payload.Store.DSN != nil {
		cfg.Store.DSN = strings.TrimSpace(*payload.Store.DSN)
	}

	if payload.Speech != nil {
		if payload.Speech.Endpoint != nil {
			cfg.Speech.Endpoint = strings.TrimSpace(*payload.Speech.Endpoint)
		}
		if payload.Speech.ProbeTimeoutMS != nil {
			cfg.Speech.ProbeTimeoutMS = *payload.Speech.ProbeTimeoutMS
		}
		if payload.Speech.LanguageCode != nil {
			cfg.Speech.LanguageCode = strings.TrimSpace(*payload.Speech.LanguageCode)
		}
	}

	if payload.TTS != nil {
		if payload.TTS.Enable != nil {
			cfg.TTS.Enable = *payload.TTS.Enable
		}
		if payload.TTS.Cmd != nil {
			raw := *payload.TTS.Cmd
			argv, err := parseArgv(raw)
			if err != nil {
				return fmt.Errorf("invalid tts.cmd: %w", err)
			}
			cfg.TTS.Cmd = CommandConfig{Raw: raw, Argv: argv}
		}
		if payload.TTS.Voice != nil {
			cfg.TTS.Voice = strings.TrimSpace(*payload.TTS.Voice)
		}
	}

	if payload.Suggest != nil {
		if payload.Suggest.Limit != nil {
			cfg.Suggest.Limit = *payload.Suggest.Limit
		}
		if payload.Suggest.MinScore != nil {
			cfg.Suggest.MinScore = *payload.Suggest.MinScore
		}
	}

	if payload.History != nil && payload.History.MaxEntries != nil {
		cfg.History.MaxEntries = *payload.History.MaxEntries
	}

	if payload.Persist != nil && payload.Persist.DebounceMS != nil {
		cfg.Persist.DebounceMS = *payload.Persist.DebounceMS
	}

	return nil
}
