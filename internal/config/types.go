// Package config resolves, parses, validates, and defaults voxcart
// configuration.
package config

// Config is the fully materialized runtime configuration.
type Config struct {
	Store   StoreConfig
	Speech  SpeechConfig
	TTS     TTSConfig
	Suggest SuggestConfig
	History HistoryConfig
	Persist PersistConfig
}

// StoreConfig controls where list state is persisted.
type StoreConfig struct {
	// DSN is the SQLite database location. ":memory:" keeps state
	// in-process for the lifetime of the run.
	DSN string
}

// SpeechConfig controls the speech recognition backend.
type SpeechConfig struct {
	Endpoint       string
	ProbeTimeoutMS int
	LanguageCode   string
}

// TTSConfig controls spoken feedback.
type TTSConfig struct {
	Enable bool
	Cmd    CommandConfig
	Voice  string
}

// SuggestConfig tunes fuzzy suggestion matching.
type SuggestConfig struct {
	Limit    int
	MinScore float64
}

// HistoryConfig bounds the recently-added history.
type HistoryConfig struct {
	MaxEntries int
}

// PersistConfig tunes write batching.
type PersistConfig struct {
	DebounceMS int
}

// CommandConfig stores a raw command string and its parsed argv form.
type CommandConfig struct {
	Raw  string
	Argv []string
}

// Warning is a non-fatal parse/validation message.
type Warning struct {
	Line    int
	Message string
}
