package config

// Default returns the canonical runtime configuration used when no file
// is present.
func Default() Config {
	return Config{
		Store: StoreConfig{DSN: ""},
		Speech: SpeechConfig{
			Endpoint:       "127.0.0.1:50051",
			ProbeTimeoutMS: 3000,
			LanguageCode:   "en-US",
		},
		TTS: TTSConfig{
			Enable: false,
		},
		Suggest: SuggestConfig{
			Limit:    5,
			MinScore: 0.6,
		},
		History: HistoryConfig{MaxEntries: 20},
		Persist: PersistConfig{DebounceMS: 250},
	}
}
