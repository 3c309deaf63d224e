package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseEmptyContentReturnsDefaults(t *testing.T) {
	t.Parallel()

	cfg, warnings, err := Parse("", Default())
	require.NoError(t, err)
	require.Empty(t, warnings)
	require.Equal(t, Default(), cfg)
}

func TestParseValidConfig(t *testing.T) {
	t.Parallel()

	input := `{
		// where the list lives
		"store": { "dsn": "/tmp/cart.db" },
		"speech": {
			"endpoint": "127.0.0.1:50052",
			"probe_timeout_ms": 1500,
		},
		"tts": {
			"enable": true,
			"cmd": "espeak-ng --stdin",
			"voice": "en-us",
		},
		"suggest": { "limit": 8, "min_score": 0.7 },
		"history": { "max_entries": 40 },
		"persist": { "debounce_ms": 100 },
	}`

	cfg, warnings, err := Parse(input, Default())
	require.NoError(t, err)
	require.Empty(t, warnings)
	require.Equal(t, "/tmp/cart.db", cfg.Store.DSN)
	require.Equal(t, "127.0.0.1:50052", cfg.Speech.Endpoint)
	require.Equal(t, 1500, cfg.Speech.ProbeTimeoutMS)
	require.Equal(t, "en-US", cfg.Speech.LanguageCode)
	require.True(t, cfg.TTS.Enable)
	require.Equal(t, []string{"espeak-ng", "--stdin"}, cfg.TTS.Cmd.Argv)
	require.Equal(t, "en-us", cfg.TTS.Voice)
	require.Equal(t, 8, cfg.Suggest.Limit)
	require.Equal(t, 0.7, cfg.Suggest.MinScore)
	require.Equal(t, 40, cfg.History.MaxEntries)
	require.Equal(t, 100, cfg.Persist.DebounceMS)
}

func TestParseUnknownKeyFails(t *testing.T) {
	t.Parallel()

	_, _, err := Parse(`{"nonsense": true}`, Default())
	require.Error(t, err)
}

func TestParseNonObjectFails(t *testing.T) {
	t.Parallel()

	_, _, err := Parse(`speech.endpoint = here`, Default())
	require.Error(t, err)
	require.Contains(t, err.Error(), "JSONC object")
}

func TestParseSyntaxErrorReportsLine(t *testing.T) {
	t.Parallel()

	input := "{\n\"speech\": {\n\"endpoint\": oops\n}\n}"
	_, _, err := Parse(input, Default())
	require.Error(t, err)
	require.Contains(t, err.Error(), "line 3")
}

func TestParseTTSEnabledWithoutCommandWarns(t *testing.T) {
	t.Parallel()

	cfg, warnings, err := Parse(`{"tts": {"enable": true}}`, Default())
	require.NoError(t, err)
	require.True(t, cfg.TTS.Enable)
	require.Len(t, warnings, 1)
	require.Contains(t, warnings[0].Message, "tts.cmd is empty")
}

func TestParseInvalidTTSCommand(t *testing.T) {
	t.Parallel()

	_, _, err := Parse(`{"tts": {"cmd": "say \"oops"}}`, Default())
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid tts.cmd")
}

func TestValidateRejectsBadValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{name: "empty endpoint", mutate: func(c *Config) { c.Speech.Endpoint = " " }, want: "speech.endpoint"},
		{name: "negative probe timeout", mutate: func(c *Config) { c.Speech.ProbeTimeoutMS = -1 }, want: "probe_timeout_ms"},
		{name: "zero suggest limit", mutate: func(c *Config) { c.Suggest.Limit = 0 }, want: "suggest.limit"},
		{name: "min score above one", mutate: func(c *Config) { c.Suggest.MinScore = 1.5 }, want: "suggest.min_score"},
		{name: "zero history", mutate: func(c *Config) { c.History.MaxEntries = 0 }, want: "history.max_entries"},
		{name: "negative debounce", mutate: func(c *Config) { c.Persist.DebounceMS = -5 }, want: "persist.debounce_ms"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := Default()
			tc.mutate(&cfg)
			_, err := Validate(cfg)
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestStripJSONCCommentsPreservesStrings(t *testing.T) {
	t.Parallel()

	out, err := stripJSONCComments(`{"cmd": "say // not a comment"} // trailing`)
	require.NoError(t, err)
	require.Contains(t, out, "say // not a comment")
	require.False(t, strings.Contains(out, "trailing"))
}
