package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateDefaults(t *testing.T) {
	warnings, err := Validate(Default())
	require.NoError(t, err)
	require.Empty(t, warnings)
}

func TestValidateRejectsInvalidCoreFields(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "negative ttl", mutate: func(c *Config) { c.Buffer.TTLMS = -1 }, wantErr: "buffer.ttl_ms"},
		{name: "negative max tokens", mutate: func(c *Config) { c.Buffer.MaxTokens = -1 }, wantErr: "buffer.max_tokens"},
		{name: "zero tick", mutate: func(c *Config) { c.Engine.TickMS = 0 }, wantErr: "engine.tick_ms"},
		{name: "unknown match", mutate: func(c *Config) { c.Engine.Match = "regex" }, wantErr: "engine.match"},
		{name: "phonetic threshold above one", mutate: func(c *Config) { c.Engine.PhoneticThreshold = 1.5 }, wantErr: "phonetic_threshold"},
		{name: "zero fuzzy threshold", mutate: func(c *Config) { c.Engine.FuzzyThreshold = 0 }, wantErr: "fuzzy_threshold"},
		{name: "unknown backend", mutate: func(c *Config) { c.Indicator.Backend = "tray" }, wantErr: "indicator.backend"},
		{name: "desktop without app name", mutate: func(c *Config) {
			c.Indicator.Backend = "desktop"
			c.Indicator.DesktopAppName = ""
		}, wantErr: "desktop_app_name"},
		{name: "negative error timeout", mutate: func(c *Config) { c.Indicator.ErrorTimeoutMS = -1 }, wantErr: "error_timeout"},
		{name: "negative fire timeout", mutate: func(c *Config) { c.Indicator.FireTimeoutMS = -1 }, wantErr: "fire_timeout"},
		{name: "empty clipboard argv", mutate: func(c *Config) { c.Clipboard.Argv = nil }, wantErr: "clipboard_cmd"},
		{name: "unknown log level", mutate: func(c *Config) { c.Log.Level = "trace" }, wantErr: "log.level"},
		{name: "zero log size", mutate: func(c *Config) { c.Log.MaxSizeMB = 0 }, wantErr: "log.max_size_mb"},
		{name: "unknown action", mutate: func(c *Config) {
			c.Commands = []CommandSpec{{Words: []string{"go"}, Action: ActionConfig{Kind: "launch"}}}
		}, wantErr: `unknown action "launch"`},
		{name: "punctuation-only phrase", mutate: func(c *Config) {
			c.Commands = []CommandSpec{{Words: []string{"...", "?!"}, Action: ActionConfig{Kind: ActionClipboard}}}
		}, wantErr: "no speakable words"},
		{name: "negative command timeout", mutate: func(c *Config) {
			c.Commands = []CommandSpec{{Words: []string{"go"}, TimeoutMS: -5, Action: ActionConfig{Kind: ActionClipboard}}}
		}, wantErr: "timeout_ms"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)

			_, err := Validate(cfg)
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestValidateZeroTTLWarns(t *testing.T) {
	cfg := Default()
	cfg.Buffer.TTLMS = 0

	warnings, err := Validate(cfg)
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	require.Contains(t, warnings[0].Message, "disables token expiry")
}
