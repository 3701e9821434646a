package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseJSONCConfig(t *testing.T) {
	cfg, warnings, err := Parse(`{
  "buffer": {"ttl_ms": 5000, "max_tokens": 64},
  "engine": {"tick_ms": 50, "tick_on_push": false, "match": " Phonetic ", "phonetic_threshold": 0.8},
  "indicator": {"backend": " desktop ", "desktop_app_name": "  hark  ", "sound_fire_file": "/tmp/fire.wav"},
  "grpc": {"listen": "127.0.0.1:7070"},
  "metrics": {"listen": "127.0.0.1:9464"},
  "log": {"level": "DEBUG"},
  "clipboard_cmd": "wl-copy",
  "commands": [
    {"name": "door", "phrase": "open door", "exec": "notify-send 'door' {phrase}", "timeout_ms": 2000},
    {"words": ["kitchen", "lights"], "ordered": false, "hypr": "exec lights-on"},
    {"phrase": "copy greeting", "clipboard": "hello there"},
    {"phrase": "ping", "notify": "pong"},
  ],
}`, Default())
	require.NoError(t, err)
	require.Empty(t, warnings)

	require.Equal(t, BufferConfig{TTLMS: 5000, MaxTokens: 64}, cfg.Buffer)
	require.Equal(t, 50, cfg.Engine.TickMS)
	require.False(t, cfg.Engine.TickOnPush)
	require.Equal(t, MatchPhonetic, cfg.Engine.Match)
	require.Equal(t, 0.8, cfg.Engine.PhoneticThreshold)
	require.Equal(t, 0.90, cfg.Engine.FuzzyThreshold)
	require.Equal(t, "desktop", cfg.Indicator.Backend)
	require.Equal(t, "hark", cfg.Indicator.DesktopAppName)
	require.Equal(t, "/tmp/fire.wav", cfg.Indicator.SoundFireFile)
	require.Equal(t, "127.0.0.1:7070", cfg.GRPC.Listen)
	require.Equal(t, "127.0.0.1:9464", cfg.Metrics.Listen)
	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, []string{"wl-copy"}, cfg.Clipboard.Argv)

	require.Len(t, cfg.Commands, 4)
	door := cfg.Commands[0]
	require.Equal(t, "door", door.Name)
	require.Equal(t, []string{"open", "door"}, door.Words)
	require.True(t, door.Ordered)
	require.Equal(t, ActionExec, door.Action.Kind)
	require.Equal(t, []string{"notify-send", "door", "{phrase}"}, door.Action.Argv)
	require.Equal(t, 2000, door.TimeoutMS)

	lights := cfg.Commands[1]
	require.False(t, lights.Ordered)
	require.Equal(t, ActionHypr, lights.Action.Kind)
	require.Equal(t, []string{"exec", "lights-on"}, lights.Action.Argv)

	require.Equal(t, ActionConfig{Kind: ActionClipboard, Text: "hello there"}, cfg.Commands[2].Action)
	require.Equal(t, ActionConfig{Kind: ActionNotify, Text: "pong"}, cfg.Commands[3].Action)
}

func TestParseYAMLConfig(t *testing.T) {
	cfg, _, err := Parse(`
engine:
  match: phonetic
commands:
  - phrase: open door
    notify: door opened
`, Default())
	require.NoError(t, err)
	require.Equal(t, MatchPhonetic, cfg.Engine.Match)
	require.Equal(t, 8000, cfg.Buffer.TTLMS, "unset keys keep defaults")
	require.Len(t, cfg.Commands, 1)
	require.Equal(t, []string{"open", "door"}, cfg.Commands[0].Words)
}

func TestParseEmptyContentReturnsBase(t *testing.T) {
	cfg, warnings, err := Parse("  \n", Default())
	require.NoError(t, err)
	require.Empty(t, warnings)
	require.Equal(t, Default(), cfg)
}

func TestParseCommandErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{name: "no action", input: `{"commands":[{"phrase":"open door"}]}`, wantErr: "exactly one of"},
		{name: "two actions", input: `{"commands":[{"phrase":"open door","exec":"true","notify":"x"}]}`, wantErr: "exactly one of"},
		{name: "phrase and words", input: `{"commands":[{"phrase":"a","words":["b"],"notify":"x"}]}`, wantErr: "mutually exclusive"},
		{name: "empty phrase", input: `{"commands":[{"phrase":"   ","notify":"x"}]}`, wantErr: "commands[0]: phrase must not be empty"},
		{name: "bad exec", input: `{"commands":[{"phrase":"a","exec":"oops 'quote"}]}`, wantErr: "commands[0]: invalid exec"},
		{name: "empty hypr", input: `{"commands":[{"phrase":"a","hypr":""}]}`, wantErr: "hypr must not be empty"},
		{name: "bad clipboard cmd", input: `{"clipboard_cmd":"unterminated ' quote"}`, wantErr: "invalid clipboard_cmd"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := Parse(tc.input, Default())
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestParseDuplicateCommandNamesWarn(t *testing.T) {
	_, warnings, err := Parse(`{"commands":[
  {"name":"save","phrase":"save file","notify":"saved"},
  {"name":"save","phrase":"write file","notify":"saved"}
]}`, Default())
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	require.Contains(t, warnings[0].Message, `reuses name "save"`)
}
