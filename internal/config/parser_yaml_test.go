package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeYAMLCommands(t *testing.T) {
	payload, err := decodeYAML(`
# voice commands
buffer:
  ttl_ms: 3000
commands:
  - name: lights
    words: [kitchen, lights, "on"]
    ordered: false
    notify: lights on
  - phrase: open door
    exec: xdg-open /
`)
	require.NoError(t, err)
	require.Equal(t, 3000, *payload.Buffer.TTLMS)
	require.Len(t, payload.Commands, 2)
	require.Equal(t, stringList{"kitchen", "lights", "on"}, payload.Commands[0].Words)
	require.False(t, *payload.Commands[0].Ordered)
	require.Equal(t, "open door", *payload.Commands[1].Phrase)
}

func TestDecodeYAMLWordsAcceptsCommaString(t *testing.T) {
	payload, err := decodeYAML(`
commands:
  - words: "save, file"
    hypr: exec notify-send saved
`)
	require.NoError(t, err)
	require.Equal(t, stringList{"save", "file"}, payload.Commands[0].Words)
}

func TestDecodeYAMLRejectsUnknownKey(t *testing.T) {
	_, err := decodeYAML("buffer:\n  ttl: 10\n")
	require.Error(t, err)
	require.Contains(t, err.Error(), "ttl")
	require.Contains(t, err.Error(), "line 2")
}

func TestDecodeYAMLCommentOnlyIsEmpty(t *testing.T) {
	payload, err := decodeYAML("# nothing here yet\n")
	require.NoError(t, err)
	require.Nil(t, payload.Buffer)
	require.Nil(t, payload.Commands)
}

func TestDecodeYAMLRejectsMultipleDocuments(t *testing.T) {
	_, err := decodeYAML("buffer:\n  ttl_ms: 1\n---\nbuffer:\n  ttl_ms: 2\n")
	require.Error(t, err)
	require.Contains(t, err.Error(), "multiple YAML documents")
}
