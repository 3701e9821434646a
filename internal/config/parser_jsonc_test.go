package config

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeJSONCRemovesCommentsAndTrailingCommas(t *testing.T) {
	input := `
{
  // line comment
  "items": [
    "one", /* block comment */
    "two",
  ],
  "nested": {
    "enabled": true,
  },
}
`

	normalized, err := normalizeJSONC(input)
	require.NoError(t, err)
	require.NotContains(t, normalized, "//")
	require.NotContains(t, normalized, "/*")
	require.NotContains(t, normalized, ",]")
	require.NotContains(t, normalized, ",}")
}

func TestNormalizeJSONCRetainsCommentLikeTextInsideStrings(t *testing.T) {
	input := `{"value":"contains // and /* comment-like */ text",}`
	normalized, err := normalizeJSONC(input)
	require.NoError(t, err)
	require.Contains(t, normalized, "// and /* comment-like */")
}

func TestNormalizeJSONCUnterminatedBlockCommentFails(t *testing.T) {
	_, err := normalizeJSONC("{ /* unterminated ")
	require.Error(t, err)
	require.Contains(t, err.Error(), "unterminated block comment")
}

func TestEnsureSingleJSONValueRejectsExtraPayload(t *testing.T) {
	decoder := json.NewDecoder(strings.NewReader(`{"one":1}{"two":2}`))
	var payload map[string]any
	require.NoError(t, decoder.Decode(&payload))

	err := ensureSingleJSONValue(decoder)
	require.Error(t, err)
	require.Contains(t, err.Error(), "multiple JSON values")
}

func TestOffsetToLineCol(t *testing.T) {
	content := "line1\nline2\nline3"
	line, col := offsetToLineCol(content, 1)
	require.Equal(t, 1, line)
	require.Equal(t, 1, col)

	line, col = offsetToLineCol(content, 8) // line2, col2
	require.Equal(t, 2, line)
	require.Equal(t, 2, col)

	line, col = offsetToLineCol(content, 999)
	require.Equal(t, 3, line)
	require.Equal(t, 5, col)
}

func TestStringListUnmarshalJSON(t *testing.T) {
	var list stringList
	require.NoError(t, list.UnmarshalJSON([]byte(`["a","b"]`)))
	require.Equal(t, []string{"a", "b"}, []string(list))

	require.NoError(t, list.UnmarshalJSON([]byte(`"a, b, , c"`)))
	require.Equal(t, []string{"a", "b", "c"}, []string(list))

	err := list.UnmarshalJSON([]byte(`123`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "expected string array")
}

func TestDecodeJSONCRejectsUnknownFields(t *testing.T) {
	_, err := decodeJSONC(`{"buffer":{"ttl":5}}`)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown field")
}

func TestDecodeJSONCRejectsMultipleTopLevelValues(t *testing.T) {
	_, err := decodeJSONC(`{"buffer":{"ttl_ms":1}}{"buffer":{"ttl_ms":2}}`)
	require.Error(t, err)
	require.Contains(t, err.Error(), "multiple JSON values")
}

func TestDecodeJSONCTypeErrorIncludesLocation(t *testing.T) {
	_, err := decodeJSONC(`{
  "engine": {"tick_ms": "fast"}
}`)
	require.Error(t, err)
	require.Contains(t, err.Error(), "line 2")
	require.Contains(t, err.Error(), "column")
}

func TestDecodeJSONCAcceptsCommentsAndTrailingCommas(t *testing.T) {
	payload, err := decodeJSONC(`{
  // hold words for five seconds
  "buffer": {"ttl_ms": 5000,},
  "commands": [
    {"phrase": "open door", "exec": "xdg-open /", /* inline */},
  ],
}`)
	require.NoError(t, err)
	require.NotNil(t, payload.Buffer)
	require.Equal(t, 5000, *payload.Buffer.TTLMS)
	require.Len(t, payload.Commands, 1)
}
