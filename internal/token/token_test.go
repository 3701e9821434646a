package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNormalizeSplitsAndFolds(t *testing.T) {
	t.Parallel()

	at := time.Unix(1700000000, 0)
	got := Normalize("  Open   the\tDOOR\n", at)
	require.Len(t, got, 3)
	require.Equal(t, []string{"open", "the", "door"}, Texts(got))
	require.Equal(t, "DOOR", got[2].Raw)
	for _, tok := range got {
		require.Equal(t, at, tok.At)
		require.Zero(t, tok.Seq)
	}
}

func TestNormalizeEmptyInput(t *testing.T) {
	t.Parallel()

	require.Empty(t, Normalize("", time.Now()))
	require.Empty(t, Normalize(" \n\t ", time.Now()))
	require.Empty(t, Normalize("... !!", time.Now()))
}

func TestNormalizeTrimsRecognizerPunctuation(t *testing.T) {
	t.Parallel()

	got := Normalize("Open, the door. don't \"stop\"", time.Time{})
	require.Equal(t, []string{"open", "the", "door", "don't", "stop"}, Texts(got))
}

func TestNormalizeUnicodeFolding(t *testing.T) {
	t.Parallel()

	got := Normalize("STRASSE Straße ÉCOLE école", time.Time{})
	require.Equal(t, []string{"strasse", "strasse", "école", "école"}, Texts(got))
}

func TestFoldSplitsPhrases(t *testing.T) {
	t.Parallel()

	require.Equal(t, []string{"open", "door"}, Fold("Open Door"))
	require.Empty(t, Fold("   "))
}
