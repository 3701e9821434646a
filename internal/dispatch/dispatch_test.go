package dispatch

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"

	"github.com/rbright/hark/internal/token"
	"github.com/stretchr/testify/require"
)

func testMatch() Match {
	return Match{
		CommandID: "01TEST",
		Name:      "open door",
		Pattern:   []string{"open", "door"},
		Tokens: []token.Token{
			{Seq: 1, Text: "open", Raw: "Open"},
			{Seq: 2, Text: "door", Raw: "door"},
		},
	}
}

func TestMatchWordsAndPhrase(t *testing.T) {
	t.Parallel()

	m := testMatch()
	require.Equal(t, []string{"open", "door"}, m.Words())
	require.Equal(t, "open door", m.Phrase())
	require.Empty(t, Match{}.Phrase())
}

func TestDispatchInvokesActionOnce(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	var got Match
	d := New(nil, nil)

	err := d.Dispatch(context.Background(), ActionFunc(func(_ context.Context, m Match) error {
		calls.Add(1)
		got = m
		return nil
	}), testMatch())
	require.NoError(t, err)
	require.Equal(t, int32(1), calls.Load())
	require.Equal(t, "open door", got.Phrase())
}

func TestDispatchWrapsActionError(t *testing.T) {
	t.Parallel()

	sentinel := errors.New("door jammed")
	d := New(nil, nil)

	err := d.Dispatch(context.Background(), ActionFunc(func(context.Context, Match) error {
		return sentinel
	}), testMatch())
	require.Error(t, err)
	require.ErrorIs(t, err, sentinel)

	var failure *ActionFailure
	require.ErrorAs(t, err, &failure)
	require.Equal(t, "01TEST", failure.CommandID)
	require.False(t, failure.Panicked)
	require.Contains(t, err.Error(), `action "open door" failed`)
}

func TestDispatchRecoversPanic(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	d := New(logger, nil)

	err := d.Dispatch(context.Background(), ActionFunc(func(context.Context, Match) error {
		panic("boom")
	}), testMatch())

	var failure *ActionFailure
	require.ErrorAs(t, err, &failure)
	require.True(t, failure.Panicked)
	require.Contains(t, err.Error(), "panicked: boom")
	require.Contains(t, logs.String(), "command action failed")
}

func TestDispatchNilAction(t *testing.T) {
	t.Parallel()

	err := New(nil, nil).Dispatch(context.Background(), nil, testMatch())
	var failure *ActionFailure
	require.ErrorAs(t, err, &failure)
	require.Contains(t, err.Error(), "no action bound")
}

func TestDispatchLogsSuccess(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, nil))
	d := New(logger, nil)

	require.NoError(t, d.Dispatch(context.Background(), ActionFunc(func(context.Context, Match) error {
		return nil
	}), testMatch()))
	require.Contains(t, logs.String(), `"msg":"command fired"`)
	require.Contains(t, logs.String(), `"phrase":"open door"`)
}
