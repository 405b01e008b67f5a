package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/ascmem/errors"
	"github.com/wippyai/ascmem/internal/guest"
)

func newTestSession(t *testing.T) *session {
	t.Helper()
	s, err := newSession(context.Background(), guest.Build())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}

func mustExec(t *testing.T, s *session, line string) string {
	t.Helper()
	out, err := s.exec(context.Background(), line)
	require.NoError(t, err, line)
	return out
}

func TestSession_TextLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newTestSession(t)

	assert.Equal(t, "#0 text @0x408 unpinned", mustExec(t, s, "new hello world"))
	assert.Equal(t, `"hello world"`, mustExec(t, s, "text #0"))
	assert.Equal(t, "text size=22", mustExec(t, s, "header #0"))

	assert.Equal(t, "#0 pinned", mustExec(t, s, "pin #0"))
	_, err := s.exec(ctx, "pin #0")
	assert.ErrorIs(t, err, errors.ErrPinState)
	assert.Equal(t, "[1]", mustExec(t, s, "call pinCount"))
	assert.Equal(t, "#0 text @0x408 pinned", mustExec(t, s, "handles"))

	assert.Equal(t, "[22]", mustExec(t, s, "call byteLength #0"))

	assert.Equal(t, "#0 released", mustExec(t, s, "release #0"))
	assert.Equal(t, "[0]", mustExec(t, s, "call pinCount"))
	assert.Equal(t, "no live handles", mustExec(t, s, "handles"))

	_, err = s.exec(ctx, "text #0")
	assert.ErrorContains(t, err, "no live handle #0")
}

func TestSession_Bytes(t *testing.T) {
	ctx := context.Background()
	s := newTestSession(t)

	out := mustExec(t, s, "newbytes cafe")
	assert.Contains(t, out, "#0 buffer @0x")
	assert.Equal(t, "cafe", mustExec(t, s, "bytes #0"))
	assert.Equal(t, "buffer size=2", mustExec(t, s, "header #0"))

	_, err := s.exec(ctx, "text #0")
	assert.ErrorIs(t, err, errors.ErrHeaderMismatch)

	_, err = s.exec(ctx, "newbytes zz")
	assert.ErrorContains(t, err, "decode hex")
}

func TestSession_Misc(t *testing.T) {
	ctx := context.Background()
	s := newTestSession(t)

	assert.Equal(t, `"hello"`, mustExec(t, s, "text 0x108"))
	assert.Equal(t, `"hi"`, mustExec(t, s, "calltext echo hi"))
	assert.Equal(t, "collected", mustExec(t, s, "collect"))
	assert.Contains(t, mustExec(t, s, "help"), "calltext")
	assert.Empty(t, mustExec(t, s, "   "))

	tests := []struct {
		line string
		want string
	}{
		{"frobnicate", "unknown command"},
		{"text", "usage: text <ptr>"},
		{"pin 12", "expected a #handle"},
		{"unpin #9", "no live handle #9"},
		{"text nope", "parse \"nope\""},
		{"call", "usage: call"},
		{"call missing", "not found"},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			_, err := s.exec(ctx, tt.line)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestSession_CloseReleasesHandles(t *testing.T) {
	ctx := context.Background()
	s, err := newSession(ctx, guest.Build())
	require.NoError(t, err)

	mustExec(t, s, "new a")
	mustExec(t, s, "pin #0")
	mustExec(t, s, "new b")

	require.NoError(t, s.Close(ctx))
	assert.Nil(t, s.handles)
	assert.NoError(t, s.Close(ctx))

	_, err = s.exec(ctx, "handles")
	assert.ErrorContains(t, err, "session closed")
}

func TestSession_WithoutRuntime(t *testing.T) {
	ctx := context.Background()
	s, err := newSession(ctx, guest.Build(guest.WithoutRuntime()))
	require.NoError(t, err)
	defer s.Close(ctx)

	_, err = s.exec(ctx, "new x")
	assert.ErrorIs(t, err, errors.ErrMissingExport)
	assert.Equal(t, `"hello"`, mustExec(t, s, "text 0x108"))
}
