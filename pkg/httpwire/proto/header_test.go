package proto

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHeaderCaseInsensitiveLookup(t *testing.T) {
	h := NewHeader()
	h.Add("Content-Type", "text/plain")

	v, ok := h.Get("content-type")
	require.True(t, ok)
	require.Equal(t, "text/plain", v)

	v, ok = h.Get("CONTENT-TYPE")
	require.True(t, ok)
	require.Equal(t, "text/plain", v)
}

func TestHeaderPreservesOriginalCase(t *testing.T) {
	h := NewHeader()
	h.Add("X-Request-Id", "abc")

	var gotName string
	h.VisitAll(func(name, value string) {
		gotName = name
	})
	require.Equal(t, "X-Request-Id", gotName)
}

func TestHeaderFirstWriterWins(t *testing.T) {
	h := NewHeader()
	h.Add("X-Foo", "first")
	h.Add("x-foo", "second")

	v, ok := h.Get("X-FOO")
	require.True(t, ok)
	require.Equal(t, "first", v, "duplicate header add must keep the first value")
	require.Equal(t, 1, h.Len())
}

func TestHeaderSetOverwrites(t *testing.T) {
	h := NewHeader()
	h.Add("X-Foo", "first")
	h.Set("x-foo", "second")

	v, _ := h.Get("X-Foo")
	require.Equal(t, "second", v)
}
