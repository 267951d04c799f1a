package auditlog

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type closableBuffer struct {
	bytes.Buffer
	closed bool
}

func (b *closableBuffer) Close() error {
	b.closed = true
	return nil
}

func TestAppendOrderAndRendering(t *testing.T) {
	buf := &closableBuffer{}
	log := NewWithWriter(buf, "testrun1")

	log.Info("retrieving old blog post", Field{Key: "Title", Value: "Summer Reunion 1987"})
	log.Warning(
		"author not found in destination list",
		Field{Key: "Author", Value: "Unknown Contributor"},
	)
	log.Separator()

	out := buf.String()
	first := strings.Index(out, "retrieving old blog post")
	second := strings.Index(out, "author not found")
	third := strings.Index(out, "*********************")
	require.True(t, first >= 0 && second > first && third > second, out)

	require.Contains(t, out, "[testrun1]")
	require.Contains(t, out, "    Title: Summer Reunion 1987")
	require.Contains(t, out, "WARNING")
	require.Contains(t, out, "ATTENTION REQUIRED")
}

func TestAttentionCollection(t *testing.T) {
	log := NewWithWriter(&closableBuffer{}, "testrun2")

	log.Info("fine")
	log.Warning("author substituted", Field{Key: "Author", Value: "Unknown Contributor"})
	log.Warning("date substituted")

	attention := log.Attention()
	require.Len(t, attention, 2)
	require.Equal(t, "author substituted", attention[0].Message)
	require.Equal(t, "date substituted", attention[1].Message)

	// returned slice is a copy
	attention[0].Message = "changed"
	require.Equal(t, "author substituted", log.Attention()[0].Message)
}

func TestClose(t *testing.T) {
	buf := &closableBuffer{}
	log := NewWithWriter(buf, "testrun3")
	require.NoError(t, log.Close())
	require.True(t, buf.closed)
}
