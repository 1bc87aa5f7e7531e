package streamevents

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssembler_AssemblesAssistantTextAndToolCalls(t *testing.T) {
	asm := NewAssembler()
	asm.Apply(Event{Type: TypeInit, SessionID: "s1", Model: "m1"})
	asm.Apply(Event{Type: TypeAssistant, Message: "first block"})
	asm.Apply(Event{Type: TypeAssistant, ToolName: "bash", ToolInput: []byte(`{"cmd":"ls"}`)})
	asm.Apply(Event{Type: TypeAssistant, Message: "second block"})

	assert.Equal(t, "first block\nsecond block", asm.Text())
	require.Len(t, asm.ToolCalls(), 1)
	assert.Equal(t, "bash", asm.ToolCalls()[0].Name)
	assert.Equal(t, "s1", asm.SessionID())
	assert.Equal(t, "m1", asm.Model())
}

func TestParseStream_DropsMalformedLines(t *testing.T) {
	input := strings.NewReader(
		`{"type":"assistant","message":"ok block"}` + "\n" +
			`not valid json at all` + "\n" +
			`{"type":"assistant","message":"still ok"}` + "\n",
	)
	asm := NewAssembler()
	err := ParseStream(input, asm)
	require.NoError(t, err)
	assert.Equal(t, "ok block\nstill ok", asm.Text())
}

func TestParseStream_FlushesPartialTrailingLine(t *testing.T) {
	input := strings.NewReader(`{"type":"assistant","message":"no trailing newline"}`)
	asm := NewAssembler()
	err := ParseStream(input, asm)
	require.NoError(t, err)
	assert.Equal(t, "no trailing newline", asm.Text())
}

func TestLineReader_ReadsAcrossChunkBoundaries(t *testing.T) {
	lr := NewLineReader(&slowReader{data: []byte("abc\ndef\n")})
	line1, err := lr.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "abc", string(line1))

	line2, err := lr.ReadLine()
	assert.True(t, err == nil || errors.Is(err, io.EOF))
	assert.Equal(t, "def", string(line2))
}

// slowReader returns one byte at a time to exercise the reader's
// chunk-buffering path.
type slowReader struct {
	data []byte
	pos  int
}

func (s *slowReader) Read(p []byte) (int, error) {
	if s.pos >= len(s.data) {
		return 0, io.EOF
	}
	p[0] = s.data[s.pos]
	s.pos++
	return 1, nil
}
