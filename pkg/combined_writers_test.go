package pkg

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func TestCombinedWriter_Write(t *testing.T) {
	sb1 := &strings.Builder{}
	initMessage := "already-here"
	sb1.WriteString(initMessage)
	sb2 := &strings.Builder{}

	cw := NewCombinedWriter(sb1, sb2)
	require.NotNil(t, cw)
	assert.Len(t, cw.Writers, 2)

	msg1 := "a message"
	msg2 := "another message here"
	n, err := cw.Write([]byte(msg1))
	require.NoError(t, err)
	assert.Equal(t, len(msg1), n)
	n, err = cw.Write([]byte(msg2))
	require.NoError(t, err)
	assert.Equal(t, len(msg2), n)

	assert.Equal(t, initMessage+msg1+msg2, sb1.String())
	assert.Equal(t, msg1+msg2, sb2.String())
}

func TestCombinedWriter_Write_WithErrors(t *testing.T) {
	fw1 := &faultyWriter{err: errors.New("disk full")}
	fw2 := &faultyWriter{err: errors.New("closed")}
	sb := &strings.Builder{}

	cw := NewCombinedWriter(fw1, sb, fw2)

	msg := "a message"
	n, err := cw.Write([]byte(msg))
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 2)
	assert.Contains(t, err.Error(), "disk full")
	assert.Contains(t, err.Error(), "closed")

	// the string builder still gets the message
	assert.Equal(t, 0, n)
	assert.Equal(t, msg, sb.String())
}

func TestCombinedWriter_Write_ShortWrite(t *testing.T) {
	sb := &strings.Builder{}
	cw := NewCombinedWriter(sb, &shortWriter{max: 3})

	msg := "a message"
	n, err := cw.Write([]byte(msg))
	assert.ErrorIs(t, err, io.ErrShortWrite)
	assert.Equal(t, 3, n)
	assert.Equal(t, msg, sb.String())
}

type shortWriter struct {
	max int
}

func (sw *shortWriter) Write(p []byte) (int, error) {
	return min(len(p), sw.max), nil
}

type faultyWriter struct {
	err error
}

func (fw *faultyWriter) Write(_ []byte) (int, error) {
	return 0, fw.err
}
