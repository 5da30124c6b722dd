package play

import (
	"bufio"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsole_ForwardsLinesThenEOF(t *testing.T) {
	c := NewConsole(strings.NewReader("look around\nquit\n"))
	done := make(chan error, 1)
	go func() { done <- c.Run(context.Background()) }()

	got, err := io.ReadAll(c.Reader())
	require.NoError(t, err)
	assert.Equal(t, "look around\nquit\n", string(got))
	require.NoError(t, <-done)
}

func TestConsole_KeepsBufferedInput(t *testing.T) {
	br := bufio.NewReader(strings.NewReader("Mira the bold\nrest\n"))
	first, err := br.ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, "Mira the bold\n", first)

	c := NewConsole(br)
	go func() { _ = c.Run(context.Background()) }()
	got, err := io.ReadAll(c.Reader())
	require.NoError(t, err)
	assert.Equal(t, "rest\n", string(got))
}

func TestConsole_CancelEndsInput(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	c := NewConsole(pr)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("console did not stop")
	}
	got, err := io.ReadAll(c.Reader())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestConsole_CloseUnblocksForwarding(t *testing.T) {
	c := NewConsole(strings.NewReader("one\ntwo\n"))
	require.NoError(t, c.Close())
	done := make(chan error, 1)
	go func() { done <- c.Run(context.Background()) }()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("console did not stop after close")
	}
}
