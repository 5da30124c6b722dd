package play

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
)

// Console forwards terminal input to the Runner through a pipe so that input
// can be ended from outside. Cancelling Run closes the pipe, which the Runner
// sees as end of input: it saves and quits.
type Console struct {
	src *bufio.Reader
	pr  *io.PipeReader
	pw  *io.PipeWriter
}

// NewConsole wraps src. Pass the same *bufio.Reader used for earlier prompts
// so buffered input is not lost.
func NewConsole(src io.Reader) *Console {
	br, ok := src.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(src)
	}
	pr, pw := io.Pipe()
	return &Console{src: br, pr: pr, pw: pw}
}

// Reader is the input side handed to Runner.Run.
func (c *Console) Reader() io.Reader { return c.pr }

// Close releases the reading side. Pending and later forwards are dropped.
func (c *Console) Close() error { return c.pr.Close() }

// Run copies lines until src ends, ctx is cancelled or the reader is closed.
//
// Postcondition: the pipe is closed when Run returns.
func (c *Console) Run(ctx context.Context) error {
	defer c.pw.Close()

	lines := make(chan string)
	errs := make(chan error, 1)
	go func() {
		for {
			line, err := c.src.ReadString('\n')
			if line != "" {
				select {
				case lines <- line:
				case <-ctx.Done():
					return
				}
			}
			if err != nil {
				errs <- err
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-errs:
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("reading terminal: %w", err)
		case line := <-lines:
			if _, err := io.WriteString(c.pw, line); err != nil {
				return nil
			}
		}
	}
}
