package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrInputCancelled is returned when input is canceled by context.
var ErrInputCancelled = errors.New("input canceled")

// LineReader reads answers to interactive prompts without blocking past
// context cancellation.
type LineReader struct {
	reader *bufio.Reader
	out    io.Writer
}

// NewLineReader creates a reader over in that writes prompts to out.
func NewLineReader(in io.Reader, out io.Writer) *LineReader {
	return &LineReader{reader: bufio.NewReader(in), out: out}
}

// Ask prints prompt and returns the trimmed line typed in reply.
func (r *LineReader) Ask(ctx context.Context, prompt string) (string, error) {
	if _, err := fmt.Fprint(r.out, FormatPrompt(prompt)); err != nil {
		return "", err
	}

	type result struct {
		err   error
		value string
	}
	resultCh := make(chan result, 1)

	go func() {
		value, err := r.reader.ReadString('\n')
		if errors.Is(err, io.EOF) && value != "" {
			err = nil
		}
		resultCh <- result{value: value, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ErrInputCancelled
	case res := <-resultCh:
		return strings.TrimSpace(res.value), res.err
	}
}
