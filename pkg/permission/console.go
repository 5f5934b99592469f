package permission

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// Console asks for permission on a terminal. Answering "y", "yes" or the
// rationale's confirm label grants; any other answer denies.
type Console struct {
	mu     sync.Mutex
	in     *bufio.Reader
	out    io.Writer
	answer chan answer
}

type answer struct {
	line string
	err  error
}

// NewConsole creates a console gate reading answers from in and writing
// prompts to out.
func NewConsole(in io.Reader, out io.Writer) *Console {
	return &Console{in: bufio.NewReader(in), out: out}
}

// Request implements Gate.
func (c *Console) Request(ctx context.Context, r Rationale) (Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	label := r.ConfirmLabel
	if label == "" {
		label = "OK"
	}
	if _, err := fmt.Fprintf(c.out, "\n%s\n%s\n[%s/no]: ", r.Title, r.Message, label); err != nil {
		return Denied, fmt.Errorf("write prompt: %v: %w", err, ErrPlatform)
	}

	// A read abandoned by a cancelled request is picked up by the next one.
	if c.answer == nil {
		c.answer = make(chan answer, 1)
		go func(ch chan<- answer) {
			line, err := c.in.ReadString('\n')
			ch <- answer{line: line, err: err}
		}(c.answer)
	}

	select {
	case <-ctx.Done():
		return Denied, fmt.Errorf("awaiting answer: %v: %w", ctx.Err(), ErrPlatform)
	case a := <-c.answer:
		c.answer = nil
		if a.err != nil && a.line == "" {
			return Denied, fmt.Errorf("read answer: %v: %w", a.err, ErrPlatform)
		}
		if isConfirmation(a.line, label) {
			return Granted, nil
		}
		return Denied, nil
	}
}

func isConfirmation(line, label string) bool {
	s := strings.TrimSpace(line)
	return strings.EqualFold(s, "y") || strings.EqualFold(s, "yes") || strings.EqualFold(s, label)
}
