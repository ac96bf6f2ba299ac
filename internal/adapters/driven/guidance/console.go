// Package guidance delivers spoken-style instructions to a writer.
//
// Speech synthesis lives outside the process: the console output is piped
// into a TTS daemon or read by a screen reader. Announce never blocks the
// navigation loop; when the writer falls behind, the oldest pending line
// is dropped.
package guidance

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/custodia-labs/sightline/internal/core/ports/driven"
	"github.com/custodia-labs/sightline/internal/logger"
)

// Ensure Console implements the interface.
var _ driven.GuidanceSink = (*Console)(nil)

// DefaultBuffer is the number of pending announcements kept.
const DefaultBuffer = 8

// Console writes one announcement per line.
type Console struct {
	w          io.Writer
	timestamps bool
	now        func() time.Time

	mu      sync.Mutex
	queue   chan string
	closed  bool
	dropped int
	done    chan struct{}
}

// Option configures a Console.
type Option func(*Console)

// WithTimestamps prefixes each line with the time it was announced.
func WithTimestamps() Option {
	return func(c *Console) { c.timestamps = true }
}

// NewConsole starts a console sink writing to w.
func NewConsole(w io.Writer, opts ...Option) *Console {
	c := &Console{
		w:     w,
		now:   time.Now,
		queue: make(chan string, DefaultBuffer),
		done:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	go c.drain()
	return c
}

// Announce queues text for output. Empty text is ignored.
func (c *Console) Announce(text string) {
	if text == "" {
		return
	}
	if c.timestamps {
		text = c.now().Format("15:04:05") + "  " + text
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	for {
		select {
		case c.queue <- text:
			return
		default:
		}
		// Full: make room by dropping the oldest line.
		select {
		case <-c.queue:
			c.dropped++
		default:
		}
	}
}

func (c *Console) drain() {
	defer close(c.done)
	for text := range c.queue {
		if _, err := fmt.Fprintln(c.w, text); err != nil {
			logger.Warn("guidance: write failed: %v", err)
		}
	}
}

// Dropped returns how many announcements were discarded.
func (c *Console) Dropped() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dropped
}

// Close flushes pending announcements and stops the writer.
func (c *Console) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	close(c.queue)
	c.mu.Unlock()

	<-c.done
	return nil
}
