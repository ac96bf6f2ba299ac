package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/sightline/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sightline/internal/core/domain"
	"github.com/custodia-labs/sightline/internal/core/ports/driven"
)

// Ensure Sink implements the interfaces.
var (
	_ driven.GuidanceSink   = (*Sink)(nil)
	_ driven.StatusObserver = (*Sink)(nil)
)

// sinkBuffer is the number of messages queued for the program.
const sinkBuffer = 64

// Sink turns navigator output into Bubbletea messages.
// Announcements are also passed to next, if set, so speech keeps working
// while the dashboard is shown. Neither method blocks the navigator.
type Sink struct {
	next driven.GuidanceSink

	mu      sync.Mutex
	queue   chan tea.Msg
	closed  bool
	final   tea.Msg
	dropped int
}

// NewSink creates a sink that also forwards announcements to next.
// next may be nil.
func NewSink(next driven.GuidanceSink) *Sink {
	return &Sink{
		next:  next,
		queue: make(chan tea.Msg, sinkBuffer),
	}
}

// Announce queues an instruction for display and forwards it.
func (s *Sink) Announce(text string) {
	if s.next != nil {
		s.next.Announce(text)
	}
	s.enqueue(messages.Announced{Text: text})
}

// Observe queues a state update for display.
func (s *Sink) Observe(snapshot domain.NavigationSnapshot) {
	s.enqueue(messages.SnapshotUpdated{Snapshot: snapshot})
}

func (s *Sink) enqueue(msg tea.Msg) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	for {
		select {
		case s.queue <- msg:
			return
		default:
		}
		select {
		case <-s.queue:
			s.dropped++
		default:
		}
	}
}

// Dropped returns how many messages were discarded because the program
// fell behind.
func (s *Sink) Dropped() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

// Close stops accepting messages. final, if not nil, is delivered after
// everything already queued.
func (s *Sink) Close(final tea.Msg) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.final = final
	close(s.queue)
}

// pump delivers queued messages in order until Close.
func (s *Sink) pump(send func(tea.Msg)) {
	for msg := range s.queue {
		send(msg)
	}
	s.mu.Lock()
	final := s.final
	s.mu.Unlock()
	if final != nil {
		send(final)
	}
}
