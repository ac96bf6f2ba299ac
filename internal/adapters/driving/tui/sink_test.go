package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sightline/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sightline/internal/core/domain"
)

func TestSink_DeliversInOrderThenFinal(t *testing.T) {
	speech := &recordingGuidance{}
	sink := NewSink(speech)

	sink.Announce("Turn right")
	sink.Observe(domain.NavigationSnapshot{State: domain.NavNavigating})
	sink.Close(messages.NavigationDone{})

	var got []tea.Msg
	sink.pump(func(msg tea.Msg) { got = append(got, msg) })

	require.Len(t, got, 3)
	assert.Equal(t, messages.Announced{Text: "Turn right"}, got[0])
	assert.Equal(t, messages.SnapshotUpdated{Snapshot: domain.NavigationSnapshot{State: domain.NavNavigating}}, got[1])
	assert.Equal(t, messages.NavigationDone{}, got[2])
	assert.Equal(t, []string{"Turn right"}, speech.said())
}

func TestSink_DropsOldestWhenFull(t *testing.T) {
	sink := NewSink(nil)

	for i := 0; i < sinkBuffer+5; i++ {
		sink.Observe(domain.NavigationSnapshot{CurrentWaypointIndex: i})
	}
	sink.Close(nil)

	var got []tea.Msg
	sink.pump(func(msg tea.Msg) { got = append(got, msg) })

	require.Len(t, got, sinkBuffer)
	assert.Equal(t, 5, sink.Dropped())
	first := got[0].(messages.SnapshotUpdated)
	assert.Equal(t, 5, first.Snapshot.CurrentWaypointIndex)
}

func TestSink_IgnoresAfterClose(t *testing.T) {
	speech := &recordingGuidance{}
	sink := NewSink(speech)
	sink.Close(nil)
	sink.Close(nil)

	assert.NotPanics(t, func() {
		sink.Announce("late")
		sink.Observe(domain.NavigationSnapshot{})
	})

	var got []tea.Msg
	sink.pump(func(msg tea.Msg) { got = append(got, msg) })
	assert.Empty(t, got)
	assert.Equal(t, []string{"late"}, speech.said(), "speech is forwarded even after the dashboard closes")
}
