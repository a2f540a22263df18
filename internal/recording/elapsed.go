package recording

import (
	"context"
	"time"
)

// startElapsedBroadcast launches a ticker that publishes EventElapsedTime
// once a second for the lifetime of the current recording. stop_recording
// cancels it via the stored context.CancelFunc.
func (m *Manager) startElapsedBroadcast() {
	ctx, cancel := context.WithCancel(context.Background())

	m.taskMu.Lock()
	m.elapsedCancel = cancel
	m.taskMu.Unlock()

	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.events.Publish(Event{Kind: EventElapsedTime, Seconds: m.GetElapsedSeconds()})
			}
		}
	}()
}

// stopElapsedBroadcast cancels the elapsed-time ticker started by the
// current recording, if any.
func (m *Manager) stopElapsedBroadcast() {
	m.taskMu.Lock()
	cancel := m.elapsedCancel
	m.elapsedCancel = nil
	m.taskMu.Unlock()

	if cancel != nil {
		cancel()
	}
}
