package recording

import "time"

// runTranscriptionTask forwards audio samples forked off the encode loop
// into the transcription state until sink is closed by the encoder task
// (not by stopFlag: a PipeWire renegotiation can flip a stop flag
// spuriously mid-recording, so the forwarder's lifetime is tied to the
// channel's lifetime instead). done is closed once the worker has been
// stopped and the goroutine is about to exit, so StopRecording can wait
// on it.
func (m *Manager) runTranscriptionTask(sink <-chan []float32, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	samplesProcessed := uint64(0)

loop:
	for {
		select {
		case samples, ok := <-sink:
			if !ok {
				break loop
			}
			m.transcribeState.ProcessSamples(samples)
			samplesProcessed += uint64(len(samples))
		case <-ticker.C:
			log.Debug("transcription task progress",
				"samplesProcessed", samplesProcessed,
				"queueDepth", m.transcribeState.Queue().QueueDepth())
		}
	}

	m.transcribeState.Stop()
	m.taskMu.Lock()
	m.transcribeActive = false
	m.taskMu.Unlock()

	log.Info("transcription task stopped", "samplesProcessed", samplesProcessed)
}
