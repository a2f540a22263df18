package transcription

import "fmt"

// Transcriber turns a mono 16kHz float32 segment into text. Backends
// wrap an external inference binary or, in tests, return canned
// output.
type Transcriber interface {
	// Transcribe returns the recognized text for samples, or an empty
	// string when no speech was detected.
	Transcribe(samples []float32) (string, error)

	// IsReady reports whether the backend can currently accept work
	// (e.g. its model file still exists).
	IsReady() bool

	// Close releases any resources (subprocess handles, file
	// descriptors) held by the backend.
	Close() error
}

// MockTranscriber is a Transcriber that never shells out, for use in
// tests that exercise the queue and worker without whisper/ffmpeg
// installed.
type MockTranscriber struct {
	// Text, when set, is returned verbatim for every segment. If empty,
	// Transcribe synthesizes a placeholder mentioning the sample count.
	Text string
}

func (m *MockTranscriber) Transcribe(samples []float32) (string, error) {
	if m.Text != "" {
		return m.Text, nil
	}
	return mockTranscriptFor(len(samples)), nil
}

func (m *MockTranscriber) IsReady() bool { return true }
func (m *MockTranscriber) Close() error  { return nil }

func mockTranscriptFor(numSamples int) string {
	return fmt.Sprintf("[mock transcript: %d samples]", numSamples)
}
