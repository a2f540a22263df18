package encoder

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
)

// AudioEncoder writes PCM audio samples to a temporary WAV file for later
// muxing with the video track. The 44-byte header is written twice: once
// as a zero-length placeholder at Start, and again with the real byte
// count once Finish knows how much data was written. Both writes use the
// same createWAVHeader function, so the header is idempotent for a given
// (sampleRate, channels, dataSize) triple regardless of which call wrote it.
type AudioEncoder struct {
	file         *os.File
	outputPath   string
	sampleRate   int
	channels     int
	bytesWritten int64
}

// NewAudioEncoder allocates a temp WAV path keyed by the process PID. The
// path is the same for every encoder in one process, so two encoders
// running at once in the same process write to the same file.
func NewAudioEncoder(sampleRate, channels int) *AudioEncoder {
	path := filepath.Join(os.TempDir(), fmt.Sprintf("omnirec_audio_%d.wav", os.Getpid()))
	return &AudioEncoder{outputPath: path, sampleRate: sampleRate, channels: channels}
}

// Start creates the file and writes the placeholder header.
func (a *AudioEncoder) Start() error {
	f, err := os.Create(a.outputPath)
	if err != nil {
		return fmt.Errorf("create audio temp file: %w", err)
	}
	if _, err := f.Write(createWAVHeader(a.sampleRate, a.channels, 0)); err != nil {
		f.Close()
		return fmt.Errorf("write wav header: %w", err)
	}
	a.file = f
	return nil
}

// WriteSamples converts float32 samples in [-1, 1] to 16-bit PCM and
// appends them.
func (a *AudioEncoder) WriteSamples(samples []float32) error {
	if a.file == nil {
		return nil
	}
	buf := make([]byte, len(samples)*2)
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(int16(s*32767)))
	}
	if _, err := a.file.Write(buf); err != nil {
		return fmt.Errorf("write audio samples: %w", err)
	}
	a.bytesWritten += int64(len(buf))
	return nil
}

// Finish seeks back to the start and rewrites the header with the final
// byte count, then closes the file and returns its path.
func (a *AudioEncoder) Finish() (string, error) {
	if a.file == nil {
		return a.outputPath, nil
	}
	if _, err := a.file.Seek(0, 0); err != nil {
		a.file.Close()
		return "", fmt.Errorf("seek audio temp file: %w", err)
	}
	if _, err := a.file.Write(createWAVHeader(a.sampleRate, a.channels, uint32(a.bytesWritten))); err != nil {
		a.file.Close()
		return "", fmt.Errorf("rewrite wav header: %w", err)
	}
	if err := a.file.Close(); err != nil {
		return "", err
	}
	log.Info("audio encoder finished", "bytesWritten", a.bytesWritten, "path", a.outputPath)
	return a.outputPath, nil
}

// OutputPath returns the temp file path, for cleanup if the caller
// abandons a recording before Finish.
func (a *AudioEncoder) OutputPath() string { return a.outputPath }

// createWAVHeader builds a standard 44-byte RIFF/WAVE/fmt/data header for
// 16-bit PCM audio.
func createWAVHeader(sampleRate, channels int, dataSize uint32) []byte {
	byteRate := uint32(sampleRate * channels * 2)
	blockAlign := uint16(channels * 2)
	fileSize := 36 + dataSize

	h := make([]byte, 44)
	copy(h[0:4], "RIFF")
	binary.LittleEndian.PutUint32(h[4:8], fileSize)
	copy(h[8:12], "WAVE")
	copy(h[12:16], "fmt ")
	binary.LittleEndian.PutUint32(h[16:20], 16)
	binary.LittleEndian.PutUint16(h[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(h[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(h[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(h[28:32], byteRate)
	binary.LittleEndian.PutUint16(h[32:34], blockAlign)
	binary.LittleEndian.PutUint16(h[34:36], 16) // bits per sample
	copy(h[36:40], "data")
	binary.LittleEndian.PutUint32(h[40:44], dataSize)
	return h
}
