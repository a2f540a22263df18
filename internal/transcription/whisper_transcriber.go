package transcription

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"os/exec"
	"strconv"
)

// WhisperTranscriber shells out to a whisper.cpp-family CLI binary and
// ffmpeg to turn mono 16kHz float32 samples into text. Both binaries
// are resolved and smoke-tested once at construction time so failures
// surface immediately instead of mid-recording.
type WhisperTranscriber struct {
	modelPath   string
	whisperPath string
	ffmpegPath  string
	language    string
	threads     string
	beamSize    string
}

// WhisperOptions configures NewWhisperTranscriber. Zero values pick
// the package defaults (auto language, four threads, beam size 5).
type WhisperOptions struct {
	Language string
	Threads  int
	BeamSize int
}

// NewWhisperTranscriber validates the model file and the whisper/ffmpeg
// binaries on PATH, returning an error if any are missing or
// non-functional.
func NewWhisperTranscriber(modelPath string, opts WhisperOptions) (*WhisperTranscriber, error) {
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("whisper model file not accessible: %w", err)
	}

	whisperPath, err := exec.LookPath("whisper-cli")
	if err != nil {
		whisperPath, err = exec.LookPath("whisper")
	}
	if err != nil {
		return nil, fmt.Errorf("whisper executable not found in PATH: %w", err)
	}
	if err := exec.Command(whisperPath, "--help").Run(); err != nil {
		return nil, fmt.Errorf("whisper executable found but not working: %w", err)
	}

	ffmpegPath, err := exec.LookPath("ffmpeg")
	if err != nil {
		return nil, fmt.Errorf("ffmpeg executable not found in PATH: %w", err)
	}
	if err := exec.Command(ffmpegPath, "-version").Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg executable found but not working: %w", err)
	}

	language := opts.Language
	if language == "" {
		language = "auto"
	}
	threads := strconv.Itoa(opts.Threads)
	if opts.Threads <= 0 {
		threads = strconv.Itoa(4)
	}
	beamSize := strconv.Itoa(opts.BeamSize)
	if opts.BeamSize <= 0 {
		beamSize = "5"
	}

	queueLog.Info("whisper transcriber initialized",
		"whisper", whisperPath, "ffmpeg", ffmpegPath, "model", modelPath,
		"language", language, "threads", threads, "beamSize", beamSize)

	return &WhisperTranscriber{
		modelPath:   modelPath,
		whisperPath: whisperPath,
		ffmpegPath:  ffmpegPath,
		language:    language,
		threads:     threads,
		beamSize:    beamSize,
	}, nil
}

// Transcribe pipes raw PCM through ffmpeg to produce a canonical WAV
// container, then runs the result through the whisper binary in
// plain-text mode.
func (w *WhisperTranscriber) Transcribe(samples []float32) (string, error) {
	pcm := encodeS16LE(samples)

	// #nosec G204 - ffmpegPath resolved via exec.LookPath at construction, args are fixed flags
	ffmpeg := exec.Command(w.ffmpegPath,
		"-f", "s16le",
		"-ar", "16000",
		"-ac", "1",
		"-i", "-",
		"-f", "wav",
		"-",
	)
	ffmpeg.Stdin = bytes.NewReader(pcm)

	var wavBuf, ffmpegErr bytes.Buffer
	ffmpeg.Stdout = &wavBuf
	ffmpeg.Stderr = &ffmpegErr
	if err := ffmpeg.Run(); err != nil {
		return "", fmt.Errorf("pcm to wav conversion failed: %w (%s)", err, ffmpegErr.String())
	}

	args := []string{
		"-m", w.modelPath,
		"-l", w.language,
		"-t", w.threads,
		"-bs", w.beamSize,
		"-et", "2.4",   // entropy_thold
		"-lpt", "-1.0", // logprob_thold
		"-nth", "0.6", // no_speech_thold
		"--no-timestamps",
		"-otxt",
		"-",
	}
	// #nosec G204 - whisperPath resolved via exec.LookPath at construction, args are fixed flags
	cmd := exec.Command(w.whisperPath, args...)
	cmd.Stdin = &wavBuf

	var out, errOut bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errOut
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("whisper transcription failed: %w (%s)", err, errOut.String())
	}

	text := bytes.TrimSpace(out.Bytes())
	return string(text), nil
}

func (w *WhisperTranscriber) IsReady() bool {
	_, err := os.Stat(w.modelPath)
	return err == nil
}

func (w *WhisperTranscriber) Close() error { return nil }

// encodeS16LE converts float32 samples in [-1, 1] to raw signed
// 16-bit little-endian PCM, the format ffmpeg's "-f s16le" input
// expects.
func encodeS16LE(samples []float32) []byte {
	buf := new(bytes.Buffer)
	buf.Grow(len(samples) * 2)
	for _, s := range samples {
		v := s
		if v > 1 {
			v = 1
		} else if v < -1 {
			v = -1
		}
		binary.Write(buf, binary.LittleEndian, int16(v*32767))
	}
	return buf.Bytes()
}
