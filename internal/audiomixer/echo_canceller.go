package audiomixer

import "fmt"

// echoCanceller removes the system-audio "render reference" component
// leaking into the microphone ("capture") signal, using a normalized
// least-mean-squares (NLMS) adaptive filter. No Go AEC library exists in
// the available dependency pack (see DESIGN.md); NLMS is the standard
// textbook adaptive filter for this job and is cheap enough to run per
// 10ms frame without external dependencies.
type echoCanceller struct {
	taps    int
	weights []float32
	history []float32 // circular reference-signal history, length == taps
	histPos int
	mu      float32 // adaptation step size
	eps     float32 // regularization to avoid divide-by-zero
}

func newEchoCanceller() *echoCanceller {
	const taps = 256
	return &echoCanceller{
		taps:    taps,
		weights: make([]float32, taps),
		history: make([]float32, taps),
		mu:      0.3,
		eps:     1e-6,
	}
}

// Process filters one frame of interleaved stereo samples. mic is the
// capture signal, sys is the render reference. Both must be the same
// length (a multiple of Channels).
func (e *echoCanceller) Process(mic, sys []float32) ([]float32, error) {
	if len(mic) != len(sys) {
		return nil, fmt.Errorf("audiomixer: mic/sys frame length mismatch (%d vs %d)", len(mic), len(sys))
	}
	if len(mic)%Channels != 0 {
		return nil, fmt.Errorf("audiomixer: frame length %d not a multiple of %d channels", len(mic), Channels)
	}

	out := make([]float32, len(mic))
	// Channels are filtered one after another through the same weight
	// vector and reference history: every left-channel sample of the frame
	// first, then every right-channel sample. The channels do not get
	// separate filter state.
	for ch := 0; ch < Channels; ch++ {
		for i := ch; i < len(mic); i += Channels {
			ref := sys[i]
			e.pushHistory(ref)

			estimate := e.estimateEcho()
			errSample := mic[i] - estimate
			out[i] = errSample

			e.adapt(errSample)
		}
	}
	return out, nil
}

func (e *echoCanceller) pushHistory(sample float32) {
	e.history[e.histPos] = sample
	e.histPos = (e.histPos + 1) % e.taps
}

func (e *echoCanceller) estimateEcho() float32 {
	var sum float32
	pos := e.histPos
	for i := 0; i < e.taps; i++ {
		pos = (pos - 1 + e.taps) % e.taps
		sum += e.weights[i] * e.history[pos]
	}
	return sum
}

func (e *echoCanceller) adapt(errSample float32) {
	var energy float32
	pos := e.histPos
	for i := 0; i < e.taps; i++ {
		pos = (pos - 1 + e.taps) % e.taps
		energy += e.history[pos] * e.history[pos]
	}

	step := e.mu / (energy + e.eps)
	pos = e.histPos
	for i := 0; i < e.taps; i++ {
		pos = (pos - 1 + e.taps) % e.taps
		e.weights[i] += step * errSample * e.history[pos]
	}
}
