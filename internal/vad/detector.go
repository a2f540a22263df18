package vad

import "math"

// modeConfig holds the thresholds for one detection mode (voiced or
// whisper).
type modeConfig struct {
	thresholdDB      float32
	zcrMin, zcrMax   float32
	centMin, centMax float32
	onsetSamples     uint32
}

const (
	transientZCRThreshold      = 0.45
	transientCentroidThreshold = 6500.0
	centroidGateDB             = -55.0
	lookbackThresholdDB        = -55.0
	wordBreakThresholdRatio    = 0.5
	lookbackChunkSize          = 128
)

// Detector is a dual-mode (voiced/whisper) onset-confirmation state
// machine, ported sample-for-sample from the reference voice detector:
// same thresholds, same onset/hold/grace sample math, same lookback and
// word-break rules.
type Detector struct {
	sampleRate uint32

	voiced  modeConfig
	whisper modeConfig

	holdSamples       uint32
	onsetGraceSamples uint32

	isSpeaking       bool
	isPendingVoiced  bool
	isPendingWhisper bool
	voicedOnset      uint32
	whisperOnset     uint32
	voicedGrace      uint32
	whisperGrace     uint32
	silenceSamples   uint32
	speechSamples    uint64
	initialized      bool

	lastAmplitudeDB float32
	lastZCR         float32
	lastCentroidHz  float32

	lookback       []float32
	lookbackWrite  int
	lookbackFilled bool

	recentAmpSum   float32
	recentAmpCount uint32
	recentWindow   uint32

	inWordBreak        bool
	wordBreakSamples    uint32
	wordBreakStartAt    uint64
	minWordBreakSamples uint32
	maxWordBreakSamples uint32
}

// New creates a Detector tuned for sampleRate (typically 16000).
func New(sampleRate uint32) *Detector {
	ms := func(v uint64) uint32 { return uint32(uint64(sampleRate) * v / 1000) }

	return &Detector{
		sampleRate: sampleRate,
		voiced: modeConfig{
			thresholdDB: -42.0, zcrMin: 0.01, zcrMax: 0.30,
			centMin: 200.0, centMax: 5500.0, onsetSamples: ms(80),
		},
		whisper: modeConfig{
			thresholdDB: -52.0, zcrMin: 0.08, zcrMax: 0.45,
			centMin: 300.0, centMax: 7000.0, onsetSamples: ms(120),
		},
		holdSamples:         ms(500),
		onsetGraceSamples:   ms(30),
		lastAmplitudeDB:     float32(math.Inf(-1)),
		lookback:            make([]float32, ms(200)),
		recentWindow:        ms(100),
		minWordBreakSamples: ms(150),
		maxWordBreakSamples: ms(500),
	}
}

// Process analyzes one chunk of samples and returns any events it
// triggers, in the order: state-change first, then word-break.
func (d *Detector) Process(samples []float32) []Event {
	var events []Event

	d.pushLookback(samples)

	rms := calculateRMS(samples)
	db := amplitudeToDB(rms)
	zcr := calculateZCR(samples)
	centroid := d.estimateSpectralCentroid(samples, db)

	d.lastAmplitudeDB = db
	d.lastZCR = zcr
	d.lastCentroidHz = centroid

	if !d.initialized {
		d.initialized = true
		return events
	}

	if d.isTransient(zcr, centroid) {
		d.resetOnsetState()
		if !d.isSpeaking {
			return events
		}
	}

	isVoiced := d.matchesMode(d.voiced, db, zcr, centroid)
	isWhisper := d.matchesMode(d.whisper, db, zcr, centroid)
	isSpeechCandidate := isVoiced || isWhisper
	samplesLen := uint32(len(samples))

	switch {
	case isSpeechCandidate:
		d.silenceSamples = 0

		if d.isSpeaking {
			d.speechSamples += uint64(len(samples))
			d.updateSpeechAmplitudeAverage(rms, samplesLen)

			if d.inWordBreak {
				if d.wordBreakSamples >= d.minWordBreakSamples && d.wordBreakSamples <= d.maxWordBreakSamples {
					events = append(events, Event{
						Kind:          EventWordBreak,
						OffsetMs:      uint32(d.samplesToMs(d.wordBreakStartAt)),
						GapDurationMs: uint32(d.samplesToMs(uint64(d.wordBreakSamples))),
					})
				}
				d.inWordBreak = false
				d.wordBreakSamples = 0
			}
		} else {
			if isVoiced {
				d.voicedGrace = 0
				if !d.isPendingVoiced {
					d.isPendingVoiced = true
					d.voicedOnset = samplesLen
				} else {
					d.voicedOnset += samplesLen
				}
				if d.voicedOnset >= d.voiced.onsetSamples {
					events = append(events, d.confirmSpeechStart())
					return events
				}
			}
			if isWhisper {
				d.whisperGrace = 0
				if !d.isPendingWhisper {
					d.isPendingWhisper = true
					d.whisperOnset = samplesLen
				} else {
					d.whisperOnset += samplesLen
				}
				if !d.isSpeaking && d.whisperOnset >= d.whisper.onsetSamples {
					events = append(events, d.confirmSpeechStart())
				}
			}
		}

	default:
		if d.isPendingVoiced {
			d.voicedGrace += samplesLen
			if d.voicedGrace >= d.onsetGraceSamples {
				d.isPendingVoiced = false
				d.voicedOnset = 0
				d.voicedGrace = 0
			}
		}
		if d.isPendingWhisper {
			d.whisperGrace += samplesLen
			if d.whisperGrace >= d.onsetGraceSamples {
				d.isPendingWhisper = false
				d.whisperOnset = 0
				d.whisperGrace = 0
			}
		}

		if d.isSpeaking {
			d.silenceSamples += samplesLen

			recentAvg := d.recentSpeechAmplitude()
			threshold := recentAvg * wordBreakThresholdRatio
			if recentAvg > 0 && rms < threshold {
				if !d.inWordBreak {
					d.inWordBreak = true
					d.wordBreakSamples = samplesLen
					d.wordBreakStartAt = d.speechSamples
				} else {
					d.wordBreakSamples += samplesLen
				}
			}

			if d.silenceSamples >= d.holdSamples {
				durationMs := d.samplesToMs(d.speechSamples)
				d.isSpeaking = false
				d.speechSamples = 0
				d.resetWordBreakState()
				events = append(events, Event{Kind: EventEnded, DurationMs: durationMs})
			}
		}
	}

	return events
}

// Reset returns the detector to its initial, unconfirmed state.
func (d *Detector) Reset() {
	d.isSpeaking = false
	d.isPendingVoiced = false
	d.isPendingWhisper = false
	d.voicedOnset = 0
	d.whisperOnset = 0
	d.silenceSamples = 0
	d.speechSamples = 0
	d.voicedGrace = 0
	d.whisperGrace = 0
	d.initialized = false
	d.lookbackWrite = 0
	d.lookbackFilled = false
	d.resetWordBreakState()
}

func (d *Detector) IsSpeaking() bool      { return d.isSpeaking }
func (d *Detector) AmplitudeDB() float32  { return d.lastAmplitudeDB }
func (d *Detector) ZCR() float32          { return d.lastZCR }
func (d *Detector) CentroidHz() float32   { return d.lastCentroidHz }

func (d *Detector) confirmSpeechStart() Event {
	d.isSpeaking = true
	d.speechSamples = uint64(max32(d.voicedOnset, d.whisperOnset))
	d.resetOnsetState()

	lookbackSamples, _ := d.findLookbackStart()
	return Event{Kind: EventStarted, LookbackSamples: len(lookbackSamples)}
}

func (d *Detector) matchesMode(m modeConfig, db, zcr, centroid float32) bool {
	return db >= m.thresholdDB &&
		zcr >= m.zcrMin && zcr <= m.zcrMax &&
		centroid >= m.centMin && centroid <= m.centMax
}

func (d *Detector) isTransient(zcr, centroid float32) bool {
	return zcr > transientZCRThreshold && centroid > transientCentroidThreshold
}

func (d *Detector) samplesToMs(samples uint64) uint64 {
	return samples * 1000 / uint64(d.sampleRate)
}

func (d *Detector) resetOnsetState() {
	d.isPendingVoiced = false
	d.isPendingWhisper = false
	d.voicedOnset = 0
	d.whisperOnset = 0
	d.voicedGrace = 0
	d.whisperGrace = 0
}

func (d *Detector) resetWordBreakState() {
	d.inWordBreak = false
	d.wordBreakSamples = 0
	d.wordBreakStartAt = 0
	d.recentAmpSum = 0
	d.recentAmpCount = 0
}

func (d *Detector) pushLookback(samples []float32) {
	cap := len(d.lookback)
	if cap == 0 {
		return
	}
	for _, s := range samples {
		d.lookback[d.lookbackWrite] = s
		d.lookbackWrite = (d.lookbackWrite + 1) % cap
		if d.lookbackWrite == 0 {
			d.lookbackFilled = true
		}
	}
}

func (d *Detector) lookbackContents() []float32 {
	if !d.lookbackFilled {
		out := make([]float32, d.lookbackWrite)
		copy(out, d.lookback[:d.lookbackWrite])
		return out
	}
	out := make([]float32, 0, len(d.lookback))
	out = append(out, d.lookback[d.lookbackWrite:]...)
	out = append(out, d.lookback[:d.lookbackWrite]...)
	return out
}

// findLookbackStart scans backward through the lookback buffer in 128
// sample chunks at a lower threshold to find where speech actually began.
func (d *Detector) findLookbackStart() ([]float32, uint32) {
	buffer := d.lookbackContents()
	if len(buffer) == 0 {
		return nil, 0
	}

	marginSamples := int(d.sampleRate) * 20 / 1000
	thresholdLinear := float32(math.Pow(10, lookbackThresholdDB/20))

	firstAboveIdx := len(buffer)
	pos := len(buffer)
	for pos > 0 {
		chunkStart := pos - lookbackChunkSize
		if chunkStart < 0 {
			chunkStart = 0
		}
		chunk := buffer[chunkStart:pos]

		var peak float32
		for _, s := range chunk {
			a := absFloat32(s)
			if a > peak {
				peak = a
			}
		}

		if peak >= thresholdLinear {
			firstAboveIdx = chunkStart
		} else if firstAboveIdx < len(buffer) {
			break
		}
		pos = chunkStart
	}

	startWithMargin := firstAboveIdx - marginSamples
	if startWithMargin < 0 {
		startWithMargin = 0
	}
	lookbackSamples := buffer[startWithMargin:]
	samplesBefore := len(buffer) - startWithMargin
	offsetMs := uint32(uint64(samplesBefore) * 1000 / uint64(d.sampleRate))

	return lookbackSamples, offsetMs
}

func (d *Detector) updateSpeechAmplitudeAverage(rms float32, sampleCount uint32) {
	d.recentAmpSum += rms * float32(sampleCount)
	d.recentAmpCount += sampleCount

	if d.recentAmpCount > d.recentWindow {
		scale := float32(d.recentWindow) / float32(d.recentAmpCount)
		d.recentAmpSum *= scale
		d.recentAmpCount = d.recentWindow
	}
}

func (d *Detector) recentSpeechAmplitude() float32 {
	if d.recentAmpCount == 0 {
		return 0
	}
	return d.recentAmpSum / float32(d.recentAmpCount)
}

func (d *Detector) estimateSpectralCentroid(samples []float32, amplitudeDB float32) float32 {
	if len(samples) < 2 || amplitudeDB < centroidGateDB {
		return 0
	}

	var diffSum float32
	for i := 1; i < len(samples); i++ {
		diffSum += absFloat32(samples[i] - samples[i-1])
	}
	meanDiff := diffSum / float32(len(samples)-1)

	var sumAbs float32
	for _, s := range samples {
		sumAbs += absFloat32(s)
	}
	meanAbs := sumAbs / float32(len(samples))

	if meanAbs < 1e-10 {
		return 0
	}
	return float32(d.sampleRate) * meanDiff / (2.0 * meanAbs)
}

func calculateRMS(samples []float32) float32 {
	if len(samples) == 0 {
		return 0
	}
	var sumSquares float32
	for _, s := range samples {
		sumSquares += s * s
	}
	return float32(math.Sqrt(float64(sumSquares / float32(len(samples)))))
}

func amplitudeToDB(amplitude float32) float32 {
	if amplitude <= 0 {
		return float32(math.Inf(-1))
	}
	return 20.0 * float32(math.Log10(float64(amplitude)))
}

func calculateZCR(samples []float32) float32 {
	if len(samples) < 2 {
		return 0
	}
	var crossings uint32
	for i := 1; i < len(samples); i++ {
		if (samples[i] >= 0) != (samples[i-1] >= 0) {
			crossings++
		}
	}
	return float32(crossings) / float32(len(samples)-1)
}

func absFloat32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

func max32(a, b uint32) uint32 {
	if a > b {
		return a
	}
	return b
}
