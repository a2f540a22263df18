package encoder

import "sync/atomic"

// StopFlag is a cooperative cancellation signal shared between the
// recording manager and a running encode task, mirroring the teacher's
// atomic.Bool flag texture rather than relying on context cancellation
// alone (the manager needs to set this from outside the task's own
// goroutine without tearing down its ffmpeg subprocess mid-write).
type StopFlag struct {
	flag atomic.Bool
}

// Set marks the flag as set.
func (f *StopFlag) Set() { f.flag.Store(true) }

// IsSet reports whether Set has been called.
func (f *StopFlag) IsSet() bool { return f.flag.Load() }
