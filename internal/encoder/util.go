package encoder

import "os"

// removeIfExists deletes path, ignoring a not-exists error. Used for
// cleaning up the temp audio WAV when a recording turns out to have no
// audio samples after all.
func removeIfExists(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Warn("failed to remove temp file", "path", path, "error", err)
	}
}
