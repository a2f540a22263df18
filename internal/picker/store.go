// Package picker holds the small pieces of state exchanged with the
// Linux xdg-desktop-portal picker helper process over IPC: the source
// selection it resolved, and the short-lived approval token it presents
// back to prove the user actually approved that selection. Grounded on
// handlers.rs's QuerySelection/ValidateToken/StoreToken handling of the
// approval_token module (original_source); that module's own source was
// not present in the retrieval pack, so the store here is a from-scratch
// implementation of the same contract rather than a ported one.
package picker

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/omnirec/omnirecd/internal/capture"
	"github.com/omnirec/omnirecd/internal/logging"
)

var log = logging.L("picker")

// Store holds one pending selection and one approval token. It is safe
// for concurrent use from multiple IPC connections.
type Store struct {
	mu        sync.Mutex
	selection *capture.Selection
	token     string

	// diskPath, if set, mirrors the token to disk so a picker process
	// started after this one's in-process token was set can still be
	// validated. Empty disables disk persistence entirely.
	diskPath string
}

// New constructs a Store. diskPath may be empty to keep the token
// in-process only.
func New(diskPath string) *Store {
	return &Store{diskPath: diskPath}
}

// SetSelection records a portal-resolved selection for the next
// QuerySelection call to consume.
func (s *Store) SetSelection(sel capture.Selection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection = &sel
}

// Selection returns and clears the pending selection, if any.
func (s *Store) Selection() (capture.Selection, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selection == nil {
		return capture.Selection{}, false
	}
	sel := *s.selection
	s.selection = nil
	return sel, true
}

// StoreToken records the approval token the picker process hands back
// once the user approves a selection, in-process and, when a disk path is
// set, on disk. A failed disk write is returned as an error; the
// in-process token has already been updated by then.
func (s *Store) StoreToken(token string) error {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()

	if s.diskPath == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.diskPath), 0700); err != nil {
		return err
	}
	if err := os.WriteFile(s.diskPath, []byte(token), 0600); err != nil {
		log.Warn("failed to persist approval token to disk", "path", s.diskPath, "error", err)
		return err
	}
	return nil
}

// ValidateToken reports whether token matches the known-good token.
// The in-process token set by StoreToken earlier in this run takes
// precedence over the on-disk copy; the disk copy is only consulted
// when this process has not stored a token itself yet.
func (s *Store) ValidateToken(token string) bool {
	s.mu.Lock()
	inProcess := s.token
	s.mu.Unlock()

	if inProcess != "" {
		return token == inProcess
	}

	if s.diskPath == "" {
		return false
	}
	data, err := os.ReadFile(s.diskPath)
	if err != nil {
		return false
	}
	return strings.TrimSpace(string(data)) == token
}
