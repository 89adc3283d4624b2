package credential

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/ferrite-sec/ferrite-cli/internal/logging"
)

// Store reads and writes the credential file. The file holds at most one
// credential; a missing, unreadable, or corrupt file reads as absent so a
// damaged store degrades to "logged out" instead of breaking the CLI.
type Store struct {
	path string
	log  *logging.Logger
}

// NewStore creates a store over the given file path.
func NewStore(path string, log *logging.Logger) *Store {
	if log == nil {
		log = logging.NewDefaultCLILogger()
	}
	return &Store{path: path, log: log}
}

// Path returns the backing file location.
func (s *Store) Path() string {
	return s.path
}

// Load returns the stored credential, or nil when none is usable.
// Corruption is never fatal: it is logged at debug level and read as absent.
func (s *Store) Load() *Credential {
	info, err := os.Stat(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Debugf("Credential store unreadable, treating as absent: %v", err)
		}
		return nil
	}

	// Warn on loose permissions but still load; the owner-only guarantee
	// is enforced at creation, not on read.
	if runtime.GOOS != "windows" {
		if mode := info.Mode().Perm(); mode&0077 != 0 {
			s.log.Warnf("Credentials file %s has permissions %o - recommend 0600", s.path, mode)
		}
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		s.log.Debugf("Credential store unreadable, treating as absent: %v", err)
		return nil
	}

	var cred Credential
	if err := json.Unmarshal(data, &cred); err != nil {
		s.log.Debugf("Credential store corrupt, treating as absent: %v", err)
		return nil
	}
	if !cred.wellFormed() {
		s.log.Debugf("Credential store malformed (type %q), treating as absent", cred.Type)
		return nil
	}

	return &cred
}

// Save atomically replaces the stored credential: the JSON is written to a
// uniquely named temp file in the same directory, locked down to 0600, then
// renamed over the target. A concurrent reader observes either the old
// complete credential, the new one, or none - never a torn write.
//
// Failure to establish owner-only permissions on the new file is an error;
// the caller treats it as fatal rather than leaving secrets world-readable.
func (s *Store) Save(cred *Credential) error {
	if cred == nil || !cred.wellFormed() {
		return fmt.Errorf("refusing to save malformed credential")
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create credential directory: %w", err)
	}

	data, err := json.MarshalIndent(cred, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode credential: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".credentials-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp credential file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write credential file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write credential file: %w", err)
	}

	if runtime.GOOS != "windows" {
		if err := os.Chmod(tmpPath, 0600); err != nil {
			os.Remove(tmpPath)
			return fmt.Errorf("failed to set credential file permissions: %w", err)
		}
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save credential file: %w", err)
	}

	return nil
}

// Clear removes the stored credential. A missing file is success, so Clear
// is safe to call from any state.
func (s *Store) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear credential file: %w", err)
	}
	return nil
}
