// Package cache stores resources/read results on disk, scoped by run id.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/k-in/Legacy-Modernization-Agents-sub001/internal/paths"
)

type entry struct {
	URI     string    `json:"uri"`
	Text    string    `json:"text"`
	Created time.Time `json:"created"`
	Expires time.Time `json:"expires"`
}

// Store is a directory of cached resource texts.
type Store struct {
	dir string
}

// New returns a Store rooted at dir.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// Default returns a Store under the user cache directory.
func Default() *Store {
	return New(paths.ResourceCacheDir())
}

// Dir returns the directory entries are written to.
func (s *Store) Dir() string {
	return s.dir
}

// Get looks up the cached text of uri for runID. Returns false if not found
// or expired.
func (s *Store) Get(runID, uri string) (string, bool) {
	e, _, ok := s.getEntry(runID, uri)
	if !ok {
		return "", false
	}
	return e.Text, true
}

// GetMetadata returns cache age and ttl when a valid entry exists.
func (s *Store) GetMetadata(runID, uri string) (time.Duration, time.Duration, bool) {
	e, path, ok := s.getEntry(runID, uri)
	if !ok {
		return 0, 0, false
	}

	created := e.Created
	if created.IsZero() {
		if st, err := os.Stat(path); err == nil {
			created = st.ModTime()
		}
	}
	if created.IsZero() {
		created = e.Expires
	}

	ttl := e.Expires.Sub(created)
	if ttl < 0 {
		ttl = 0
	}

	age := time.Since(created)
	if age < 0 {
		age = 0
	}

	return age, ttl, true
}

// Put stores the text of uri for runID.
func (s *Store) Put(runID, uri, text string, ttl time.Duration) error {
	if err := paths.EnsureDir(s.dir); err != nil {
		return err
	}

	now := time.Now()
	e := entry{
		URI:     uri,
		Text:    text,
		Created: now,
		Expires: now.Add(ttl),
	}

	data, err := json.Marshal(e)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, ".entry-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, s.entryPath(runID, uri)); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return nil
}

func (s *Store) getEntry(runID, uri string) (entry, string, bool) {
	path := s.entryPath(runID, uri)
	data, err := os.ReadFile(path)
	if err != nil {
		return entry{}, path, false
	}

	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		_ = os.Remove(path)
		return entry{}, path, false
	}

	if time.Now().After(e.Expires) {
		_ = os.Remove(path)
		return entry{}, path, false
	}

	return e, path, true
}

func (s *Store) entryPath(runID, uri string) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s", runID, uri)
	key := hex.EncodeToString(h.Sum(nil))[:32]
	return filepath.Join(s.dir, key+".json")
}
