package files

import (
	"path/filepath"

	"github.com/harrylevesque/taskboard/internal/models"
)

const profileFileName = "profile.json"

// ProfileStore keeps the last good profile for offline display.
type ProfileStore struct {
	file jsonFile[models.CachedProfile]
}

// NewProfileStore stores the cache at path; an empty path uses dir/profile.json.
func NewProfileStore(path, dir string) *ProfileStore {
	if path == "" {
		path = filepath.Join(dir, profileFileName)
	}
	return &ProfileStore{file: jsonFile[models.CachedProfile]{path: path, perm: 0644}}
}

// Path returns the cache file location.
func (s *ProfileStore) Path() string { return s.file.path }

// Save replaces the cached profile.
func (s *ProfileStore) Save(p models.CachedProfile) error { return s.file.save(p) }

// Load returns the cached profile or ErrNotFound.
func (s *ProfileStore) Load() (models.CachedProfile, error) { return s.file.load() }

// Clear removes the cache file.
func (s *ProfileStore) Clear() error { return s.file.clear() }
