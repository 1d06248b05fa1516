package files

import (
	"path/filepath"
)

const sessionFileName = "session.json"

// SavedSession is the client's login state.
type SavedSession struct {
	Server string `json:"server"`
	Email  string `json:"email"`
	Cookie string `json:"cookie"`
}

// SessionStore persists the client's session cookie between runs.
type SessionStore struct {
	file jsonFile[SavedSession]
}

// NewSessionStore stores the session in dir/session.json.
func NewSessionStore(dir string) *SessionStore {
	return &SessionStore{file: jsonFile[SavedSession]{path: filepath.Join(dir, sessionFileName), perm: 0600}}
}

func (s *SessionStore) Save(v SavedSession) error    { return s.file.save(v) }
func (s *SessionStore) Load() (SavedSession, error) { return s.file.load() }
func (s *SessionStore) Clear() error                { return s.file.clear() }
