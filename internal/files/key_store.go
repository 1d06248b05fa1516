package files

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SessionKeyEnv holds the hex session key and takes precedence over the key file.
const SessionKeyEnv = "TASKBOARD_SESSION_KEY_HEX"

// ErrKeyExists is returned when WriteSessionKey would overwrite a key file.
var ErrKeyExists = errors.New("session key file already exists")

// ReadSessionKey returns the 32-byte master session key from the environment
// or, failing that, the hex file at path.
func ReadSessionKey(path string) ([]byte, error) {
	h := os.Getenv(SessionKeyEnv)
	if h == "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%s not set and %s not readable: %w", SessionKeyEnv, path, err)
		}
		h = string(data)
	}
	b, err := hex.DecodeString(strings.TrimSpace(h))
	if err != nil {
		return nil, fmt.Errorf("session key hex decode error: %w", err)
	}
	if len(b) != 32 {
		return nil, fmt.Errorf("session key length must be 32 bytes (hex 64 chars), got %d", len(b))
	}
	return b, nil
}

// WriteSessionKey writes key as hex to path with 0600 permissions. It refuses
// to overwrite an existing file.
func WriteSessionKey(path string, key []byte) error {
	if FileExists(path) {
		return ErrKeyExists
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return err
		}
	}
	return os.WriteFile(path, []byte(hex.EncodeToString(key)+"\n"), 0600)
}

// FileExists checks if the given file exists.
func FileExists(filePath string) bool {
	_, err := os.Stat(filePath)
	return !os.IsNotExist(err)
}
