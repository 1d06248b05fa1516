package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"io"

	"golang.org/x/crypto/hkdf"
)

// ErrInvalidKeyLength is returned when the master session key is not 32 bytes.
var ErrInvalidKeyLength = errors.New("invalid key length")

// SessionKeys is the key pair handed to the cookie store.
type SessionKeys struct {
	Hash  []byte // 64 bytes, HMAC-SHA256 authentication
	Block []byte // 32 bytes, AES-256 encryption
}

// DeriveSessionKeys expands a 32-byte master key into cookie hash and block keys.
func DeriveSessionKeys(master []byte) (SessionKeys, error) {
	if len(master) != 32 {
		return SessionKeys{}, ErrInvalidKeyLength
	}
	hashKey, err := derive(master, "taskboard-cookie-hash", 64)
	if err != nil {
		return SessionKeys{}, err
	}
	blockKey, err := derive(master, "taskboard-cookie-block", 32)
	if err != nil {
		return SessionKeys{}, err
	}
	return SessionKeys{Hash: hashKey, Block: blockKey}, nil
}

func derive(master []byte, info string, n int) ([]byte, error) {
	h := hkdf.New(sha256.New, master, nil, []byte(info))
	out := make([]byte, n)
	if _, err := io.ReadFull(h, out); err != nil {
		return nil, err
	}
	return out, nil
}

// MustRandom returns n random bytes or panics.
func MustRandom(n int) []byte {
	b := make([]byte, n)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		panic(err)
	}
	return b
}
