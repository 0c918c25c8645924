// Package security seals citizen identifiers of anonymous reports so they
// are unreadable at rest but recoverable by admins.
package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNoKey      = errors.New("no encryption key or secret configured")
	ErrKeyLength  = errors.New("encryption key must decode to 32 bytes")
	ErrCiphertext = errors.New("malformed or tampered ciphertext")
)

// DeriveKey returns a 32-byte AES-256 key: encKey when set (base64 of 32
// bytes), otherwise sha256 of fallbackSecret.
func DeriveKey(encKey, fallbackSecret string) ([]byte, error) {
	if v := strings.TrimSpace(encKey); v != "" {
		b, err := base64.StdEncoding.DecodeString(v)
		if err != nil {
			return nil, fmt.Errorf("invalid encryption key: %w", err)
		}
		if len(b) != 32 {
			return nil, ErrKeyLength
		}
		return b, nil
	}

	if strings.TrimSpace(fallbackSecret) == "" {
		return nil, ErrNoKey
	}
	sum := sha256.Sum256([]byte("lapordesa/anon:" + fallbackSecret))
	return sum[:], nil
}

// Sealer encrypts short strings with AES-GCM. The output is
// base64(nonce || ciphertext) and is bound to a purpose label, so a value
// sealed for one field cannot be opened as another.
type Sealer struct {
	gcm cipher.AEAD
}

func NewSealer(key []byte) (*Sealer, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("invalid key: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Sealer{gcm: gcm}, nil
}

func (s *Sealer) Seal(purpose, plaintext string) (string, error) {
	nonce := make([]byte, s.gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to read nonce: %w", err)
	}
	out := s.gcm.Seal(nonce, nonce, []byte(plaintext), []byte(purpose))
	return base64.StdEncoding.EncodeToString(out), nil
}

func (s *Sealer) Open(purpose, sealed string) (string, error) {
	payload, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return "", ErrCiphertext
	}
	ns := s.gcm.NonceSize()
	if len(payload) < ns+s.gcm.Overhead() {
		return "", ErrCiphertext
	}
	pt, err := s.gcm.Open(nil, payload[:ns], payload[ns:], []byte(purpose))
	if err != nil {
		return "", ErrCiphertext
	}
	return string(pt), nil
}
