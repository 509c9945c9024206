// Package vault seals bank access credentials at rest. Tokens are encrypted
// with XChaCha20-Poly1305 under a key supplied by configuration, so a
// database dump alone never exposes live provider credentials.
package vault

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// ErrInvalidKey is returned when the configured key is not 32 bytes of hex.
var ErrInvalidKey = errors.New("vault: key must be 64 hex characters (32 bytes)")

// Vault encrypts and decrypts credential strings.
type Vault struct {
	key []byte
}

// New creates a Vault from a hex-encoded 32-byte key.
func New(hexKey string) (*Vault, error) {
	key, err := hex.DecodeString(hexKey)
	if err != nil || len(key) != chacha20poly1305.KeySize {
		return nil, ErrInvalidKey
	}
	return &Vault{key: key}, nil
}

// Seal encrypts a plaintext credential, returning a base64 token of
// nonce||ciphertext.
func (v *Vault) Seal(plaintext string) (string, error) {
	aead, err := chacha20poly1305.NewX(v.key)
	if err != nil {
		return "", fmt.Errorf("vault: %w", err)
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("vault: generating nonce: %w", err)
	}

	sealed := aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Open decrypts a token produced by Seal.
func (v *Vault) Open(token string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return "", fmt.Errorf("vault: decoding token: %w", err)
	}

	aead, err := chacha20poly1305.NewX(v.key)
	if err != nil {
		return "", fmt.Errorf("vault: %w", err)
	}

	if len(raw) < aead.NonceSize() {
		return "", errors.New("vault: token too short")
	}

	nonce, ciphertext := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("vault: opening token: %w", err)
	}
	return string(plaintext), nil
}
