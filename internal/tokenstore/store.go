// Package tokenstore persists the GitHub token between sessions,
// obfuscated at rest.
//
// The encoding is AES-GCM keyed through PBKDF2 over a fixed passphrase
// and salt, so it only hides the token from casual inspection of the
// data directory. It is deliberately not named encryption: with the
// passphrase baked into the binary it is no confidentiality boundary.
package tokenstore

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/crypto/pbkdf2"

	"github.com/vishals9711/task-crafter/internal/apperr"
)

const (
	passphrase       = "github-token-encryption-key"
	keySalt          = "github-token-salt"
	pbkdf2Iterations = 100000
	keyLength        = 32
	nonceSize        = 12

	tokenFileName = "github_token"
)

func deriveKey() []byte {
	return pbkdf2.Key([]byte(passphrase), []byte(keySalt), pbkdf2Iterations, keyLength, sha256.New)
}

// ObfuscateAtRest encodes a token for storage. The payload layout is
// base64(nonce(12) || ciphertext).
func ObfuscateAtRest(token string) (string, error) {
	block, err := aes.NewCipher(deriveKey())
	if err != nil {
		return "", fmt.Errorf("failed to initialize cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("failed to initialize gcm: %w", err)
	}

	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := gcm.Seal(nonce, nonce, []byte(token), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// RevealFromRest decodes a stored token. Any tampered or corrupted value
// yields an ErrCrypto-kind error, which callers treat as an implicit
// logout rather than a crash.
func RevealFromRest(encoded string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", apperr.Cryptof("stored token is not valid base64: %v", err)
	}
	if len(raw) <= nonceSize {
		return "", apperr.Cryptof("stored token payload is too short")
	}

	block, err := aes.NewCipher(deriveKey())
	if err != nil {
		return "", apperr.Cryptof("failed to initialize cipher: %v", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", apperr.Cryptof("failed to initialize gcm: %v", err)
	}

	plaintext, err := gcm.Open(nil, raw[:nonceSize], raw[nonceSize:], nil)
	if err != nil {
		return "", apperr.Cryptof("stored token failed authentication: %v", err)
	}
	return string(plaintext), nil
}

// Store keeps the obfuscated token in a file under the data directory.
type Store struct {
	path string
}

// NewStore creates a store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{path: filepath.Join(dir, tokenFileName)}
}

// Save obfuscates and writes the token.
func (s *Store) Save(token string) error {
	encoded, err := ObfuscateAtRest(token)
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	if err := os.WriteFile(s.path, []byte(encoded), 0600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

// Load reads and decodes the stored token. A missing file is an
// ErrAuth-kind error; an undecodable file is an ErrCrypto-kind error.
func (s *Store) Load() (string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", apperr.Authf("no stored github token")
		}
		return "", fmt.Errorf("failed to read token file: %w", err)
	}
	return RevealFromRest(string(data))
}

// Clear removes the stored token. Clearing an absent token is not an error.
func (s *Store) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove token file: %w", err)
	}
	return nil
}
