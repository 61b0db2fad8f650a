// Package crypto seals client state at rest with AES-256-GCM.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

const keySize = 32

var hkdfSalt = []byte("tripboard/state/v1")

// ErrShortCiphertext is returned when a sealed value is too short to hold a nonce.
var ErrShortCiphertext = errors.New("ciphertext too short")

// Cipher seals values bound to the state key they are stored under, so a
// sealed session cannot be replayed under another key.
type Cipher struct {
	aead cipher.AEAD
}

// NewCipher builds a Cipher from a secret. A 64-character hex string is
// used as the raw key; any other secret is stretched with HKDF-SHA256.
// An empty secret returns nil, which disables encryption.
func NewCipher(secret string) (*Cipher, error) {
	if secret == "" {
		return nil, nil
	}

	key, err := deriveKey(secret)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("creating AES cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("creating GCM: %w", err)
	}
	return &Cipher{aead: aead}, nil
}

func deriveKey(secret string) ([]byte, error) {
	if len(secret) == 2*keySize {
		if key, err := hex.DecodeString(secret); err == nil {
			return key, nil
		}
	}
	key := make([]byte, keySize)
	r := hkdf.New(sha256.New, []byte(secret), hkdfSalt, []byte("state-encryption"))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("deriving key: %w", err)
	}
	return key, nil
}

// Seal encrypts plaintext for the given state key and returns base64 text
// with the nonce prepended. A nil Cipher returns plaintext unchanged.
func (c *Cipher) Seal(stateKey string, plaintext []byte) ([]byte, error) {
	if c == nil {
		return plaintext, nil
	}

	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("generating nonce: %w", err)
	}
	sealed := c.aead.Seal(nonce, nonce, plaintext, []byte(stateKey))
	out := make([]byte, base64.StdEncoding.EncodedLen(len(sealed)))
	base64.StdEncoding.Encode(out, sealed)
	return out, nil
}

// Open reverses Seal. A nil Cipher returns the input unchanged.
func (c *Cipher) Open(stateKey string, sealed []byte) ([]byte, error) {
	if c == nil {
		return sealed, nil
	}

	data := make([]byte, base64.StdEncoding.DecodedLen(len(sealed)))
	n, err := base64.StdEncoding.Decode(data, sealed)
	if err != nil {
		return nil, fmt.Errorf("decoding base64: %w", err)
	}
	data = data[:n]

	nonceSize := c.aead.NonceSize()
	if len(data) < nonceSize {
		return nil, ErrShortCiphertext
	}
	nonce, body := data[:nonceSize], data[nonceSize:]
	plaintext, err := c.aead.Open(nil, nonce, body, []byte(stateKey))
	if err != nil {
		return nil, fmt.Errorf("decrypting: %w", err)
	}
	return plaintext, nil
}
