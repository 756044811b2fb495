// Package vault provides the credential-at-rest boundary for payment
// integrations. Adapters only ever decrypt; plaintext credentials live for
// the duration of a single provider call and are never logged or cached.
package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
)

// Decryptor turns an encrypted credential blob into its field map.
type Decryptor interface {
	Decrypt(blob []byte) (map[string]string, error)
}

// Encryptor seals a credential field map into an opaque blob. Only the
// integration-management surface needs this.
type Encryptor interface {
	Encrypt(fields map[string]string) ([]byte, error)
}

// AESVault seals credential maps with AES-256-GCM. Blob layout is
// base64(nonce || ciphertext).
type AESVault struct {
	aead cipher.AEAD
}

// NewAES builds a vault from a 32-byte key.
func NewAES(key []byte) (*AESVault, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("vault key must be 32 bytes, got %d", len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("vault cipher init failed: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("vault GCM init failed: %w", err)
	}
	return &AESVault{aead: aead}, nil
}

func (v *AESVault) Encrypt(fields map[string]string) ([]byte, error) {
	plaintext, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("vault marshal failed: %w", err)
	}

	nonce := make([]byte, v.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("vault nonce generation failed: %w", err)
	}

	sealed := v.aead.Seal(nonce, nonce, plaintext, nil)
	out := make([]byte, base64.StdEncoding.EncodedLen(len(sealed)))
	base64.StdEncoding.Encode(out, sealed)
	return out, nil
}

func (v *AESVault) Decrypt(blob []byte) (map[string]string, error) {
	raw := make([]byte, base64.StdEncoding.DecodedLen(len(blob)))
	n, err := base64.StdEncoding.Decode(raw, blob)
	if err != nil {
		return nil, errors.New("vault blob is not valid base64")
	}
	raw = raw[:n]

	nonceSize := v.aead.NonceSize()
	if len(raw) < nonceSize {
		return nil, errors.New("vault blob too short")
	}

	plaintext, err := v.aead.Open(nil, raw[:nonceSize], raw[nonceSize:], nil)
	if err != nil {
		return nil, errors.New("vault blob failed authentication")
	}

	var fields map[string]string
	if err := json.Unmarshal(plaintext, &fields); err != nil {
		return nil, fmt.Errorf("vault unmarshal failed: %w", err)
	}
	return fields, nil
}

// Static returns fixed fields regardless of blob content. Test helper.
type Static map[string]string

func (s Static) Decrypt([]byte) (map[string]string, error) {
	return map[string]string(s), nil
}

// Failing always errors. Test helper for fail-closed paths.
type Failing struct{ Err error }

func (f Failing) Decrypt([]byte) (map[string]string, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	return nil, errors.New("decrypt unavailable")
}
