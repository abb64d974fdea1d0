package crypto

import (
	"context"
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

	"github.com/reacthost/console/api/internal/core/domain"
)

// PurposeEnvVars is the HKDF info string for the env var sealing sub-key.
const PurposeEnvVars = "reacthost/env-vars/v1"

var _ domain.CryptoService = (*AESCryptoService)(nil)

type AESCryptoService struct {
	aead cipher.AEAD
}

// NewAESCryptoService uses the 256-bit hex master key as-is.
func NewAESCryptoService(hexKey string) (*AESCryptoService, error) {
	key, err := decodeMasterKey(hexKey)
	if err != nil {
		return nil, err
	}
	defer zeroize(key)
	return newFromKey(key)
}

// NewDerivedAESCryptoService derives a purpose-bound sub-key from the master
// key with HKDF-SHA256, so one ENCRYPTION_KEY can serve several stores
// without sharing a data key.
func NewDerivedAESCryptoService(hexKey, purpose string) (*AESCryptoService, error) {
	master, err := decodeMasterKey(hexKey)
	if err != nil {
		return nil, err
	}
	defer zeroize(master)

	sub := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, master, nil, []byte(purpose)), sub); err != nil {
		return nil, fmt.Errorf("crypto: key derivation failure: %w", err)
	}
	defer zeroize(sub)
	return newFromKey(sub)
}

func decodeMasterKey(hexKey string) ([]byte, error) {
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("crypto: invalid key encoding: %w", err)
	}
	if len(key) != 32 {
		return nil, errors.New("crypto: key must be 32 bytes for AES-256")
	}
	return key, nil
}

func newFromKey(key []byte) (*AESCryptoService, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("crypto: block cipher failure: %w", err)
	}
	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("crypto: GCM failure: %w", err)
	}
	return &AESCryptoService{aead: aesGCM}, nil
}

func zeroize(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// Encrypt returns base64url(nonce || ciphertext || tag).
func (s *AESCryptoService) Encrypt(ctx context.Context, plaintext []byte, associatedData []byte) (string, error) {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("crypto: nonce generation failure: %w", err)
	}
	sealed := s.aead.Seal(nonce, nonce, plaintext, associatedData)
	return base64.URLEncoding.EncodeToString(sealed), nil
}

func (s *AESCryptoService) Decrypt(ctx context.Context, ciphertextBase64 string, associatedData []byte) ([]byte, error) {
	data, err := base64.URLEncoding.DecodeString(ciphertextBase64)
	if err != nil {
		return nil, fmt.Errorf("crypto: base64 decode failure: %w", err)
	}

	ns := s.aead.NonceSize()
	if len(data) < ns {
		return nil, errors.New("crypto: ciphertext too short")
	}
	nonce, body := data[:ns], data[ns:]

	// Fails when the AAD (owning project id) differs from the one used to seal.
	plaintext, err := s.aead.Open(nil, nonce, body, associatedData)
	if err != nil {
		return nil, errors.New("crypto: integrity violation - potential tampering detected")
	}
	return plaintext, nil
}
