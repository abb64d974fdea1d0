package domain

import "context"

// CryptoService seals secrets with AEAD.
// 'associatedData' (AAD) binds a ciphertext to its owner (e.g. a project id),
// so a value copied onto another project fails to open.
type CryptoService interface {
	Encrypt(ctx context.Context, plaintext []byte, associatedData []byte) (string, error)
	Decrypt(ctx context.Context, ciphertextBase64 string, associatedData []byte) ([]byte, error)
}
