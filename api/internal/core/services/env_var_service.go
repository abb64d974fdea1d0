package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/reacthost/console/api/internal/core/domain"
)

// sealedPrefix marks a value that went through the CryptoService.
const sealedPrefix = "sealed:v1:"

type EnvVarService struct {
	cryptoService domain.CryptoService
	logger        *slog.Logger
}

// NewEnvVarService accepts a nil crypto, in which case values are stored as-is.
func NewEnvVarService(crypto domain.CryptoService, logger *slog.Logger) *EnvVarService {
	return &EnvVarService{
		cryptoService: crypto,
		logger:        logger,
	}
}

// NewVar builds a normalized EnvVar. Both key and value must be non-empty.
func (s *EnvVarService) NewVar(key, value string) (domain.EnvVar, error) {
	if strings.TrimSpace(key) == "" || value == "" {
		return domain.EnvVar{}, domain.ErrEnvVarInvalid
	}
	return domain.EnvVar{
		ID:    shortID(),
		Key:   domain.NormalizeEnvKey(key),
		Value: value,
	}, nil
}

// Normalize prepares a caller-supplied list for storage: keys are normalized
// and missing ids assigned. Duplicate keys are kept.
func (s *EnvVarService) Normalize(vars []domain.EnvVar) ([]domain.EnvVar, error) {
	out := make([]domain.EnvVar, 0, len(vars))
	for _, v := range vars {
		if strings.TrimSpace(v.Key) == "" {
			return nil, domain.ErrEnvVarInvalid
		}
		v.Key = domain.NormalizeEnvKey(v.Key)
		if v.ID == "" {
			v.ID = shortID()
		}
		out = append(out, v)
	}
	return out, nil
}

// Seal encrypts every value, binding it to projectID as associated data.
func (s *EnvVarService) Seal(ctx context.Context, projectID string, vars []domain.EnvVar) ([]domain.EnvVar, error) {
	if s.cryptoService == nil {
		return vars, nil
	}

	sealed := make([]domain.EnvVar, len(vars))
	for i, v := range vars {
		// 🛡️ AAD: a value copied onto another project will not open
		ciphertext, err := s.cryptoService.Encrypt(ctx, []byte(v.Value), []byte(projectID))
		if err != nil {
			s.logger.Error("Encryption failure", slog.String("project_id", projectID))
			return nil, fmt.Errorf("cryptographic failure")
		}
		v.Value = sealedPrefix + ciphertext
		sealed[i] = v
	}
	return sealed, nil
}

// Open reverses Seal. Values without the sealed prefix pass through so
// snapshots written before a key was configured still load.
func (s *EnvVarService) Open(ctx context.Context, projectID string, vars []domain.EnvVar) ([]domain.EnvVar, error) {
	opened := make([]domain.EnvVar, len(vars))
	for i, v := range vars {
		if strings.HasPrefix(v.Value, sealedPrefix) {
			if s.cryptoService == nil {
				return nil, fmt.Errorf("env var %s is sealed but no encryption key is configured", v.Key)
			}
			plaintext, err := s.cryptoService.Decrypt(ctx, strings.TrimPrefix(v.Value, sealedPrefix), []byte(projectID))
			if err != nil {
				return nil, fmt.Errorf("integrity violation: failed to decrypt secrets")
			}
			v.Value = string(plaintext)
		}
		opened[i] = v
	}
	return opened, nil
}

// Mask replaces every value with a fixed-width placeholder.
func Mask(vars []domain.EnvVar) []domain.EnvVar {
	masked := make([]domain.EnvVar, len(vars))
	for i, v := range vars {
		v.Value = "••••••••"
		masked[i] = v
	}
	return masked
}

func shortID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
}
