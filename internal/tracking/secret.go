package tracking

import (
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// SecretVerifier checks the shared flush secret.
type SecretVerifier interface {
	Verify(secret string) bool
}

// NewSecretVerifier returns a verifier for the configured secret. A bcrypt
// hash wins over a plain password; with neither, every secret is rejected.
func NewSecretVerifier(password, passwordHash string) (SecretVerifier, error) {
	if passwordHash != "" {
		if _, err := bcrypt.Cost([]byte(passwordHash)); err != nil {
			return nil, fmt.Errorf("invalid flush password hash: %w", err)
		}
		return bcryptSecret(passwordHash), nil
	}
	if password != "" {
		return plainSecret(password), nil
	}
	return denyAll{}, nil
}

type plainSecret string

func (p plainSecret) Verify(secret string) bool {
	return subtle.ConstantTimeCompare([]byte(p), []byte(secret)) == 1
}

type bcryptSecret string

func (b bcryptSecret) Verify(secret string) bool {
	if secret == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(b), []byte(secret)) == nil
}

type denyAll struct{}

func (denyAll) Verify(string) bool { return false }
