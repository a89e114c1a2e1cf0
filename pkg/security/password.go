package security

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const (
	MinPasswordLen = 8
	// bcrypt ignores everything past 72 bytes.
	MaxPasswordLen = 72

	resetTokenBytes = 32
)

// ErrWeakPassword matches every *PolicyError.
var ErrWeakPassword = errors.New("weak password")

// PolicyError reports a password rejected before hashing. Reason is safe to
// show to the user.
type PolicyError struct {
	Reason string
}

func (e *PolicyError) Error() string { return e.Reason }

func (e *PolicyError) Is(target error) bool { return target == ErrWeakPassword }

// PasswordHasher hashes account passwords and verifies login attempts.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hashedPassword, password string) error
}

// CheckPassword applies the account password policy.
func CheckPassword(password string) error {
	switch {
	case len(password) < MinPasswordLen:
		return &PolicyError{Reason: fmt.Sprintf("password must be at least %d characters", MinPasswordLen)}
	case len(password) > MaxPasswordLen:
		return &PolicyError{Reason: fmt.Sprintf("password must be at most %d bytes", MaxPasswordLen)}
	case strings.Trim(password, "0123456789") == "":
		return &PolicyError{Reason: "password cannot be entirely numeric"}
	}
	return nil
}

type bcryptHasher struct {
	cost int
}

// NewBcryptHasher returns a PasswordHasher using bcrypt. Out of range costs,
// including 0, fall back to bcrypt.DefaultCost.
func NewBcryptHasher(cost int) PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &bcryptHasher{cost: cost}
}

func (b *bcryptHasher) Hash(password string) (string, error) {
	if err := CheckPassword(password); err != nil {
		return "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), b.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

func (b *bcryptHasher) Compare(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

// NewResetToken returns a random hex token for password reset links.
func NewResetToken() (string, error) {
	buf := make([]byte, resetTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate reset token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
