package service

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/pbkdf2"
)

const (
	pbkdf2Iterations = 600000
	pbkdf2KeyLen     = 32
	pbkdf2SaltLen    = 16
	saltAlphabet     = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	// BcryptMaxPasswordBytes is the longest input bcrypt can hash.
	BcryptMaxPasswordBytes = 72
)

var errUnknownHashFormat = errors.New("unknown password hash format")

// ErrPasswordTooLong is returned by Hash when the scheme cannot take the
// password in full.
var ErrPasswordTooLong = errors.New("password too long")

// PasswordHasher derives and checks password hashes.
type PasswordHasher interface {
	Hash(password string) (string, error)
	// Verify reports whether password matches the stored hash.
	Verify(hash, password string) (bool, error)
}

// NewPasswordHasher returns the hasher for scheme ("pbkdf2" or "bcrypt").
// Either hasher verifies hashes produced by the other, so switching schemes
// does not lock out existing users.
func NewPasswordHasher(scheme string) (PasswordHasher, error) {
	switch scheme {
	case "pbkdf2", "":
		return &PBKDF2Hasher{Iterations: pbkdf2Iterations}, nil
	case "bcrypt":
		return &BcryptHasher{Cost: bcrypt.DefaultCost}, nil
	default:
		return nil, fmt.Errorf("unsupported password scheme %q", scheme)
	}
}

// PBKDF2Hasher produces "pbkdf2:sha256:<iterations>$<salt>$<hex digest>" hashes,
// the format used by werkzeug's generate_password_hash.
type PBKDF2Hasher struct {
	Iterations int
}

func (h *PBKDF2Hasher) Hash(password string) (string, error) {
	salt, err := randomSalt(pbkdf2SaltLen)
	if err != nil {
		return "", err
	}
	dk := pbkdf2.Key([]byte(password), []byte(salt), h.Iterations, pbkdf2KeyLen, sha256.New)
	return fmt.Sprintf("pbkdf2:sha256:%d$%s$%s", h.Iterations, salt, hex.EncodeToString(dk)), nil
}

func (h *PBKDF2Hasher) Verify(hash, password string) (bool, error) {
	return verifyHash(hash, password)
}

// BcryptHasher produces bcrypt hashes.
type BcryptHasher struct {
	Cost int
}

func (h *BcryptHasher) Hash(password string) (string, error) {
	if len(password) > BcryptMaxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), h.Cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(b), nil
}

func (h *BcryptHasher) Verify(hash, password string) (bool, error) {
	return verifyHash(hash, password)
}

func verifyHash(hash, password string) (bool, error) {
	switch {
	case strings.HasPrefix(hash, "pbkdf2:"):
		return verifyPBKDF2(hash, password)
	case strings.HasPrefix(hash, "$2"):
		err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}
		return err == nil, err
	default:
		return false, errUnknownHashFormat
	}
}

func verifyPBKDF2(hash, password string) (bool, error) {
	method, rest, ok := strings.Cut(hash, "$")
	if !ok {
		return false, errUnknownHashFormat
	}
	salt, digest, ok := strings.Cut(rest, "$")
	if !ok {
		return false, errUnknownHashFormat
	}

	parts := strings.Split(method, ":")
	if len(parts) != 3 || parts[1] != "sha256" {
		return false, errUnknownHashFormat
	}
	iterations, err := strconv.Atoi(parts[2])
	if err != nil || iterations <= 0 {
		return false, errUnknownHashFormat
	}
	want, err := hex.DecodeString(digest)
	if err != nil || len(want) == 0 {
		return false, errUnknownHashFormat
	}

	got := pbkdf2.Key([]byte(password), []byte(salt), iterations, len(want), sha256.New)
	return subtle.ConstantTimeCompare(got, want) == 1, nil
}

func randomSalt(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	for i, b := range buf {
		buf[i] = saltAlphabet[int(b)%len(saltAlphabet)]
	}
	return string(buf), nil
}
