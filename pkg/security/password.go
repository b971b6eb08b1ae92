// Package security hashes staff passwords with Argon2id and enforces the
// back-office password policy.
package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/crypto/argon2"

	"github.com/angelmondragon/lensretail-backend/pkg/config"
)

const (
	MinPasswordLength = 8
	MaxPasswordLength = 128
)

var (
	ErrInvalidHash  = errors.New("security: malformed argon2id hash")
	ErrWeakPassword = fmt.Errorf("password must be %d-%d characters and contain a letter and a digit", MinPasswordLength, MaxPasswordLength)
)

var b64 = base64.RawStdEncoding

// argonCost is the tunable part of a hash, stored in its PHC string as
// $argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<key>.
type argonCost struct {
	memory  uint32
	time    uint32
	threads uint8
}

func costFrom(cfg config.PasswordConfig) (argonCost, uint32, uint32) {
	cost := argonCost{
		memory:  uint32(bound(cfg.ArgonMemoryKB, 8, 512*1024)),
		time:    uint32(bound(cfg.ArgonTime, 1, 10)),
		threads: uint8(bound(cfg.ArgonParallelism, 1, 255)),
	}
	return cost, uint32(bound(cfg.ArgonSaltLen, 8, 64)), uint32(bound(cfg.ArgonKeyLen, 16, 64))
}

func bound(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

// HashPassword derives a fresh salted Argon2id key for password.
func HashPassword(password string, cfg config.PasswordConfig) (string, error) {
	if password == "" {
		return "", errors.New("security: empty password")
	}
	cost, saltLen, keyLen := costFrom(cfg)
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("security: read salt: %w", err)
	}
	key := argon2.IDKey([]byte(password), salt, cost.time, cost.memory, cost.threads, keyLen)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, cost.memory, cost.time, cost.threads, b64.EncodeToString(salt), b64.EncodeToString(key)), nil
}

// VerifyPassword recomputes the key with the cost stored in encoded and
// compares in constant time.
func VerifyPassword(password, encoded string) (bool, error) {
	cost, salt, key, err := parseHash(encoded)
	if err != nil {
		return false, err
	}
	candidate := argon2.IDKey([]byte(password), salt, cost.time, cost.memory, cost.threads, uint32(len(key)))
	return subtle.ConstantTimeCompare(key, candidate) == 1, nil
}

func parseHash(encoded string) (argonCost, []byte, []byte, error) {
	// "", "argon2id", "v=19", "m=..,t=..,p=..", salt, key
	fields := strings.Split(encoded, "$")
	if len(fields) != 6 || fields[1] != "argon2id" {
		return argonCost{}, nil, nil, ErrInvalidHash
	}
	var version int
	if _, err := fmt.Sscanf(fields[2], "v=%d", &version); err != nil || version != argon2.Version {
		return argonCost{}, nil, nil, ErrInvalidHash
	}
	var cost argonCost
	if _, err := fmt.Sscanf(fields[3], "m=%d,t=%d,p=%d", &cost.memory, &cost.time, &cost.threads); err != nil {
		return argonCost{}, nil, nil, ErrInvalidHash
	}
	salt, saltErr := b64.DecodeString(fields[4])
	key, keyErr := b64.DecodeString(fields[5])
	if saltErr != nil || keyErr != nil || len(key) == 0 || cost.threads == 0 {
		return argonCost{}, nil, nil, ErrInvalidHash
	}
	return cost, salt, key, nil
}

// ValidatePassword applies the staff password policy: bounded length with at
// least one letter and one digit.
func ValidatePassword(password string) error {
	if n := len(password); n < MinPasswordLength || n > MaxPasswordLength {
		return ErrWeakPassword
	}
	if !strings.ContainsFunc(password, unicode.IsDigit) || !strings.ContainsFunc(password, isASCIILetter) {
		return ErrWeakPassword
	}
	return nil
}

func isASCIILetter(r rune) bool {
	return r < unicode.MaxASCII && unicode.IsLetter(r)
}
