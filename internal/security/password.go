package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

const (
	AlgorithmBcrypt   = "bcrypt"
	AlgorithmArgon2id = "argon2id"
)

const DefaultBcryptCost = 10

// ErrPasswordTooLong is returned for passwords bcrypt cannot represent (over 72 bytes).
var ErrPasswordTooLong = errors.New("password exceeds 72 bytes")

// PasswordHasher is a salted one-way transform with a verify operation.
type PasswordHasher interface {
	Hash(password string) (string, error)
	// Verify never fails on mismatch; a malformed hash is also a mismatch.
	Verify(password, encodedHash string) bool
}

type Argon2Params struct {
	Time    uint32
	Memory  uint32
	Threads uint8
	KeyLen  uint32
	SaltLen uint32
}

var defaultArgon2Params = Argon2Params{
	Time:    3,
	Memory:  64 * 1024,
	Threads: 2,
	KeyLen:  32,
	SaltLen: 16,
}

// Hasher hashes with one algorithm and verifies hashes produced by either, so
// records written before an algorithm switch keep working.
type Hasher struct {
	algorithm  string
	bcryptCost int
	argon2     Argon2Params
}

func NewHasher(algorithm string, bcryptCost int) (*Hasher, error) {
	switch algorithm {
	case AlgorithmBcrypt, AlgorithmArgon2id:
	default:
		return nil, fmt.Errorf("unsupported password algorithm %q", algorithm)
	}
	if bcryptCost == 0 {
		bcryptCost = DefaultBcryptCost
	}
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range", bcryptCost)
	}

	return &Hasher{
		algorithm:  algorithm,
		bcryptCost: bcryptCost,
		argon2:     defaultArgon2Params,
	}, nil
}

func (h *Hasher) Hash(password string) (string, error) {
	if h.algorithm == AlgorithmArgon2id {
		return hashArgon2id(password, h.argon2)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.bcryptCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", ErrPasswordTooLong
		}
		return "", fmt.Errorf("bcrypt: %w", err)
	}
	return string(hash), nil
}

func (h *Hasher) Verify(password, encodedHash string) bool {
	if strings.HasPrefix(encodedHash, "$argon2id$") {
		ok, err := verifyArgon2id(password, encodedHash)
		return err == nil && ok
	}
	return bcrypt.CompareHashAndPassword([]byte(encodedHash), []byte(password)) == nil
}

// NeedsUpgrade reports whether encodedHash was produced by a different algorithm.
func (h *Hasher) NeedsUpgrade(encodedHash string) bool {
	isArgon := strings.HasPrefix(encodedHash, "$argon2id$")
	return isArgon != (h.algorithm == AlgorithmArgon2id)
}

func hashArgon2id(password string, params Argon2Params) (string, error) {
	salt := make([]byte, params.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	hash := argon2.IDKey([]byte(password), salt, params.Time, params.Memory, params.Threads, params.KeyLen)

	// $argon2id$v=19$m=65536,t=3,p=2$<salt>$<hash>
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		params.Memory,
		params.Time,
		params.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

func verifyArgon2id(password, encodedHash string) (bool, error) {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return false, errors.New("invalid argon2id hash format")
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return false, fmt.Errorf("parse version: %w", err)
	}
	if version != argon2.Version {
		return false, fmt.Errorf("unsupported argon2 version %d", version)
	}

	var memory, time, threads uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return false, fmt.Errorf("parse params: %w", err)
	}
	if threads == 0 || threads > 255 {
		return false, fmt.Errorf("invalid threads %d", threads)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, fmt.Errorf("decode salt: %w", err)
	}

	expected, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false, fmt.Errorf("decode hash: %w", err)
	}
	if len(expected) == 0 || len(expected) > 1024 {
		return false, fmt.Errorf("invalid key length %d", len(expected))
	}

	computed := argon2.IDKey([]byte(password), salt, time, memory, uint8(threads), uint32(len(expected)))

	return subtle.ConstantTimeCompare(expected, computed) == 1, nil
}
