package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Argon2Params configurable for hashing.
type Argon2Params struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultArgon2Params returns OWASP-recommended defaults for Argon2id passwords.
func DefaultArgon2Params() Argon2Params {
	return Argon2Params{
		Memory:      64 * 1024, // 64 MiB
		Iterations:  3,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
	}
}

// TokenArgon2Params returns lighter parameters for hashing high-entropy opaque tokens,
// which are verified in bounded scans rather than once per request.
func TokenArgon2Params() Argon2Params {
	return Argon2Params{
		Memory:      19 * 1024, // 19 MiB
		Iterations:  2,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}
}

var errInvalidHash = errors.New("invalid argon2 hash format")

func (p Argon2Params) key(secret string, salt []byte) []byte {
	return argon2.IDKey([]byte(secret), salt, p.Iterations, p.Memory, p.Parallelism, p.KeyLength)
}

// Argon2Hasher implements ports.PasswordHasher with Argon2id PHC strings
// ($argon2id$v=19$m=...,t=...,p=...$salt$hash).
type Argon2Hasher struct {
	params Argon2Params
}

// NewArgon2Hasher fills zero fields from DefaultArgon2Params.
func NewArgon2Hasher(params Argon2Params) *Argon2Hasher {
	def := DefaultArgon2Params()
	fill := func(v *uint32, d uint32) {
		if *v == 0 {
			*v = d
		}
	}
	fill(&params.Memory, def.Memory)
	fill(&params.Iterations, def.Iterations)
	fill(&params.SaltLength, def.SaltLength)
	fill(&params.KeyLength, def.KeyLength)
	if params.Parallelism == 0 {
		params.Parallelism = def.Parallelism
	}
	return &Argon2Hasher{params: params}
}

func (h *Argon2Hasher) Hash(secret string) (string, error) {
	salt := make([]byte, h.params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	return encodeHash(h.params, salt, h.params.key(secret, salt)), nil
}

// Verify recomputes with the parameters embedded in encoded, so hashes made under older
// parameters keep verifying after a config change.
func (h *Argon2Hasher) Verify(secret, encoded string) bool {
	params, salt, want, err := decodeHash(encoded)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare(want, params.key(secret, salt)) == 1
}

func encodeHash(p Argon2Params, salt, key []byte) string {
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.Memory, p.Iterations, p.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key))
}

func decodeHash(encoded string) (Argon2Params, []byte, []byte, error) {
	var p Argon2Params
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return p, nil, nil, errInvalidHash
	}
	version, err := strconv.Atoi(strings.TrimPrefix(parts[2], "v="))
	if err != nil || version != argon2.Version {
		return p, nil, nil, fmt.Errorf("unsupported argon2 version %q", parts[2])
	}
	for _, kv := range strings.Split(parts[3], ",") {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			return p, nil, nil, errInvalidHash
		}
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil || n == 0 {
			return p, nil, nil, errInvalidHash
		}
		switch k {
		case "m":
			p.Memory = uint32(n)
		case "t":
			p.Iterations = uint32(n)
		case "p":
			if n > 255 {
				return p, nil, nil, errInvalidHash
			}
			p.Parallelism = uint8(n)
		default:
			return p, nil, nil, errInvalidHash
		}
	}
	if p.Memory == 0 || p.Iterations == 0 || p.Parallelism == 0 {
		return p, nil, nil, errInvalidHash
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return p, nil, nil, errInvalidHash
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return p, nil, nil, errInvalidHash
	}
	p.SaltLength = uint32(len(salt))
	p.KeyLength = uint32(len(key))
	return p, salt, key, nil
}
