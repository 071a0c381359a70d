package security

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/amirhosseinghanipour/orgauth/internal/application/ports"
)

// OpaqueTokenBytes is the raw entropy of generated tokens (256 bits).
const OpaqueTokenBytes = 32

// RandomTokenGenerator implements ports.TokenGenerator with crypto/rand, hex encoded.
type RandomTokenGenerator struct{}

func NewRandomTokenGenerator() RandomTokenGenerator { return RandomTokenGenerator{} }

func (RandomTokenGenerator) NewOpaqueToken() (string, error) {
	b := make([]byte, OpaqueTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

var _ ports.TokenGenerator = RandomTokenGenerator{}
