package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"fmt"
)

// rsaKeyBits is the RSA modulus size for the signing key pair.
const rsaKeyBits = 2048

// KeyPair holds the process signing key pair.
//
// It is generated once at startup, shared read-only between token issuance
// and validation, and never persisted or logged. Losing the pair on restart
// invalidates all outstanding tokens, which is acceptable given their short
// lifetime.
type KeyPair struct {
	Private *rsa.PrivateKey
	Public  *rsa.PublicKey
}

// GenerateKeyPair creates a new 2048-bit RSA key pair.
//
// Called exactly once at process start. A failure here is fatal: without key
// material neither login nor request validation can work.
//
// Returns:
//   - *KeyPair: Freshly generated pair
//   - error: Wrapping ErrKeyGeneration if the crypto source fails
func GenerateKeyPair() (*KeyPair, error) {
	private, err := rsa.GenerateKey(rand.Reader, rsaKeyBits)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrKeyGeneration, err)
	}

	return &KeyPair{
		Private: private,
		Public:  &private.PublicKey,
	}, nil
}
