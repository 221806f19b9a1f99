package apsig

import (
	"crypto"
	"crypto/ed25519"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"

	"github.com/lestrrat-go/jwx/v2/jwk"
)

// Minimum RSA key size in bits.
const minRSAKeyBits = 2048

// PrivateKey is a signing key, either RSA or Ed25519. It is immutable and safe for concurrent use.
type PrivateKey struct {
	key crypto.Signer
}

// PublicKey is a verification key, either RSA or Ed25519. It is immutable and safe for concurrent use.
type PublicKey struct {
	key crypto.PublicKey
}

// NewPrivateKey wraps an *rsa.PrivateKey or an ed25519.PrivateKey.
func NewPrivateKey(key crypto.PrivateKey) (*PrivateKey, error) {
	switch k := key.(type) {
	case *rsa.PrivateKey:
		if k == nil {
			return nil, fmt.Errorf("%w: rsa private key must not be nil", ErrInvalidKey)
		}
		if k.N.BitLen() < minRSAKeyBits {
			return nil, fmt.Errorf("%w: rsa key must be at least %d bits", ErrInvalidKey, minRSAKeyBits)
		}
		return &PrivateKey{key: k}, nil
	case ed25519.PrivateKey:
		if len(k) != ed25519.PrivateKeySize {
			return nil, fmt.Errorf("%w: ed25519 private key must be %d bytes", ErrInvalidKey, ed25519.PrivateKeySize)
		}
		return &PrivateKey{key: k}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported private key type %T", ErrInvalidKey, key)
	}
}

// NewPublicKey wraps an *rsa.PublicKey or an ed25519.PublicKey.
func NewPublicKey(key crypto.PublicKey) (*PublicKey, error) {
	switch k := key.(type) {
	case *rsa.PublicKey:
		if k == nil {
			return nil, fmt.Errorf("%w: rsa public key must not be nil", ErrInvalidKey)
		}
		return &PublicKey{key: k}, nil
	case ed25519.PublicKey:
		if len(k) != ed25519.PublicKeySize {
			return nil, fmt.Errorf("%w: ed25519 public key must be %d bytes", ErrInvalidKey, ed25519.PublicKeySize)
		}
		return &PublicKey{key: k}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported public key type %T", ErrInvalidKey, key)
	}
}

// Public returns the public half of the key.
func (k *PrivateKey) Public() *PublicKey {
	if k == nil || k.key == nil {
		return &PublicKey{}
	}
	return &PublicKey{key: k.key.Public()}
}

// ParsePrivateKeyPEM decodes a PEM encoded PKCS #8 private key, or a PKCS #1 RSA private key.
func ParsePrivateKeyPEM(data []byte) (*PrivateKey, error) {
	raw, err := parseRawPEM(data)
	if err != nil {
		return nil, err
	}
	return NewPrivateKey(raw)
}

// ParsePublicKeyPEM decodes a PEM encoded PKIX public key.
func ParsePublicKeyPEM(data []byte) (*PublicKey, error) {
	raw, err := parseRawPEM(data)
	if err != nil {
		return nil, err
	}
	return NewPublicKey(raw)
}

func parseRawPEM(data []byte) (interface{}, error) {
	key, err := jwk.ParseKey(data, jwk.WithPEM(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidKey, err)
	}
	var raw interface{}
	if err := key.Raw(&raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidKey, err)
	}
	return raw, nil
}

// PEM encodes the key as PKCS #8.
func (k *PrivateKey) PEM() ([]byte, error) {
	der, err := x509.MarshalPKCS8PrivateKey(k.key)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCryptoBackend, err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}), nil
}

// PEM encodes the key as PKIX.
func (k *PublicKey) PEM() ([]byte, error) {
	der, err := x509.MarshalPKIXPublicKey(k.key)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCryptoBackend, err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}), nil
}
