package apsig

import (
	"crypto"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/rsa"
	"fmt"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jws"
)

// Padding is the RSA signature padding used by an algorithm.
type Padding int

const (
	// PaddingNone is used by algorithms that are not RSA based.
	PaddingNone Padding = iota
	// PaddingPKCS1v15 is RSASSA-PKCS1-v1_5 padding.
	PaddingPKCS1v15
)

type keyType int

const (
	keyTypeRSA keyType = iota + 1
	keyTypeEd25519
)

// rsaKeyBits is the size of keys generated for rsa-sha256.
const rsaKeyBits = 4096

// Algorithm is a signature algorithm that can appear in the algorithm field of a signature header.
// The zero value is not usable; use RsaSha256, Hs2019 or AlgorithmByName.
type Algorithm struct {
	name    string
	jwsAlg  jwa.SignatureAlgorithm
	digest  crypto.Hash
	padding Padding
	keyType keyType
}

var (
	// RsaSha256 is RSASSA-PKCS1-v1_5 over a SHA-256 digest.
	RsaSha256 = Algorithm{
		name:    "rsa-sha256",
		jwsAlg:  jwa.RS256,
		digest:  crypto.SHA256,
		padding: PaddingPKCS1v15,
		keyType: keyTypeRSA,
	}

	// Hs2019 is Ed25519. The digest is part of EdDSA and is not selected separately.
	Hs2019 = Algorithm{
		name:    "hs2019",
		jwsAlg:  jwa.EdDSA,
		padding: PaddingNone,
		keyType: keyTypeEd25519,
	}
)

var algorithms = []Algorithm{RsaSha256, Hs2019}

// Algorithms returns all supported algorithms.
func Algorithms() []Algorithm {
	return append([]Algorithm(nil), algorithms...)
}

// AlgorithmByName looks up an algorithm by the name used in the algorithm field.
// It returns an *UnknownAlgorithmError if there is no such algorithm.
func AlgorithmByName(name string) (Algorithm, error) {
	for _, a := range algorithms {
		if a.name == name {
			return a, nil
		}
	}
	return Algorithm{}, &UnknownAlgorithmError{Name: name}
}

// Name returns the algorithm name as it appears on the wire.
func (a Algorithm) Name() string {
	return a.name
}

func (a Algorithm) String() string {
	return a.name
}

// Digest returns the hash applied to the signing string before signing, if the algorithm selects one.
func (a Algorithm) Digest() (crypto.Hash, bool) {
	return a.digest, a.digest != 0
}

// Padding returns the signature padding mode.
func (a Algorithm) Padding() Padding {
	return a.padding
}

// GenerateKeys creates a new key pair for the algorithm: 4096 bit RSA for rsa-sha256, Ed25519 for hs2019.
func (a Algorithm) GenerateKeys() (*PrivateKey, *PublicKey, error) {
	var priv crypto.Signer
	switch a.keyType {
	case keyTypeRSA:
		k, err := rsa.GenerateKey(rand.Reader, rsaKeyBits)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %w", ErrCryptoBackend, err)
		}
		priv = k
	case keyTypeEd25519:
		_, k, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %w", ErrCryptoBackend, err)
		}
		priv = k
	default:
		return nil, nil, &UnknownAlgorithmError{Name: a.name}
	}
	privateKey := &PrivateKey{key: priv}
	return privateKey, privateKey.Public(), nil
}

// Sign signs data with key, which must be of the algorithm's key type.
func (a Algorithm) Sign(key *PrivateKey, data []byte) ([]byte, error) {
	if key == nil || key.key == nil {
		return nil, fmt.Errorf("%w: nil private key", ErrInvalidKey)
	}
	if err := a.checkKey(key.key.Public()); err != nil {
		return nil, err
	}
	signer, err := jws.NewSigner(a.jwsAlg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCryptoBackend, err)
	}
	sig, err := signer.Sign(data, key.key)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCryptoBackend, err)
	}
	return sig, nil
}

// Verify reports whether sig is a valid signature of data under key. A signature that does not match
// is reported as false with a nil error; errors are reserved for unusable keys.
func (a Algorithm) Verify(key *PublicKey, data, sig []byte) (bool, error) {
	if key == nil || key.key == nil {
		return false, fmt.Errorf("%w: nil public key", ErrInvalidKey)
	}
	if err := a.checkKey(key.key); err != nil {
		return false, err
	}
	verifier, err := jws.NewVerifier(a.jwsAlg)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrCryptoBackend, err)
	}
	// the key type was checked above, so any remaining failure is a signature mismatch
	if err := verifier.Verify(data, sig, key.key); err != nil {
		return false, nil
	}
	return true, nil
}

func (a Algorithm) checkKey(pub crypto.PublicKey) error {
	var kt keyType
	switch pub.(type) {
	case *rsa.PublicKey:
		kt = keyTypeRSA
	case ed25519.PublicKey:
		kt = keyTypeEd25519
	}
	if a.keyType == 0 {
		return &UnknownAlgorithmError{Name: a.name}
	}
	if kt != a.keyType {
		return fmt.Errorf("%w: %T cannot be used with %s", ErrKeyAlgorithmMismatch, pub, a.name)
	}
	return nil
}
