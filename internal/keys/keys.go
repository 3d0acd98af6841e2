// Package keys implements C2: ECDSA P-256/SHA-256 signing and verification
// over a detached, base64-encoded, fixed-length (IEEE-P1363, r‖s) signature,
// and PEM import/export of the key pair. Neither key is persisted by this
// package; both are supplied by the caller (release tooling holds the
// private key, the client binary embeds the public key).
package keys

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"math/big"

	"github.com/minecanton209/patchy/internal/updateerr"
)

// sigLen is the length in bytes of a fixed-width P-256 IEEE-P1363 signature:
// 32 bytes for r, 32 bytes for s.
const sigLen = 64

const fieldLen = 32

// Generate creates a new P-256 key pair.
func Generate() (*ecdsa.PrivateKey, error) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, updateerr.Wrap(updateerr.Io, "", err)
	}
	return priv, nil
}

// Sign computes the SHA-256 digest of data and signs it with priv, returning
// a base64 standard encoding of the fixed-length r‖s signature.
func Sign(priv *ecdsa.PrivateKey, data []byte) (string, error) {
	digest := sha256.Sum256(data)

	r, s, err := ecdsa.Sign(rand.Reader, priv, digest[:])
	if err != nil {
		return "", updateerr.Wrap(updateerr.Io, "", err)
	}

	sig := make([]byte, sigLen)
	r.FillBytes(sig[:fieldLen])
	s.FillBytes(sig[fieldLen:])

	return base64.StdEncoding.EncodeToString(sig), nil
}

// Verify reports whether sigB64 is a valid P-256/SHA-256 signature by pub
// over data. It never panics on a malformed signature; it returns false.
func Verify(pub *ecdsa.PublicKey, data []byte, sigB64 string) bool {
	sig, err := base64.StdEncoding.DecodeString(sigB64)
	if err != nil || len(sig) != sigLen {
		return false
	}

	r := new(big.Int).SetBytes(sig[:fieldLen])
	s := new(big.Int).SetBytes(sig[fieldLen:])
	if r.Sign() == 0 || s.Sign() == 0 {
		return false
	}

	digest := sha256.Sum256(data)
	return ecdsa.Verify(pub, digest[:], r, s)
}

// ParsePrivateKeyPEM decodes a PEM-encoded PKCS#8 EC private key and
// validates that it is on the P-256 curve.
func ParsePrivateKeyPEM(pemBytes []byte) (*ecdsa.PrivateKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, updateerr.New(updateerr.UnsupportedKey, "no PEM block found")
	}

	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, updateerr.Wrap(updateerr.UnsupportedKey, "", err)
	}

	ecKey, ok := key.(*ecdsa.PrivateKey)
	if !ok {
		return nil, updateerr.Newf(updateerr.UnsupportedKey, "key is %T, not ECDSA", key)
	}
	if ecKey.Curve != elliptic.P256() {
		return nil, updateerr.Newf(updateerr.UnsupportedKey, "curve %s is not P-256", ecKey.Curve.Params().Name)
	}

	return ecKey, nil
}

// ParsePublicKeyPEM decodes a PEM-encoded PKIX EC public key and validates
// that it is on the P-256 curve.
func ParsePublicKeyPEM(pemBytes []byte) (*ecdsa.PublicKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, updateerr.New(updateerr.UnsupportedKey, "no PEM block found")
	}

	key, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, updateerr.Wrap(updateerr.UnsupportedKey, "", err)
	}

	ecKey, ok := key.(*ecdsa.PublicKey)
	if !ok {
		return nil, updateerr.Newf(updateerr.UnsupportedKey, "key is %T, not ECDSA", key)
	}
	if ecKey.Curve != elliptic.P256() {
		return nil, updateerr.Newf(updateerr.UnsupportedKey, "curve %s is not P-256", ecKey.Curve.Params().Name)
	}

	return ecKey, nil
}

// EncodePrivateKeyPEM marshals priv as a PEM-encoded PKCS#8 block.
func EncodePrivateKeyPEM(priv *ecdsa.PrivateKey) ([]byte, error) {
	der, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return nil, updateerr.Wrap(updateerr.Io, "", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}), nil
}

// EncodePublicKeyPEM marshals pub as a PEM-encoded PKIX block.
func EncodePublicKeyPEM(pub *ecdsa.PublicKey) ([]byte, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return nil, updateerr.Wrap(updateerr.Io, "", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}), nil
}
