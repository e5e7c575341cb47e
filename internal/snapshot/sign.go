package snapshot

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"

	"filippo.io/edwards25519"
)

// Signer signs cached records so a snapshot store shared across build
// machines can reject entries that were not produced by a trusted
// compiler instance (a supply-chain concern inherited from the IR cache's
// role as a build accelerator: a poisoned cache entry would otherwise let
// a compromised cache server inject arbitrary "already compiled" graphs).
type Signer struct {
	priv ed25519.PrivateKey
	pub  ed25519.PublicKey
}

// NewSigner generates a fresh signing key pair.
func NewSigner() (*Signer, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("snapshot: generate signing key: %w", err)
	}
	return &Signer{priv: priv, pub: pub}, nil
}

// PublicKey returns the verifying key other compiler instances need to
// trust this signer's cache entries.
func (s *Signer) PublicKey() ed25519.PublicKey { return s.pub }

// Sign signs (key || contentHash || dump), the same fields Fresh compares
// when deciding whether a cache entry can be reused.
func (s *Signer) Sign(key string, hash [32]byte, dump []byte) []byte {
	msg := signedMessage(key, hash, dump)
	return ed25519.Sign(s.priv, msg)
}

// Verify checks a record's signature against a trusted public key. It first
// decodes pub as an edwards25519 point and returns an error if that fails,
// then checks the signature with the standard library's ed25519.Verify; the
// signature's own point encoding is not inspected separately.
func Verify(pub ed25519.PublicKey, r *Record) (bool, error) {
	if _, err := new(edwards25519.Point).SetBytes(pub); err != nil {
		return false, fmt.Errorf("snapshot: public key is not a canonical edwards25519 point: %w", err)
	}
	msg := signedMessage(r.Key, r.ContentHash, r.Dump)
	return ed25519.Verify(pub, msg, r.Signature), nil
}

func signedMessage(key string, hash [32]byte, dump []byte) []byte {
	msg := make([]byte, 0, len(key)+len(hash)+len(dump))
	msg = append(msg, key...)
	msg = append(msg, hash[:]...)
	msg = append(msg, dump...)
	return msg
}
