package keys

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"errors"

	logging "github.com/ipfs/go-log/v2"

	"xdao.co/weave/b64url"
	"xdao.co/weave/errs"
)

var log = logging.Logger("weave/keys")

// SaltLength is the RSA-PSS salt length used when signing (the SHA-256 size).
const SaltLength = sha256.Size

// Signer holds one wallet keypair.
type Signer struct {
	priv    *rsa.PrivateKey
	owner   []byte
	address []byte
}

// FromKeyfile loads the JWK keyfile at path and returns a Signer for it.
func FromKeyfile(path string) (*Signer, error) {
	priv, err := LoadKeyfile(path)
	if err != nil {
		return nil, err
	}
	s, err := New(priv)
	if err != nil {
		return nil, errs.KeyLoad(errs.CodeKeyInvalid, path, "inconsistent key material", err)
	}
	log.Debugw("loaded keyfile", "path", path, "address", b64url.Encode(s.address), "bits", priv.N.BitLen())
	return s, nil
}

// New returns a Signer for priv. The key is validated; priv must not be modified afterwards.
func New(priv *rsa.PrivateKey) (*Signer, error) {
	if priv == nil {
		return nil, errors.New("keys: nil private key")
	}
	if err := checkPrivateKey(priv); err != nil {
		return nil, err
	}
	owner := priv.N.Bytes()
	addr := sha256.Sum256(owner)
	return &Signer{priv: priv, owner: owner, address: addr[:]}, nil
}

// Sign returns an RSA-PSS (SHA-256, 32-byte salt) signature over message.
// A nil or zero Signer fails with a NoKey error.
func (s *Signer) Sign(message []byte) (b64url.Base64, error) {
	if !s.usable() {
		return nil, errs.NoKey()
	}
	digest := sha256.Sum256(message)
	sig, err := rsa.SignPSS(rand.Reader, s.priv, crypto.SHA256, digest[:], &rsa.PSSOptions{SaltLength: SaltLength})
	if err != nil {
		return nil, errs.Wrap(errs.KindCrypto, errs.CodeSign, "sign", err)
	}
	return b64url.Base64(sig), nil
}

// PublicKey returns the owner: the big-endian modulus.
func (s *Signer) PublicKey() (b64url.Base64, error) {
	if !s.usable() {
		return nil, errs.NoKey()
	}
	return clone(s.owner), nil
}

// KeypairModulus returns the same bytes as PublicKey.
func (s *Signer) KeypairModulus() (b64url.Base64, error) {
	if !s.usable() {
		return nil, errs.NoKey()
	}
	return clone(s.owner), nil
}

// WalletAddress returns SHA-256 of the owner.
func (s *Signer) WalletAddress() (b64url.Base64, error) {
	if !s.usable() {
		return nil, errs.NoKey()
	}
	return clone(s.address), nil
}

// usable reports whether s was built by New.
func (s *Signer) usable() bool {
	return s != nil && s.priv != nil
}

func clone(b []byte) b64url.Base64 {
	return append(b64url.Base64(nil), b...)
}
