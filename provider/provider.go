// Package provider composes hashing, signing and address derivation behind one
// facade. Hashing is always available; signing and identity accessors need a key.
package provider

import (
	"crypto/sha256"
	"reflect"

	logging "github.com/ipfs/go-log/v2"

	"xdao.co/weave/b64url"
	"xdao.co/weave/deephash"
	"xdao.co/weave/errs"
	"xdao.co/weave/keys"
)

var log = logging.Logger("weave/provider")

// Identity is the key-bound half of a Provider. It is either a *keys.Signer or
// the keyless identity, whose methods all fail with a NoKey error.
type Identity interface {
	Sign(message []byte) (b64url.Base64, error)
	PublicKey() (b64url.Base64, error)
	KeypairModulus() (b64url.Base64, error)
	WalletAddress() (b64url.Base64, error)
}

var _ Identity = (*keys.Signer)(nil)

type keyless struct{}

func (keyless) Sign([]byte) (b64url.Base64, error)     { return nil, errs.NoKey() }
func (keyless) PublicKey() (b64url.Base64, error)      { return nil, errs.NoKey() }
func (keyless) KeypairModulus() (b64url.Base64, error) { return nil, errs.NoKey() }
func (keyless) WalletAddress() (b64url.Base64, error)  { return nil, errs.NoKey() }

// Keyless is the identity of a Provider without a key.
var Keyless Identity = keyless{}

// Provider is immutable and safe for concurrent use.
type Provider struct {
	id Identity
}

// New returns a Provider bound to id. A nil id, a typed nil pointer (such as
// (*keys.Signer)(nil)) and an identity whose PublicKey reports NoKey are all
// treated as Keyless.
func New(id Identity) *Provider {
	if isNil(id) {
		return &Provider{id: Keyless}
	}
	if _, err := id.PublicKey(); errs.IsNoKey(err) {
		return &Provider{id: Keyless}
	}
	return &Provider{id: id}
}

func isNil(id Identity) bool {
	if id == nil {
		return true
	}
	v := reflect.ValueOf(id)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Interface, reflect.Chan:
		return v.IsNil()
	}
	return false
}

// NewKeyless returns a Provider that can hash and verify but not sign.
func NewKeyless() *Provider {
	return New(Keyless)
}

// WithSigner returns a Provider bound to s.
func WithSigner(s *keys.Signer) *Provider {
	return New(s)
}

// FromKeyfile loads the JWK keyfile at path and returns a key-bound Provider.
func FromKeyfile(path string) (*Provider, error) {
	s, err := keys.FromKeyfile(path)
	if err != nil {
		return nil, err
	}
	addr, _ := s.WalletAddress()
	log.Infow("provider ready", "address", addr.String())
	return WithSigner(s), nil
}

// HasKey reports whether key-bound operations are available.
func (p *Provider) HasKey() bool {
	_, ok := p.identity().(keyless)
	return !ok
}

// identity returns Keyless for a nil or zero Provider.
func (p *Provider) identity() Identity {
	if p == nil || p.id == nil {
		return Keyless
	}
	return p.id
}

// DeepHash returns the deep hash of item.
func (p *Provider) DeepHash(item deephash.Item) deephash.Digest {
	return deephash.Hash(item)
}

// Hash returns SHA-256 of message.
func (p *Provider) Hash(message []byte) [sha256.Size]byte {
	return sha256.Sum256(message)
}

// Verify checks signature over message by owner publicKey. No key is required.
func (p *Provider) Verify(publicKey, message, signature []byte) error {
	return keys.Verify(publicKey, message, signature)
}

func (p *Provider) Sign(message []byte) (b64url.Base64, error) {
	return p.identity().Sign(message)
}

func (p *Provider) PublicKey() (b64url.Base64, error) {
	return p.identity().PublicKey()
}

func (p *Provider) KeypairModulus() (b64url.Base64, error) {
	return p.identity().KeypairModulus()
}

func (p *Provider) WalletAddress() (b64url.Base64, error) {
	return p.identity().WalletAddress()
}
