// Package envelope seals deep-hash digests with a wallet signature and keeps
// the result in a content-addressable store.
//
// An Envelope proves that the owner signed the digest of some item tree. It
// does not carry the tree itself; VerifyItem checks a candidate tree against it.
package envelope

import (
	"bytes"
	"encoding/json"
	"fmt"

	logging "github.com/ipfs/go-log/v2"

	"xdao.co/weave/b64url"
	"xdao.co/weave/deephash"
	"xdao.co/weave/errs"
	"xdao.co/weave/keys"
	"xdao.co/weave/provider"
)

var log = logging.Logger("weave/envelope")

// Format is the envelope schema version written by Seal.
const Format = 1

// Envelope is a signed deep-hash digest. Field order is the canonical JSON order.
type Envelope struct {
	Format    int           `json:"format"`
	ID        b64url.Base64 `json:"id"`
	Owner     b64url.Base64 `json:"owner"`
	Digest    b64url.Base64 `json:"digest"`
	Signature b64url.Base64 `json:"signature"`
}

// Seal deep-hashes item and signs the digest with p's key.
func Seal(p *provider.Provider, item deephash.Item) (*Envelope, error) {
	owner, err := p.PublicKey()
	if err != nil {
		return nil, err
	}
	digest := p.DeepHash(item)
	sig, err := p.Sign(digest[:])
	if err != nil {
		return nil, err
	}
	env := &Envelope{
		Format:    Format,
		ID:        keys.SignatureID(sig),
		Owner:     owner,
		Digest:    digest.Bytes(),
		Signature: sig,
	}
	log.Debugw("sealed", "id", env.ID.String(), "owner", env.Address().String())
	return env, nil
}

// Verify checks the envelope's shape, its ID and the owner's signature over Digest.
func (e *Envelope) Verify() error {
	if e == nil {
		return errs.New(errs.KindInput, errs.CodeEnvelope, "nil envelope")
	}
	if e.Format != Format {
		return errs.New(errs.KindInput, errs.CodeEnvelope, fmt.Sprintf("unsupported envelope format %d", e.Format))
	}
	if len(e.Digest) != deephash.Size {
		return errs.New(errs.KindInput, errs.CodeEnvelope, fmt.Sprintf("digest must be %d bytes, got %d", deephash.Size, len(e.Digest)))
	}
	if !bytes.Equal(e.ID, keys.SignatureID(e.Signature)) {
		return errs.New(errs.KindCrypto, errs.CodeEnvelopeMatch, "id does not match signature")
	}
	return keys.Verify(e.Owner, e.Digest, e.Signature)
}

// VerifyItem is Verify plus a check that item deep-hashes to Digest.
func (e *Envelope) VerifyItem(item deephash.Item) error {
	if err := e.Verify(); err != nil {
		return err
	}
	d := deephash.Hash(item)
	if !bytes.Equal(d[:], e.Digest) {
		return errs.New(errs.KindCrypto, errs.CodeEnvelopeMatch, "item does not match envelope digest")
	}
	return nil
}

// Address returns the owner's wallet address.
func (e *Envelope) Address() b64url.Base64 {
	return keys.AddressFromOwner(e.Owner)
}

// Marshal returns the canonical encoding: compact JSON in struct field order.
func (e *Envelope) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// Unmarshal decodes canonical envelope bytes. Unknown fields and non-canonical
// encodings are rejected so each envelope has exactly one byte form.
func Unmarshal(b []byte) (*Envelope, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	var e Envelope
	if err := dec.Decode(&e); err != nil {
		return nil, errs.Wrap(errs.KindInput, errs.CodeEnvelope, "invalid envelope JSON", err)
	}
	canon, err := e.Marshal()
	if err != nil {
		return nil, errs.Wrap(errs.KindInput, errs.CodeEnvelope, "re-encode envelope", err)
	}
	if !bytes.Equal(canon, b) {
		return nil, errs.New(errs.KindInput, errs.CodeEnvelope, "envelope is not canonically encoded")
	}
	return &e, nil
}
