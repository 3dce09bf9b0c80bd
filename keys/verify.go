package keys

import (
	"crypto"
	"crypto/rsa"
	"crypto/sha256"
	"math/big"

	"xdao.co/weave/b64url"
	"xdao.co/weave/errs"
)

// PublicKeyFromOwner rebuilds an RSA public key from owner modulus bytes.
func PublicKeyFromOwner(owner []byte) (*rsa.PublicKey, error) {
	n := new(big.Int).SetBytes(owner)
	if n.BitLen() < MinModulusBits {
		return nil, errs.New(errs.KindInput, errs.CodeDecode, "owner is not a wallet modulus")
	}
	return &rsa.PublicKey{N: n, E: PublicExponent}, nil
}

// Verify checks an RSA-PSS (SHA-256) signature over message by the wallet whose
// owner is publicKey. It returns nil on success and a KindCrypto error otherwise;
// a malformed public key is reported the same way. Any salt length is accepted.
func Verify(publicKey, message, signature []byte) error {
	pub, err := PublicKeyFromOwner(publicKey)
	if err != nil {
		return errs.Wrap(errs.KindCrypto, errs.CodeVerify, "invalid public key", err)
	}
	digest := sha256.Sum256(message)
	opts := &rsa.PSSOptions{SaltLength: rsa.PSSSaltLengthAuto, Hash: crypto.SHA256}
	if err := rsa.VerifyPSS(pub, crypto.SHA256, digest[:], signature, opts); err != nil {
		return errs.Wrap(errs.KindCrypto, errs.CodeVerify, "signature invalid", err)
	}
	return nil
}

// AddressFromOwner derives the wallet address for an owner.
func AddressFromOwner(owner []byte) b64url.Base64 {
	sum := sha256.Sum256(owner)
	return sum[:]
}

// SignatureID returns SHA-256 of a signature, the identifier the ledger assigns
// to the signed object.
func SignatureID(signature []byte) b64url.Base64 {
	sum := sha256.Sum256(signature)
	return sum[:]
}
