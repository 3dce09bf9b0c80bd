// Package keys loads wallet keyfiles and signs with them.
//
// A wallet is an RSA keypair stored as a JWK document. The owner (public key) on
// the ledger is the big-endian modulus; the wallet address is SHA-256 of the owner.
//
// Stable:
//   - Verify, AddressFromOwner, PublicKeyFromOwner and SignatureID are pure and
//     need no private key material.
//   - Signer is immutable after construction and safe for concurrent use.
package keys
