// Package cidutil derives and checks the content identifiers used by weave stores.
package cidutil

import (
	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

// Prefix is the CID shape for stored objects: CIDv1, raw codec, sha2-256.
var Prefix = cid.Prefix{
	Version:  1,
	Codec:    cid.Raw,
	MhType:   multihash.SHA2_256,
	MhLength: -1,
}

// Sum returns the CIDv1 (raw + sha2-256) of data.
func Sum(data []byte) (cid.Cid, error) {
	return Prefix.Sum(data)
}

// String is like Sum but returns the CID's string form, or "" on failure.
func String(data []byte) string {
	id, err := Sum(data)
	if err != nil {
		return ""
	}
	return id.String()
}

// Supported reports whether id has the raw + sha2-256 shape produced by Sum.
func Supported(id cid.Cid) bool {
	if !id.Defined() {
		return false
	}
	p := id.Prefix()
	return p.Version == 1 && p.Codec == cid.Raw && p.MhType == multihash.SHA2_256
}

// Matches reports whether data hashes to id.
func Matches(id cid.Cid, data []byte) bool {
	if !Supported(id) {
		return false
	}
	got, err := Sum(data)
	if err != nil {
		return false
	}
	return got.Equals(id)
}
