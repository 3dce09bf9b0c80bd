// Package deephash computes the ledger's canonical recursive digest over nested
// byte data. The 48-byte result is the signature pre-image for transactions and
// data items, so its bytes are a compatibility contract.
package deephash

import (
	"crypto/sha512"
	"fmt"
	"strconv"

	"github.com/multiformats/go-multihash"

	"xdao.co/weave/b64url"
)

// Size is the digest length in bytes.
const Size = sha512.Size384

// SHA2_384 is the multicodec code for sha2-384. go-multihash has no constant
// for it, but Encode and Decode accept any code.
const SHA2_384 = 0x20

// Digest is a deep-hash result.
type Digest [Size]byte

// Item is a node of a hashable tree: either a Blob or a List.
type Item interface {
	isItem()
}

// Blob is an opaque byte sequence.
type Blob []byte

// List is an ordered sequence of items.
type List []Item

func (Blob) isItem() {}
func (List) isItem() {}

// Blobs returns a List of Blob leaves.
func Blobs(parts ...[]byte) List {
	out := make(List, len(parts))
	for i, p := range parts {
		out[i] = Blob(p)
	}
	return out
}

// Strings returns a List of Blob leaves holding the UTF-8 bytes of each string.
func Strings(parts ...string) List {
	out := make(List, len(parts))
	for i, p := range parts {
		out[i] = Blob(p)
	}
	return out
}

// Hash returns the deep hash of item. A nil item hashes as an empty Blob, and
// *Blob and *List hash as the values they point to.
//
// Item is sealed; Hash panics on any other implementation, which can only come
// from a type embedding Blob or List.
func Hash(item Item) Digest {
	switch v := resolve(item).(type) {
	case List:
		return hashList(v)
	case Blob:
		return hashBlob(v)
	default:
		panic(fmt.Sprintf("deephash: unsupported item type %T", item))
	}
}

// resolve maps nil and pointer items to Blob or List values. Other types are
// returned unchanged.
func resolve(item Item) Item {
	switch v := item.(type) {
	case nil:
		return Blob(nil)
	case *Blob:
		if v == nil {
			return Blob(nil)
		}
		return *v
	case *List:
		if v == nil {
			return List(nil)
		}
		return *v
	default:
		return item
	}
}

func hashBlob(b Blob) Digest {
	tag := sha512.Sum384(tagFor("blob", len(b)))
	data := sha512.Sum384(b)
	return sha512.Sum384(concat(tag, data))
}

func hashList(l List) Digest {
	acc := Digest(sha512.Sum384(tagFor("list", len(l))))
	for _, child := range l {
		acc = sha512.Sum384(concat(acc, Hash(child)))
	}
	return acc
}

func tagFor(kind string, n int) []byte {
	return strconv.AppendInt([]byte(kind), int64(n), 10)
}

func concat(a, b Digest) []byte {
	var buf [2 * Size]byte
	copy(buf[:Size], a[:])
	copy(buf[Size:], b[:])
	return buf[:]
}

// DigestFromBytes copies b into a Digest. b must be exactly Size bytes.
func DigestFromBytes(b []byte) (Digest, error) {
	var d Digest
	if len(b) != Size {
		return d, fmt.Errorf("deephash: digest must be %d bytes, got %d", Size, len(b))
	}
	copy(d[:], b)
	return d, nil
}

func (d Digest) Bytes() []byte { return append([]byte(nil), d[:]...) }

func (d Digest) String() string { return b64url.Encode(d[:]) }

// Multihash wraps the digest as a sha2-384 multihash.
func (d Digest) Multihash() multihash.Multihash {
	// Encode only prefixes the code and length; it has no failure path for raw digests.
	mh, _ := multihash.Encode(d[:], SHA2_384)
	return multihash.Multihash(mh)
}
