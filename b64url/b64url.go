// Package b64url converts between raw bytes and the URL-safe, unpadded base64
// text form (RFC 4648 §5) used for every binary field on the ledger.
package b64url

import (
	"encoding/base64"
	"encoding/json"

	"github.com/multiformats/go-multibase"

	"xdao.co/weave/errs"
)

var enc = base64.RawURLEncoding.Strict()

// Encode returns the unpadded base64url text for b.
func Encode(b []byte) string {
	return enc.EncodeToString(b)
}

// Decode parses unpadded base64url text. Padding, the standard alphabet and
// non-canonical trailing bits are rejected.
func Decode(s string) ([]byte, error) {
	b, err := enc.DecodeString(s)
	if err != nil {
		return nil, errs.Wrap(errs.KindInput, errs.CodeDecode, "invalid base64url", err)
	}
	return b, nil
}

// Base64 holds raw bytes. The text form is derived on demand.
type Base64 []byte

// Parse decodes s into a Base64.
func Parse(s string) (Base64, error) {
	b, err := Decode(s)
	if err != nil {
		return nil, err
	}
	return Base64(b), nil
}

func (b Base64) String() string { return Encode(b) }

func (b Base64) Bytes() []byte { return []byte(b) }

// Multibase returns the self-describing form: "u" followed by base64url.
func (b Base64) Multibase() string {
	s, err := multibase.Encode(multibase.Base64url, b)
	if err != nil {
		// Base64url is always a known encoding.
		return "u" + Encode(b)
	}
	return s
}

// ParseMultibase decodes a multibase string. Only the base64url encoding is accepted.
func ParseMultibase(s string) (Base64, error) {
	if s == "" || s[0] != byte(multibase.Base64url) {
		return nil, errs.New(errs.KindInput, errs.CodeDecode, "expected base64url multibase prefix 'u'")
	}
	// multibase.Decode tolerates non-zero trailing bits; Decode does not.
	return Parse(s[1:])
}

func (b Base64) MarshalJSON() ([]byte, error) {
	return json.Marshal(Encode(b))
}

func (b *Base64) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return errs.Wrap(errs.KindInput, errs.CodeDecode, "base64url value must be a JSON string", err)
	}
	v, err := Parse(s)
	if err != nil {
		return err
	}
	*b = v
	return nil
}
