package keys

import (
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/go-jose/go-jose/v4"

	"xdao.co/weave/errs"
)

// PublicExponent is the only RSA public exponent wallets use. Owners carry the
// modulus alone, so any other exponent could not be reconstructed by verifiers.
const PublicExponent = 65537

// MinModulusBits is the smallest accepted key size.
const MinModulusBits = 2048

const maxKeyfileBytes = 1 << 20

// keyfileHeader holds the fields checked before full JWK parsing.
type keyfileHeader struct {
	Kty string `json:"kty"`
	D   string `json:"d"`
}

// LoadKeyfile reads and validates the JWK keyfile at path.
//
// The file is opened, read in full and closed before parsing. Every failure is
// an errs KindInput error carrying path.
func LoadKeyfile(path string) (*rsa.PrivateKey, error) {
	raw, err := readKeyfile(path)
	if err != nil {
		return nil, errs.KeyLoad(errs.CodeKeyRead, path, "read keyfile", err)
	}
	return ParseKeyfile(path, raw)
}

func readKeyfile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	b, err := io.ReadAll(io.LimitReader(f, maxKeyfileBytes+1))
	if err != nil {
		return nil, err
	}
	if len(b) > maxKeyfileBytes {
		return nil, fmt.Errorf("keyfile larger than %d bytes", maxKeyfileBytes)
	}
	return b, nil
}

// ParseKeyfile parses JWK bytes. path is used only for error reporting.
func ParseKeyfile(path string, raw []byte) (*rsa.PrivateKey, error) {
	var hdr keyfileHeader
	if err := json.Unmarshal(raw, &hdr); err != nil {
		return nil, errs.KeyLoad(errs.CodeKeyParse, path, "keyfile is not a JSON object", err)
	}
	if hdr.Kty != "RSA" {
		return nil, errs.KeyLoad(errs.CodeKeyType, path, fmt.Sprintf("unsupported key type %q", hdr.Kty), nil)
	}
	if hdr.D == "" {
		return nil, errs.KeyLoad(errs.CodeKeyType, path, "keyfile holds no private key", nil)
	}

	var jwk jose.JSONWebKey
	if err := jwk.UnmarshalJSON(raw); err != nil {
		return nil, errs.KeyLoad(errs.CodeKeyParse, path, "invalid JWK", err)
	}
	priv, ok := jwk.Key.(*rsa.PrivateKey)
	if !ok {
		return nil, errs.KeyLoad(errs.CodeKeyType, path, fmt.Sprintf("expected RSA private key, got %T", jwk.Key), nil)
	}
	if err := checkPrivateKey(priv); err != nil {
		return nil, errs.KeyLoad(errs.CodeKeyInvalid, path, "inconsistent key material", err)
	}
	return priv, nil
}

func checkPrivateKey(priv *rsa.PrivateKey) error {
	if priv.E != PublicExponent {
		return fmt.Errorf("public exponent %d, want %d", priv.E, PublicExponent)
	}
	if bits := priv.N.BitLen(); bits < MinModulusBits {
		return fmt.Errorf("modulus is %d bits, want at least %d", bits, MinModulusBits)
	}
	if err := priv.Validate(); err != nil {
		return err
	}
	priv.Precompute()
	return nil
}
