package provider

import (
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xdao.co/weave/deephash"
	"xdao.co/weave/errs"
	"xdao.co/weave/keys"
)

const testWallet = "../keys/testdata/test_wallet.json"

func TestKeyless_KeyBoundOperationsFail(t *testing.T) {
	for name, p := range map[string]*Provider{
		"NewKeyless": NewKeyless(),
		"New(nil)":   New(nil),
		"WithSigner": WithSigner(nil),
		"typed nil":  New((*keys.Signer)(nil)),
		"zero":       New(&keys.Signer{}),
		"zero value": {},
		"nil":        nil,
	} {
		t.Run(name, func(t *testing.T) {
			assert.False(t, p.HasKey())

			_, err := p.Sign([]byte("msg"))
			assert.True(t, errs.IsNoKey(err))
			assert.True(t, errs.IsKind(err, errs.KindConfiguration))

			_, err = p.PublicKey()
			assert.True(t, errs.IsNoKey(err))
			_, err = p.KeypairModulus()
			assert.True(t, errs.IsNoKey(err))
			_, err = p.WalletAddress()
			assert.True(t, errs.IsNoKey(err))
		})
	}
}

func TestKeyless_HashingWorks(t *testing.T) {
	p := NewKeyless()
	item := deephash.Strings("a", "b")
	assert.Equal(t, deephash.Hash(item), p.DeepHash(item))
	assert.Equal(t, sha256.Sum256([]byte("msg")), p.Hash([]byte("msg")))
}

func TestWithKey_MatchesSigner(t *testing.T) {
	s, err := keys.FromKeyfile(testWallet)
	require.NoError(t, err)
	p := WithSigner(s)
	require.True(t, p.HasKey())

	wantPub, err := s.PublicKey()
	require.NoError(t, err)
	gotPub, err := p.PublicKey()
	require.NoError(t, err)
	assert.Equal(t, wantPub, gotPub)

	wantMod, err := s.KeypairModulus()
	require.NoError(t, err)
	gotMod, err := p.KeypairModulus()
	require.NoError(t, err)
	assert.Equal(t, wantMod, gotMod)

	wantAddr, err := s.WalletAddress()
	require.NoError(t, err)
	gotAddr, err := p.WalletAddress()
	require.NoError(t, err)
	assert.Equal(t, wantAddr, gotAddr)
}

func TestSignVerify_EndToEnd(t *testing.T) {
	p, err := FromKeyfile(testWallet)
	require.NoError(t, err)

	item := deephash.List{
		deephash.Blob("2"),
		deephash.Blob("owner"),
		deephash.List{deephash.Strings("Content-Type", "text/plain")},
	}
	digest := p.DeepHash(item)
	sig, err := p.Sign(digest[:])
	require.NoError(t, err)

	pub, err := p.PublicKey()
	require.NoError(t, err)

	// Verification needs no key.
	require.NoError(t, NewKeyless().Verify(pub, digest[:], sig))

	other := p.DeepHash(deephash.Blob("different"))
	assert.True(t, errs.IsVerify(NewKeyless().Verify(pub, other[:], sig)))
}

func TestFromKeyfile_Missing(t *testing.T) {
	_, err := FromKeyfile("testdata/does-not-exist.json")
	require.Error(t, err)
	assert.True(t, errs.IsKeyLoad(err))
}
