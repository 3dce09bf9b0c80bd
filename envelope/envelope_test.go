package envelope

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xdao.co/weave/deephash"
	"xdao.co/weave/errs"
	"xdao.co/weave/keys"
	"xdao.co/weave/provider"
	"xdao.co/weave/storage/localfs"
)

const (
	testWallet  = "../keys/testdata/test_wallet.json"
	otherWallet = "../keys/testdata/other_wallet.json"

	testAddress = "1l2r5Zah7Av_k_P66PGhBbjCLKVJfhqdqrGIenxsEJE"
)

func sealed(t *testing.T) (*Envelope, deephash.Item) {
	t.Helper()
	p, err := provider.FromKeyfile(testWallet)
	require.NoError(t, err)
	item := deephash.List{deephash.Blob("header"), deephash.Strings("tag-a", "tag-b"), deephash.Blob(nil)}
	env, err := Seal(p, item)
	require.NoError(t, err)
	return env, item
}

func TestSeal_VerifiesAndMatchesItem(t *testing.T) {
	env, item := sealed(t)

	assert.Equal(t, Format, env.Format)
	assert.Len(t, env.Digest, deephash.Size)
	d := deephash.Hash(item)
	assert.Equal(t, d[:], env.Digest.Bytes())
	assert.Equal(t, testAddress, env.Address().String())
	assert.Equal(t, keys.SignatureID(env.Signature), env.ID)

	require.NoError(t, env.Verify())
	require.NoError(t, env.VerifyItem(item))
}

func TestSeal_Keyless(t *testing.T) {
	_, err := Seal(provider.NewKeyless(), deephash.Blob("x"))
	assert.True(t, errs.IsNoKey(err))
}

func TestVerifyItem_RejectsOtherItem(t *testing.T) {
	env, _ := sealed(t)
	err := env.VerifyItem(deephash.Strings("header", "tag-a", "tag-b"))
	assert.Equal(t, errs.CodeEnvelopeMatch, errs.Code(err))
}

func TestVerify_Tampering(t *testing.T) {
	other, err := keys.FromKeyfile(otherWallet)
	require.NoError(t, err)
	otherOwner, err := other.PublicKey()
	require.NoError(t, err)

	cases := []struct {
		name   string
		mutate func(e *Envelope)
		code   string
	}{
		{"format", func(e *Envelope) { e.Format = 2 }, errs.CodeEnvelope},
		{"short digest", func(e *Envelope) { e.Digest = e.Digest[:32] }, errs.CodeEnvelope},
		{"digest bit", func(e *Envelope) { e.Digest[0] ^= 1 }, errs.CodeVerify},
		{"signature bit", func(e *Envelope) {
			e.Signature[10] ^= 0x80
			e.ID = keys.SignatureID(e.Signature)
		}, errs.CodeVerify},
		{"stale id", func(e *Envelope) { e.Signature[10] ^= 0x80 }, errs.CodeEnvelopeMatch},
		{"id", func(e *Envelope) { e.ID[0] ^= 1 }, errs.CodeEnvelopeMatch},
		{"owner", func(e *Envelope) { e.Owner = otherOwner }, errs.CodeVerify},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env, _ := sealed(t)
			tc.mutate(env)
			err := env.Verify()
			require.Error(t, err)
			assert.Equal(t, tc.code, errs.Code(err))
		})
	}

	var nilEnv *Envelope
	assert.Equal(t, errs.CodeEnvelope, errs.Code(nilEnv.Verify()))
}

func TestMarshal_Canonical(t *testing.T) {
	env, _ := sealed(t)
	b, err := env.Marshal()
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(b, []byte(`{"format":1,"id":"`)))

	got, err := Unmarshal(b)
	require.NoError(t, err)
	assert.Equal(t, env, got)
	require.NoError(t, got.Verify())
}

func TestUnmarshal_Rejects(t *testing.T) {
	env, _ := sealed(t)
	b, err := env.Marshal()
	require.NoError(t, err)

	cases := map[string][]byte{
		"not json":      []byte("envelope"),
		"indented":      append([]byte("{\n"), b[1:]...),
		"trailing":      append(append([]byte(nil), b...), ' '),
		"unknown field": append(append([]byte(nil), b[:len(b)-1]...), []byte(`,"extra":1}`)...),
		"padded base64": bytes.Replace(b, []byte(`","owner"`), []byte(`=","owner"`), 1),
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Unmarshal(in)
			require.Error(t, err)
			assert.True(t, errs.IsKind(err, errs.KindInput))
		})
	}
}

func TestStore_RoundTrip(t *testing.T) {
	cas, err := localfs.New(t.TempDir())
	require.NoError(t, err)
	st := Store{CAS: cas}
	ctx := context.Background()

	env, item := sealed(t)
	id, err := st.Put(ctx, env)
	require.NoError(t, err)

	again, err := st.Put(ctx, env)
	require.NoError(t, err)
	assert.True(t, id.Equals(again))

	got, err := st.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, env, got)
	assert.NoError(t, got.VerifyItem(item))
}

func TestStore_RefusesInvalid(t *testing.T) {
	cas, err := localfs.New(t.TempDir())
	require.NoError(t, err)
	st := Store{CAS: cas}
	ctx := context.Background()

	env, _ := sealed(t)
	env.Digest[5] ^= 1
	_, err = st.Put(ctx, env)
	assert.True(t, errs.IsVerify(err))

	// Bytes written around the Store are still verified on the way out.
	raw, err := env.Marshal()
	require.NoError(t, err)
	id, err := cas.Put(ctx, raw)
	require.NoError(t, err)
	_, err = st.Get(ctx, id)
	assert.True(t, errs.IsVerify(err))
}
