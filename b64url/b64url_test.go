package b64url

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xdao.co/weave/errs"
)

func TestRoundTrip_Bytes(t *testing.T) {
	inputs := [][]byte{
		nil,
		{0x00},
		{0xfb, 0xff},
		{0xfb, 0xff, 0xbf},
		[]byte("hello, weave"),
	}
	all := make([]byte, 256)
	for i := range all {
		all[i] = byte(i)
	}
	inputs = append(inputs, all)

	for _, in := range inputs {
		s := Encode(in)
		assert.NotContains(t, s, "=")
		assert.NotContains(t, s, "+")
		assert.NotContains(t, s, "/")

		out, err := Decode(s)
		require.NoError(t, err)
		assert.True(t, bytes.Equal(in, out), "round trip mismatch for %x", in)
	}
}

func TestRoundTrip_Text(t *testing.T) {
	for _, s := range []string{"", "AA", "-_8", "aGVsbG8", "1l2r5Zah7Av_k_P66PGhBbjCLKVJfhqdqrGIenxsEJE"} {
		b, err := Decode(s)
		require.NoError(t, err, s)
		assert.Equal(t, s, Encode(b))
	}
}

func TestDecode_Rejects(t *testing.T) {
	cases := map[string]string{
		"padding":        "aGVsbG8=",
		"std alphabet +": "a+b",
		"std alphabet /": "a/b",
		"bad length":     "A",
		"non-canonical":  "AB",
		"junk":           "!!!!",
	}
	for name, s := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(s)
			require.Error(t, err)
			assert.True(t, errs.IsDecode(err), "expected decode error, got %v", err)
			assert.True(t, errs.IsKind(err, errs.KindInput))
		})
	}
}

func TestBase64_JSON(t *testing.T) {
	v := Base64{0xde, 0xad, 0xbe, 0xef}
	b, err := json.Marshal(v)
	require.NoError(t, err)
	assert.Equal(t, `"3q2-7w"`, string(b))

	var got Base64
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, v, got)

	err = json.Unmarshal([]byte(`"3q2+7w=="`), &got)
	assert.True(t, errs.IsDecode(err))

	err = json.Unmarshal([]byte(`42`), &got)
	assert.True(t, errs.IsDecode(err))
}

func TestBase64_Multibase(t *testing.T) {
	v := Base64("hello")
	s := v.Multibase()
	assert.Equal(t, "u"+v.String(), s)

	got, err := ParseMultibase(s)
	require.NoError(t, err)
	assert.Equal(t, v, got)

	_, err = ParseMultibase("z" + v.String())
	assert.True(t, errs.IsDecode(err))
	_, err = ParseMultibase("")
	assert.True(t, errs.IsDecode(err))
}

func TestParseMultibase_AsStrictAsDecode(t *testing.T) {
	got, err := ParseMultibase("uAA")
	require.NoError(t, err)
	assert.Equal(t, Base64{0x00}, got)

	// "AB" carries non-zero bits past the last whole byte.
	_, err = Decode("AB")
	assert.True(t, errs.IsDecode(err))
	_, err = ParseMultibase("uAB")
	assert.True(t, errs.IsDecode(err))

	_, err = ParseMultibase("uAA==")
	assert.True(t, errs.IsDecode(err))
}
