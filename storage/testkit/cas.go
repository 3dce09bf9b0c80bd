// Package testkit holds the storage.CAS conformance suite shared by backends.
package testkit

import (
	"context"
	"sync"
	"testing"

	"github.com/ipfs/go-cid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xdao.co/weave/cidutil"
	"xdao.co/weave/storage"
)

// NewCAS constructs a fresh, empty store for one subtest. Stores must not be
// shared between subtests.
type NewCAS func(t *testing.T) storage.CAS

// RunCASConformance checks the storage.CAS contract against newCAS.
func RunCASConformance(t *testing.T, newCAS NewCAS) {
	t.Helper()
	ctx := context.Background()

	t.Run("PutGetRoundTrip", func(t *testing.T) {
		cas := newCAS(t)
		want := []byte("hello, weave storage")

		id, err := cas.Put(ctx, want)
		require.NoError(t, err)
		wantID, err := cidutil.Sum(want)
		require.NoError(t, err)
		assert.True(t, id.Equals(wantID), "Put CID mismatch: got %s want %s", id, wantID)

		got, err := cas.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("EmptyObject", func(t *testing.T) {
		cas := newCAS(t)
		id, err := cas.Put(ctx, []byte{})
		require.NoError(t, err)
		got, err := cas.Get(ctx, id)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("PutIdempotent", func(t *testing.T) {
		cas := newCAS(t)
		b := []byte("same bytes")

		id1, err := cas.Put(ctx, b)
		require.NoError(t, err)
		id2, err := cas.Put(ctx, b)
		require.NoError(t, err)
		assert.True(t, id1.Equals(id2))
	})

	t.Run("ConcurrentPut", func(t *testing.T) {
		cas := newCAS(t)
		b := []byte("raced bytes")
		var wg sync.WaitGroup
		errc := make(chan error, 4)
		for i := 0; i < 4; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := cas.Put(ctx, b)
				errc <- err
			}()
		}
		wg.Wait()
		close(errc)
		for err := range errc {
			assert.NoError(t, err)
		}
	})

	t.Run("HasAndNotFound", func(t *testing.T) {
		cas := newCAS(t)
		b := []byte("missing")
		id, err := cidutil.Sum(b)
		require.NoError(t, err)

		ok, err := cas.Has(ctx, id)
		require.NoError(t, err)
		assert.False(t, ok)

		_, err = cas.Get(ctx, id)
		assert.True(t, storage.IsNotFound(err), "Get missing: got err=%v want ErrNotFound", err)

		_, err = cas.Put(ctx, b)
		require.NoError(t, err)
		ok, err = cas.Has(ctx, id)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("RejectUndefCID", func(t *testing.T) {
		cas := newCAS(t)
		ok, _ := cas.Has(ctx, cid.Undef)
		assert.False(t, ok)
		_, err := cas.Get(ctx, cid.Undef)
		assert.Error(t, err)
	})
}
