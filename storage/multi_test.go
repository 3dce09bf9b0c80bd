package storage_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ipfs/go-cid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xdao.co/weave/cidutil"
	"xdao.co/weave/storage"
	"xdao.co/weave/storage/localfs"
	"xdao.co/weave/storage/testkit"
)

func newLocal(t *testing.T) *localfs.Store {
	t.Helper()
	s, err := localfs.New(t.TempDir())
	require.NoError(t, err)
	return s
}

func TestFallback_Conformance(t *testing.T) {
	testkit.RunCASConformance(t, func(t *testing.T) storage.CAS {
		return storage.Fallback{newLocal(t), newLocal(t)}
	})
}

func TestFallback_ReadsInOrderWritesFirst(t *testing.T) {
	ctx := context.Background()
	first, second := newLocal(t), newLocal(t)
	f := storage.Fallback{first, second}

	id, err := second.Put(ctx, []byte("only in second"))
	require.NoError(t, err)

	got, err := f.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []byte("only in second"), got)

	ok, err := f.Has(ctx, id)
	require.NoError(t, err)
	assert.True(t, ok)

	id2, err := f.Put(ctx, []byte("written via fallback"))
	require.NoError(t, err)
	ok, err = first.Has(ctx, id2)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = second.Has(ctx, id2)
	require.NoError(t, err)
	assert.False(t, ok)
}

type failingCAS struct{ storage.CAS }

var errBackend = errors.New("backend down")

func (failingCAS) Get(context.Context, cid.Cid) ([]byte, error) { return nil, errBackend }

func TestFallback_StopsOnHardError(t *testing.T) {
	ctx := context.Background()
	second := newLocal(t)
	id, err := second.Put(ctx, []byte("x"))
	require.NoError(t, err)

	_, err = storage.Fallback{failingCAS{}, second}.Get(ctx, id)
	assert.ErrorIs(t, err, errBackend)
}

func TestFallback_Empty(t *testing.T) {
	_, err := storage.Fallback{}.Put(context.Background(), []byte("x"))
	assert.ErrorIs(t, err, storage.ErrNoBackends)

	id, err := cidutil.Sum([]byte("x"))
	require.NoError(t, err)
	_, err = storage.Fallback{}.Get(context.Background(), id)
	assert.True(t, storage.IsNotFound(err))
}
