package storage

import (
	"context"

	"github.com/ipfs/go-cid"
)

// Fallback reads from its stores in slice order and writes to the first.
//
// Callers supply a fixed order; reads stop at the first store that has the object.
// Errors other than ErrNotFound abort the lookup.
type Fallback []CAS

var _ CAS = Fallback(nil)

func (f Fallback) Put(ctx context.Context, data []byte) (cid.Cid, error) {
	if len(f) == 0 {
		return cid.Undef, ErrNoBackends
	}
	return f[0].Put(ctx, data)
}

func (f Fallback) Get(ctx context.Context, id cid.Cid) ([]byte, error) {
	for _, s := range f {
		b, err := s.Get(ctx, id)
		if err == nil {
			return b, nil
		}
		if !IsNotFound(err) {
			return nil, err
		}
	}
	return nil, ErrNotFound
}

func (f Fallback) Has(ctx context.Context, id cid.Cid) (bool, error) {
	for _, s := range f {
		ok, err := s.Has(ctx, id)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}
