package envelope

import (
	"context"

	"github.com/ipfs/go-cid"

	"xdao.co/weave/storage"
)

// Store keeps envelopes in a CAS. Only envelopes that verify are written, and
// every envelope read back is verified before it is returned.
type Store struct {
	CAS storage.CAS
}

func (s Store) Put(ctx context.Context, e *Envelope) (cid.Cid, error) {
	if err := e.Verify(); err != nil {
		return cid.Undef, err
	}
	b, err := e.Marshal()
	if err != nil {
		return cid.Undef, err
	}
	id, err := s.CAS.Put(ctx, b)
	if err != nil {
		return cid.Undef, err
	}
	log.Infow("stored envelope", "cid", id.String(), "id", e.ID.String())
	return id, nil
}

func (s Store) Get(ctx context.Context, id cid.Cid) (*Envelope, error) {
	b, err := s.CAS.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	e, err := Unmarshal(b)
	if err != nil {
		return nil, err
	}
	if err := e.Verify(); err != nil {
		return nil, err
	}
	return e, nil
}
