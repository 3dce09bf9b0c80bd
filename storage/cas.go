// Package storage defines the content-addressable store used to persist signed
// envelopes, plus composites over several stores.
package storage

import (
	"context"

	"github.com/ipfs/go-cid"
)

// CAS is a minimal content-addressable storage interface.
//
// Contract:
//   - Put is idempotent and returns the CID of the bytes written (see cidutil.Sum).
//   - Stored objects are immutable.
//   - Get verifies bytes against the requested CID and returns ErrNotFound when absent.
//   - Has reports presence without reading the object.
type CAS interface {
	Put(ctx context.Context, data []byte) (cid.Cid, error)
	Get(ctx context.Context, id cid.Cid) ([]byte, error)
	Has(ctx context.Context, id cid.Cid) (bool, error)
}
