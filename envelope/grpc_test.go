package envelope

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/test/bufconn"

	"xdao.co/weave/storage/grpcstore"
	"xdao.co/weave/storage/localfs"
)

func TestStore_OverGRPC(t *testing.T) {
	backend, err := localfs.New(t.TempDir())
	require.NoError(t, err)

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	grpcstore.RegisterStoreServer(srv, &grpcstore.Server{CAS: backend})
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	client, err := grpcstore.Dial("passthrough:///bufnet", grpcstore.DialOptions{
		Extra: []grpc.DialOption{grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		})},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	env, item := sealed(t)
	id, err := Store{CAS: client}.Put(ctx, env)
	require.NoError(t, err)

	ok, err := backend.Has(ctx, id)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := Store{CAS: client}.Get(ctx, id)
	require.NoError(t, err)
	assert.NoError(t, got.VerifyItem(item))
}
