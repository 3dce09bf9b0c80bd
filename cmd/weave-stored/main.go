package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"syscall"

	logging "github.com/ipfs/go-log/v2"
	"google.golang.org/grpc"

	"xdao.co/weave/config"
	"xdao.co/weave/storage/grpcstore"
	"xdao.co/weave/storage/registry"

	_ "xdao.co/weave/storage/localfs"
)

var log = logging.Logger("weave/stored")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, out io.Writer, errOut io.Writer) int {
	cfg, err := config.Load(os.Getenv("WEAVE_ENV_FILE"))
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 2
	}

	fs := flag.NewFlagSet("weave-stored", flag.ContinueOnError)
	fs.SetOutput(errOut)
	fs.StringVar(&cfg.Listen, "listen", cfg.Listen, "listen address")
	fs.StringVar(&cfg.Backend, "backend", cfg.Backend, "storage backend name")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")
	listBackends := fs.Bool("list-backends", false, "List supported backends and exit")
	opts := registry.Flags(fs, registry.UsageDaemon, cfg.StoreOptions())
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *listBackends {
		for _, b := range registry.List(registry.UsageDaemon) {
			if b.Description == "" {
				_, _ = fmt.Fprintf(out, "%s\n", b.Name)
				continue
			}
			_, _ = fmt.Fprintf(out, "%s\t%s\n", b.Name, b.Description)
		}
		return 0
	}
	if err := cfg.ApplyLogLevel(); err != nil {
		fmt.Fprintln(errOut, err)
		return 2
	}

	cas, closeFn, err := registry.Open(cfg.Backend, registry.UsageDaemon, opts)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 2
	}
	if closeFn != nil {
		defer closeFn()
	}

	lis, err := net.Listen("tcp", cfg.Listen)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}

	s := grpc.NewServer()
	grpcstore.RegisterStoreServer(s, &grpcstore.Server{CAS: cas})

	go func() {
		<-ctx.Done()
		log.Infow("shutting down")
		s.GracefulStop()
	}()

	log.Infow("listening", "addr", lis.Addr().String(), "backend", cfg.Backend)
	fmt.Fprintf(errOut, "weave-stored listening on %s (backend=%s)\n", lis.Addr().String(), cfg.Backend)
	if err := s.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		fmt.Fprintln(errOut, err)
		return 1
	}
	return 0
}
