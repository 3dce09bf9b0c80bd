package grpcstore

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"xdao.co/weave/storage"
	"xdao.co/weave/storage/registry"
)

const (
	OptionTarget      = "grpc-target"
	OptionTimeout     = "grpc-timeout"
	OptionMaxMsgBytes = "grpc-max-msg-bytes"
)

func init() {
	registry.MustRegister(registry.Backend{
		Name:        "grpc",
		Description: "gRPC store client (talks to weave-stored)",
		Usage:       registry.UsageCLI,
		Options: []registry.Option{
			{Name: OptionTarget, Usage: "gRPC target host:port"},
			{Name: OptionTimeout, Default: "0s", Usage: "Per-RPC timeout"},
			{Name: OptionMaxMsgBytes, Default: "0", Usage: "Max gRPC message size in bytes; 0 uses grpc defaults"},
		},
		Open: func(opts registry.Options) (storage.CAS, func() error, error) {
			target := strings.TrimSpace(opts[OptionTarget])
			if target == "" {
				return nil, nil, fmt.Errorf("missing --%s", OptionTarget)
			}
			timeout, err := time.ParseDuration(opts[OptionTimeout])
			if err != nil {
				return nil, nil, fmt.Errorf("--%s: %w", OptionTimeout, err)
			}
			maxMsg, err := strconv.Atoi(opts[OptionMaxMsgBytes])
			if err != nil {
				return nil, nil, fmt.Errorf("--%s: %w", OptionMaxMsgBytes, err)
			}
			client, err := Dial(target, DialOptions{Timeout: timeout, MaxMsgBytes: maxMsg})
			if err != nil {
				return nil, nil, err
			}
			return client, client.Close, nil
		},
	})
}
