package localfs

import (
	"fmt"

	"xdao.co/weave/storage"
	"xdao.co/weave/storage/registry"
)

// OptionDir names the root directory option.
const OptionDir = "localfs-dir"

func init() {
	registry.MustRegister(registry.Backend{
		Name:        "localfs",
		Description: "Local filesystem store (directory)",
		Usage:       registry.UsageCLI | registry.UsageDaemon,
		Options: []registry.Option{
			{Name: OptionDir, Usage: "Store directory"},
		},
		Open: func(opts registry.Options) (storage.CAS, func() error, error) {
			dir := opts[OptionDir]
			if dir == "" {
				return nil, nil, fmt.Errorf("missing --%s", OptionDir)
			}
			s, err := New(dir)
			if err != nil {
				return nil, nil, err
			}
			return s, nil, nil
		},
	})
}
