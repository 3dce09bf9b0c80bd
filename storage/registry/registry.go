// Package registry lets binaries select a storage backend by name.
//
// Backends register themselves in init(); a binary enables one by importing the
// backend package (often as a blank import).
package registry

import (
	"flag"
	"fmt"
	"sort"
	"sync"

	"xdao.co/weave/storage"
)

// Usage restricts which programs accept a given backend.
type Usage uint8

const (
	// UsageCLI marks backends usable from short-lived CLI programs.
	UsageCLI Usage = 1 << iota
	// UsageDaemon marks backends usable from long-running daemons.
	UsageDaemon
)

func (u Usage) allows(want Usage) bool { return u&want != 0 }

// Option is a named string setting understood by a backend.
type Option struct {
	Name    string
	Default string
	Usage   string
}

// Options holds option values by name.
type Options map[string]string

// Backend opens a storage.CAS from Options.
type Backend struct {
	Name        string
	Description string
	Usage       Usage
	Options     []Option

	// Open returns the store and an optional close function.
	Open func(opts Options) (storage.CAS, func() error, error)
}

var (
	mu       sync.RWMutex
	backends = map[string]Backend{}
)

// Register registers a backend.
func Register(b Backend) error {
	if b.Name == "" {
		return fmt.Errorf("registry: backend name is required")
	}
	if b.Open == nil {
		return fmt.Errorf("registry: backend %q missing Open", b.Name)
	}
	if b.Usage == 0 {
		return fmt.Errorf("registry: backend %q missing Usage", b.Name)
	}

	mu.Lock()
	defer mu.Unlock()
	if _, exists := backends[b.Name]; exists {
		return fmt.Errorf("registry: backend %q already registered", b.Name)
	}
	backends[b.Name] = b
	return nil
}

// MustRegister is like Register but panics on error.
func MustRegister(b Backend) {
	if err := Register(b); err != nil {
		panic(err)
	}
}

// List returns backends matching usage, sorted by name.
func List(usage Usage) []Backend {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]Backend, 0, len(backends))
	for _, b := range backends {
		if b.Usage.allows(usage) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Names returns backend names matching usage, sorted.
func Names(usage Usage) []string {
	bs := List(usage)
	n := make([]string, 0, len(bs))
	for _, b := range bs {
		n = append(n, b.Name)
	}
	return n
}

// Flags registers a flag for every option of the backends matching usage.
// Values start from defaults (overridden by base, when present) and are filled
// in as fs parses.
func Flags(fs *flag.FlagSet, usage Usage, base Options) Options {
	opts := Options{}
	for _, b := range List(usage) {
		for _, o := range b.Options {
			if _, seen := opts[o.Name]; seen {
				continue
			}
			opts[o.Name] = o.Default
			if v, ok := base[o.Name]; ok && v != "" {
				opts[o.Name] = v
			}
			name := o.Name
			fs.Func(name, fmt.Sprintf("%s (for --backend=%s)", o.Usage, b.Name), func(v string) error {
				opts[name] = v
				return nil
			})
		}
	}
	return opts
}

// Open opens the named backend if it exists and matches usage.
func Open(name string, usage Usage, opts Options) (storage.CAS, func() error, error) {
	mu.RLock()
	b, ok := backends[name]
	mu.RUnlock()
	if !ok {
		return nil, nil, fmt.Errorf("registry: unknown backend %q", name)
	}
	if !b.Usage.allows(usage) {
		return nil, nil, fmt.Errorf("registry: backend %q not supported in this binary", name)
	}
	resolved := make(Options, len(b.Options))
	for _, o := range b.Options {
		resolved[o.Name] = o.Default
		if v, ok := opts[o.Name]; ok {
			resolved[o.Name] = v
		}
	}
	return b.Open(resolved)
}
