package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ipfs/go-cid"
	logging "github.com/ipfs/go-log/v2"

	"xdao.co/weave/b64url"
	"xdao.co/weave/config"
	"xdao.co/weave/deephash"
	"xdao.co/weave/envelope"
	"xdao.co/weave/keys"
	"xdao.co/weave/provider"
	"xdao.co/weave/storage"
	"xdao.co/weave/storage/registry"

	_ "xdao.co/weave/storage/grpcstore"
	_ "xdao.co/weave/storage/localfs"
)

var log = logging.Logger("weave/cli")

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		printUsage(errOut)
		return 2
	}

	cfg, err := config.Load(os.Getenv("WEAVE_ENV_FILE"))
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 2
	}
	if err := cfg.ApplyLogLevel(); err != nil {
		fmt.Fprintln(errOut, err)
		return 2
	}

	switch args[0] {
	case "address":
		return cmdAddress(args[1:], cfg, out, errOut)
	case "hash":
		return cmdHash(args[1:], out, errOut)
	case "deep-hash":
		return cmdDeepHash(args[1:], out, errOut)
	case "sign":
		return cmdSign(args[1:], cfg, out, errOut)
	case "verify":
		return cmdVerify(args[1:], out, errOut)
	case "seal":
		return cmdSeal(args[1:], cfg, out, errOut)
	case "open":
		return cmdOpen(args[1:], cfg, out, errOut)
	case "cas":
		return cmdCAS(args[1:], cfg, out, errOut)
	case "help", "-h", "--help":
		printUsage(out)
		return 0
	default:
		fmt.Fprintf(errOut, "unknown command: %s\n\n", args[0])
		printUsage(errOut)
		return 2
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "weave: wallet signing and deep-hash tool")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  weave address --key-file <path> [--owner]")
	fmt.Fprintln(w, "  weave hash <file>")
	fmt.Fprintln(w, "  weave deep-hash [--multihash] <item.json>")
	fmt.Fprintln(w, "  weave sign --key-file <path> <file>")
	fmt.Fprintln(w, "  weave verify --owner <b64url> --sig <b64url> <file>")
	fmt.Fprintln(w, "  weave seal --key-file <path> [--store] [--backend <name> ...] <item.json>")
	fmt.Fprintln(w, "  weave open (--cid <CID> [--backend <name> ...] | <envelope.json>) [--item <item.json>]")
	fmt.Fprintln(w, "  weave cas put [--backend <name> ...] <file>")
	fmt.Fprintln(w, "  weave cas get [--backend <name> ...] --cid <CID> [--out <file>]")
	fmt.Fprintln(w, "  weave cas has [--backend <name> ...] --cid <CID>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Notes:")
	fmt.Fprintln(w, "  - keyfiles are JWK RSA wallets; --key-file defaults to $WEAVE_KEYFILE")
	fmt.Fprintln(w, "  - item.json is a tree of base64url strings (blobs) and arrays (lists)")
	fmt.Fprintln(w, "  - hash, sign and address output is base64url without padding")
	fmt.Fprintln(w, "  - seal writes the canonical envelope to stdout (no trailing newline), or its CID with --store")
	fmt.Fprintln(w, "  - --backend a,b reads from a then b and writes to a")
	fmt.Fprintln(w, "  - settings are read from WEAVE_* variables; WEAVE_ENV_FILE names an optional dotenv file")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Storage backends:")
	for _, b := range registry.List(registry.UsageCLI) {
		fmt.Fprintf(w, "  %s\t%s\n", b.Name, b.Description)
	}
}

func cmdAddress(args []string, cfg config.Config, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("address", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var keyFile string
	var owner bool
	fs.StringVar(&keyFile, "key-file", cfg.Keyfile, "JWK wallet keyfile")
	fs.BoolVar(&owner, "owner", false, "Print the owner (public modulus) instead of the address")
	pos, ok := parseArgs(fs, args)
	if !ok {
		return 2
	}
	if keyFile == "" || len(pos) != 0 {
		fmt.Fprintln(errOut, "usage: weave address --key-file <path> [--owner]")
		return 2
	}
	p, err := provider.FromKeyfile(keyFile)
	if err != nil {
		fmt.Fprintf(errOut, "load key: %v\n", err)
		return 1
	}
	get := p.WalletAddress
	if owner {
		get = p.PublicKey
	}
	v, err := get()
	if err != nil {
		fmt.Fprintf(errOut, "address: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintln(out, v)
	return 0
}

func cmdHash(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("hash", flag.ContinueOnError)
	fs.SetOutput(errOut)
	pos, ok := parseArgs(fs, args)
	if !ok {
		return 2
	}
	if len(pos) != 1 {
		fmt.Fprintln(errOut, "usage: weave hash <file>")
		return 2
	}
	b, err := os.ReadFile(pos[0])
	if err != nil {
		fmt.Fprintf(errOut, "read: %v\n", err)
		return 1
	}
	sum := provider.NewKeyless().Hash(b)
	_, _ = fmt.Fprintln(out, b64url.Encode(sum[:]))
	return 0
}

func cmdDeepHash(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("deep-hash", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var asMultihash bool
	fs.BoolVar(&asMultihash, "multihash", false, "Print a base58 sha2-384 multihash instead of base64url")
	pos, ok := parseArgs(fs, args)
	if !ok {
		return 2
	}
	if len(pos) != 1 {
		fmt.Fprintln(errOut, "usage: weave deep-hash [--multihash] <item.json>")
		return 2
	}
	item, code := readItem(pos[0], errOut)
	if code != 0 {
		return code
	}
	d := provider.NewKeyless().DeepHash(item)
	if asMultihash {
		_, _ = fmt.Fprintln(out, d.Multihash().B58String())
		return 0
	}
	_, _ = fmt.Fprintln(out, d)
	return 0
}

func cmdSign(args []string, cfg config.Config, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("sign", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var keyFile string
	fs.StringVar(&keyFile, "key-file", cfg.Keyfile, "JWK wallet keyfile")
	pos, ok := parseArgs(fs, args)
	if !ok {
		return 2
	}
	if keyFile == "" || len(pos) != 1 {
		fmt.Fprintln(errOut, "usage: weave sign --key-file <path> <file>")
		return 2
	}
	b, err := os.ReadFile(pos[0])
	if err != nil {
		fmt.Fprintf(errOut, "read: %v\n", err)
		return 1
	}
	p, err := provider.FromKeyfile(keyFile)
	if err != nil {
		fmt.Fprintf(errOut, "load key: %v\n", err)
		return 1
	}
	sig, err := p.Sign(b)
	if err != nil {
		fmt.Fprintf(errOut, "sign: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintln(out, sig)
	return 0
}

func cmdVerify(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var ownerText, sigText string
	fs.StringVar(&ownerText, "owner", "", "Signer owner (public modulus), base64url")
	fs.StringVar(&sigText, "sig", "", "Signature, base64url")
	pos, ok := parseArgs(fs, args)
	if !ok {
		return 2
	}
	if ownerText == "" || sigText == "" || len(pos) != 1 {
		fmt.Fprintln(errOut, "usage: weave verify --owner <b64url> --sig <b64url> <file>")
		return 2
	}
	owner, err := b64url.Parse(strings.TrimSpace(ownerText))
	if err != nil {
		fmt.Fprintf(errOut, "--owner: %v\n", err)
		return 2
	}
	sig, err := b64url.Parse(strings.TrimSpace(sigText))
	if err != nil {
		fmt.Fprintf(errOut, "--sig: %v\n", err)
		return 2
	}
	b, err := os.ReadFile(pos[0])
	if err != nil {
		fmt.Fprintf(errOut, "read: %v\n", err)
		return 1
	}
	if err := provider.NewKeyless().Verify(owner, b, sig); err != nil {
		fmt.Fprintf(errOut, "invalid: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintln(out, "OK", keys.AddressFromOwner(owner))
	return 0
}

func cmdSeal(args []string, cfg config.Config, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("seal", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var keyFile string
	var store bool
	fs.StringVar(&keyFile, "key-file", cfg.Keyfile, "JWK wallet keyfile")
	fs.BoolVar(&store, "store", false, "Write the envelope to the store and print its CID")
	sf := addStoreFlags(fs, cfg)
	pos, ok := parseArgs(fs, args)
	if !ok {
		return 2
	}
	if keyFile == "" || len(pos) != 1 {
		fmt.Fprintln(errOut, "usage: weave seal --key-file <path> [--store] <item.json>")
		return 2
	}
	item, code := readItem(pos[0], errOut)
	if code != 0 {
		return code
	}
	p, err := provider.FromKeyfile(keyFile)
	if err != nil {
		fmt.Fprintf(errOut, "load key: %v\n", err)
		return 1
	}
	env, err := envelope.Seal(p, item)
	if err != nil {
		fmt.Fprintf(errOut, "seal: %v\n", err)
		return 1
	}

	if !store {
		b, err := env.Marshal()
		if err != nil {
			fmt.Fprintf(errOut, "encode: %v\n", err)
			return 1
		}
		_, _ = out.Write(b)
		return 0
	}

	cas, closeFn, err := sf.open()
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 2
	}
	if closeFn != nil {
		defer closeFn()
	}
	id, err := envelope.Store{CAS: cas}.Put(context.Background(), env)
	if err != nil {
		fmt.Fprintf(errOut, "store: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintln(out, id)
	return 0
}

func cmdOpen(args []string, cfg config.Config, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("open", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var cidText, itemPath string
	fs.StringVar(&cidText, "cid", "", "Envelope CID to read from the store")
	fs.StringVar(&itemPath, "item", "", "Item JSON that must match the envelope digest")
	sf := addStoreFlags(fs, cfg)
	pos, ok := parseArgs(fs, args)
	if !ok {
		return 2
	}
	if (cidText == "") == (len(pos) == 0) || len(pos) > 1 {
		fmt.Fprintln(errOut, "usage: weave open (--cid <CID> | <envelope.json>) [--item <item.json>]")
		return 2
	}

	var env *envelope.Envelope
	if cidText != "" {
		id, err := cid.Decode(strings.TrimSpace(cidText))
		if err != nil {
			fmt.Fprintf(errOut, "--cid: %v\n", err)
			return 2
		}
		cas, closeFn, err := sf.open()
		if err != nil {
			fmt.Fprintln(errOut, err)
			return 2
		}
		if closeFn != nil {
			defer closeFn()
		}
		env, err = envelope.Store{CAS: cas}.Get(context.Background(), id)
		if err != nil {
			if storage.IsNotFound(err) {
				fmt.Fprintf(errOut, "not found: %s\n", id)
				return 1
			}
			fmt.Fprintf(errOut, "invalid: %v\n", err)
			return 1
		}
	} else {
		b, err := os.ReadFile(pos[0])
		if err != nil {
			fmt.Fprintf(errOut, "read: %v\n", err)
			return 1
		}
		env, err = envelope.Unmarshal(b)
		if err != nil {
			fmt.Fprintf(errOut, "invalid: %v\n", err)
			return 1
		}
		if err := env.Verify(); err != nil {
			fmt.Fprintf(errOut, "invalid: %v\n", err)
			return 1
		}
	}

	if itemPath != "" {
		item, code := readItem(itemPath, errOut)
		if code != 0 {
			return code
		}
		if err := env.VerifyItem(item); err != nil {
			fmt.Fprintf(errOut, "invalid: %v\n", err)
			return 1
		}
	}
	log.Debugw("opened envelope", "id", env.ID.String())
	_, _ = fmt.Fprintf(out, "OK %s %s\n", env.Address(), env.Digest)
	return 0
}

// parseArgs parses flags anywhere in args, so "open env.json --item x.json"
// works like "open --item x.json env.json". Arguments after "--" are positional.
func parseArgs(fs *flag.FlagSet, args []string) ([]string, bool) {
	var pos []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, false
		}
		rest := fs.Args()
		if len(rest) == 0 {
			return pos, true
		}
		if consumed := len(args) - len(rest); consumed > 0 && args[consumed-1] == "--" {
			return append(pos, rest...), true
		}
		pos = append(pos, rest[0])
		args = rest[1:]
	}
}

func readItem(path string, errOut io.Writer) (deephash.Item, int) {
	b, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(errOut, "read: %v\n", err)
		return nil, 1
	}
	item, err := deephash.ParseJSON(b)
	if err != nil {
		fmt.Fprintf(errOut, "invalid item: %v\n", err)
		return nil, 1
	}
	return item, 0
}

type storeFlags struct {
	backend string
	opts    registry.Options
}

func addStoreFlags(fs *flag.FlagSet, cfg config.Config) *storeFlags {
	sf := &storeFlags{}
	fs.StringVar(&sf.backend, "backend", cfg.Backend, "Storage backend name; a comma-separated list reads in order and writes to the first")
	sf.opts = registry.Flags(fs, registry.UsageCLI, cfg.StoreOptions())
	return sf
}

func (sf *storeFlags) open() (storage.CAS, func() error, error) {
	names := strings.Split(sf.backend, ",")
	if len(names) == 1 {
		return registry.Open(strings.TrimSpace(names[0]), registry.UsageCLI, sf.opts)
	}

	var stores storage.Fallback
	var closers []func() error
	closeAll := func() error {
		var firstErr error
		for _, c := range closers {
			if err := c(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		return firstErr
	}
	for _, name := range names {
		cas, closeFn, err := registry.Open(strings.TrimSpace(name), registry.UsageCLI, sf.opts)
		if err != nil {
			_ = closeAll()
			return nil, nil, err
		}
		stores = append(stores, cas)
		if closeFn != nil {
			closers = append(closers, closeFn)
		}
	}
	return stores, closeAll, nil
}
