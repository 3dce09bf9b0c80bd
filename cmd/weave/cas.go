package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ipfs/go-cid"

	"xdao.co/weave/config"
	"xdao.co/weave/storage"
	"xdao.co/weave/storage/registry"
)

func cmdCAS(args []string, cfg config.Config, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(errOut, "usage: weave cas <subcommand> ...")
		fmt.Fprintln(errOut, "subcommands: put, get, has, backends")
		return 2
	}
	switch args[0] {
	case "put":
		return cmdCASPut(args[1:], cfg, out, errOut)
	case "get":
		return cmdCASGet(args[1:], cfg, out, errOut)
	case "has":
		return cmdCASHas(args[1:], cfg, out, errOut)
	case "backends":
		printBackends(out)
		return 0
	default:
		fmt.Fprintf(errOut, "unknown cas subcommand: %s\n", args[0])
		return 2
	}
}

func printBackends(w io.Writer) {
	for _, b := range registry.List(registry.UsageCLI) {
		if b.Description == "" {
			_, _ = fmt.Fprintf(w, "%s\n", b.Name)
			continue
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\n", b.Name, b.Description)
	}
}

func cmdCASPut(args []string, cfg config.Config, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("cas put", flag.ContinueOnError)
	fs.SetOutput(errOut)
	sf := addStoreFlags(fs, cfg)
	pos, ok := parseArgs(fs, args)
	if !ok {
		return 2
	}
	if len(pos) != 1 {
		fmt.Fprintln(errOut, "usage: weave cas put [--backend <name> ...] <file>")
		return 2
	}

	p := pos[0]
	b, err := os.ReadFile(p)
	if err != nil {
		fmt.Fprintf(errOut, "read %s: %v\n", filepath.Base(p), err)
		return 1
	}

	cas, closeFn, err := sf.open()
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 2
	}
	if closeFn != nil {
		defer closeFn()
	}
	id, err := cas.Put(context.Background(), b)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	_, _ = fmt.Fprintln(out, id.String())
	return 0
}

func cmdCASGet(args []string, cfg config.Config, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("cas get", flag.ContinueOnError)
	fs.SetOutput(errOut)
	sf := addStoreFlags(fs, cfg)
	var cidStr, outPath string
	fs.StringVar(&cidStr, "cid", "", "CID to fetch")
	fs.StringVar(&outPath, "out", "", "Output file (optional; default stdout)")
	pos, ok := parseArgs(fs, args)
	if !ok {
		return 2
	}
	if cidStr == "" || len(pos) != 0 {
		fmt.Fprintln(errOut, "usage: weave cas get [--backend <name> ...] --cid <CID> [--out <file>]")
		return 2
	}
	id, err := cid.Decode(strings.TrimSpace(cidStr))
	if err != nil {
		fmt.Fprintln(errOut, storage.ErrInvalidCID)
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
	b, err := cas.Get(context.Background(), id)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}

	if outPath == "" {
		_, _ = out.Write(b)
		return 0
	}
	if err := os.WriteFile(outPath, b, 0o600); err != nil {
		fmt.Fprintf(errOut, "write %s: %v\n", outPath, err)
		return 1
	}
	return 0
}

// cmdCASHas exits 0 when the object is present and 1 when it is not.
func cmdCASHas(args []string, cfg config.Config, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("cas has", flag.ContinueOnError)
	fs.SetOutput(errOut)
	sf := addStoreFlags(fs, cfg)
	var cidStr string
	fs.StringVar(&cidStr, "cid", "", "CID to look up")
	pos, ok := parseArgs(fs, args)
	if !ok {
		return 2
	}
	if cidStr == "" || len(pos) != 0 {
		fmt.Fprintln(errOut, "usage: weave cas has [--backend <name> ...] --cid <CID>")
		return 2
	}
	id, err := cid.Decode(strings.TrimSpace(cidStr))
	if err != nil {
		fmt.Fprintln(errOut, storage.ErrInvalidCID)
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
	present, err := cas.Has(context.Background(), id)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	if !present {
		_, _ = fmt.Fprintln(out, "absent")
		return 1
	}
	_, _ = fmt.Fprintln(out, "present")
	return 0
}
