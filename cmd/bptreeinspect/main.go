// Inspect a B+-tree index file: prints the named index's name, the
// file's page count, whether the index is empty, and a breadth-first
// dump of its tree.
// Usage: go run ./cmd/bptreeinspect <path-to.idx> <index-name>
package main

import (
	"bytes"
	"flag"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"

	"bptreedb/bptree"
	"bptreedb/buffer"
	"bptreedb/diskio"
)

func main() {
	capacity := flag.Int("pool", 64, "buffer pool frame count")
	keySize := flag.Int("keysize", 4, "index key width in bytes")
	flag.Parse()
	args := flag.Args()
	if len(args) != 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s [-pool N] [-keysize N] <index.idx> <index-name>\n", os.Args[0])
		os.Exit(1)
	}
	path, name := args[0], args[1]

	pager, err := diskio.OpenFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open %s: %v\n", path, err)
		os.Exit(1)
	}
	defer pager.Close()

	pool := buffer.NewPool(*capacity, pager)

	opts := bptree.Options{
		KeySize:         *keySize,
		LeafMaxSize:     64,
		InternalMaxSize: 64,
		Comparator:      bytes.Compare,
	}
	tree, err := bptree.Open(name, pool, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open index %q: %v\n", name, err)
		os.Exit(1)
	}

	empty, err := tree.IsEmpty()
	if err != nil {
		fmt.Fprintf(os.Stderr, "IsEmpty: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("index: %s\n", name)
	fmt.Printf("pages on disk: %s\n", humanize.Comma(pager.PageCount()))
	fmt.Printf("empty: %v\n", empty)

	dump, err := tree.Dump()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Dump: %v\n", err)
		os.Exit(1)
	}
	fmt.Print(dump)
}
