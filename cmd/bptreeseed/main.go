// Seed program: builds a small on-disk B+-tree index over a record
// heap, so cmd/bptreeinspect has something real to look at.
// Usage: go run ./cmd/bptreeseed <path-to.idx> <index-name> <row-count>
package main

import (
	"bytes"
	"encoding/binary"
	"flag"
	"fmt"
	"math/rand"
	"os"

	"bptreedb/bptree"
	"bptreedb/buffer"
	"bptreedb/diskio"
	"bptreedb/heap"
)

func main() {
	capacity := flag.Int("pool", 64, "buffer pool frame count")
	flag.Parse()
	args := flag.Args()
	if len(args) != 3 {
		fmt.Fprintf(os.Stderr, "Usage: %s [-pool N] <index.idx> <index-name> <row-count>\n", os.Args[0])
		os.Exit(1)
	}
	path, name := args[0], args[1]
	var rowCount int
	if _, err := fmt.Sscanf(args[2], "%d", &rowCount); err != nil || rowCount <= 0 {
		fmt.Fprintf(os.Stderr, "row-count must be a positive integer\n")
		os.Exit(1)
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "remove stale %s: %v\n", path, err)
		os.Exit(1)
	}

	pager, err := diskio.OpenFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open %s: %v\n", path, err)
		os.Exit(1)
	}
	defer pager.Close()

	pool := buffer.NewPool(*capacity, pager)
	h := heap.New(pool)

	opts := bptree.Options{
		KeySize:         4,
		LeafMaxSize:     64,
		InternalMaxSize: 64,
		Comparator:      bytes.Compare,
	}
	tree, err := bptree.Create(name, pool, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "create index %q: %v\n", name, err)
		os.Exit(1)
	}

	order := rand.New(rand.NewSource(1)).Perm(rowCount)
	for _, i := range order {
		key := i + 1
		row := []byte(fmt.Sprintf("row-%06d", key))
		rowID, err := h.Insert(row)
		if err != nil {
			fmt.Fprintf(os.Stderr, "heap insert: %v\n", err)
			os.Exit(1)
		}

		var kb [4]byte
		binary.LittleEndian.PutUint32(kb[:], uint32(key))
		ok, err := tree.Insert(kb[:], bptree.RecordID{PageID: rowID.PageID, SlotNum: rowID.SlotNum})
		if err != nil {
			fmt.Fprintf(os.Stderr, "index insert: %v\n", err)
			os.Exit(1)
		}
		if !ok {
			fmt.Fprintf(os.Stderr, "unexpected duplicate key %d\n", key)
			os.Exit(1)
		}
	}

	if err := pool.FlushAll(); err != nil {
		fmt.Fprintf(os.Stderr, "flush: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("seeded %d rows into %s (index %q, %d heap pages)\n", rowCount, path, name, h.PageCount())
}
