// Package bptree implements the tree page codecs and the B+-tree
// engine (spec components C4 and C5) plus the range iterator (C6). It
// never touches a diskio.Pager directly — every page it reads or
// writes flows through a buffer.Pool.
//
// Keys are fixed-size, compile-time-unknown-but-run-time-fixed byte
// slices (spec §6: "Keys are fixed-size ... and copy-only"), compared
// with a caller-supplied Comparator. This mirrors BusTub's
// GenericKey<N> template family (original_source's
// b_plus_tree.cpp instantiates BPlusTree<GenericKey<4>, ...> through
// <GenericKey<64>, ...>) without Go generics baking the width into the
// type: Options.KeySize fixes it per tree instance instead.
package bptree

import (
	"encoding/binary"
	"fmt"

	"bptreedb/diskio"
)

// NodeType distinguishes internal pages from leaf pages.
type NodeType uint8

const (
	NodeInternal NodeType = 0
	NodeLeaf     NodeType = 1
)

// RecordID names a tuple in an external table heap: (page_id, slot_num).
// The index stores these; it does not own the tuples they point to
// (spec §3).
type RecordID struct {
	PageID  diskio.PageID
	SlotNum int32
}

// IsZero reports whether r is the zero RecordID.
func (r RecordID) IsZero() bool { return r.PageID == 0 && r.SlotNum == 0 }

const recordIDSize = 8 // PageID int32 + SlotNum int32

func encodeRecordID(buf []byte, r RecordID) {
	binary.LittleEndian.PutUint32(buf[0:4], uint32(r.PageID))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(r.SlotNum))
}

func decodeRecordID(buf []byte) RecordID {
	return RecordID{
		PageID:  diskio.PageID(int32(binary.LittleEndian.Uint32(buf[0:4]))),
		SlotNum: int32(binary.LittleEndian.Uint32(buf[4:8])),
	}
}

// Comparator is a total order on keys returning negative, zero, or
// positive, exactly the interface spec §6 requires.
type Comparator func(a, b []byte) int

// header is the common prefix every tree page carries (spec §3):
// page id, parent id, node type, current size, max size, key size.
// Internal pages leave NextPageID at its zero value; leaves use it to
// thread the sibling list.
const headerSize = 24

type header struct {
	PageID      diskio.PageID
	ParentID    diskio.PageID
	Type        NodeType
	Size        int16
	MaxSize     int16
	KeySize     int16
	NextPageID  diskio.PageID
}

func readHeader(page []byte) header {
	return header{
		PageID:     diskio.PageID(int32(binary.LittleEndian.Uint32(page[0:4]))),
		ParentID:   diskio.PageID(int32(binary.LittleEndian.Uint32(page[4:8]))),
		Type:       NodeType(page[8]),
		Size:       int16(binary.LittleEndian.Uint16(page[10:12])),
		MaxSize:    int16(binary.LittleEndian.Uint16(page[12:14])),
		KeySize:    int16(binary.LittleEndian.Uint16(page[14:16])),
		NextPageID: diskio.PageID(int32(binary.LittleEndian.Uint32(page[16:20]))),
	}
}

func writeHeader(page []byte, h header) {
	binary.LittleEndian.PutUint32(page[0:4], uint32(h.PageID))
	binary.LittleEndian.PutUint32(page[4:8], uint32(h.ParentID))
	page[8] = byte(h.Type)
	page[9] = 0
	binary.LittleEndian.PutUint16(page[10:12], uint16(h.Size))
	binary.LittleEndian.PutUint16(page[12:14], uint16(h.MaxSize))
	binary.LittleEndian.PutUint16(page[14:16], uint16(h.KeySize))
	binary.LittleEndian.PutUint32(page[16:20], uint32(h.NextPageID))
	// bytes [20:24) reserved
}

// Options configures the tree's page layout and comparator.
type Options struct {
	KeySize         int // fixed key width in bytes
	LeafMaxSize     int
	InternalMaxSize int
	Comparator      Comparator
}

func (o Options) internalSlotWidth() int { return o.KeySize + 4 }
func (o Options) leafSlotWidth() int     { return o.KeySize + recordIDSize }

// validate checks that the configured slot counts fit within one page
// image, returning a descriptive error rather than corrupting pages
// silently at runtime.
func (o Options) validate() error {
	if o.KeySize <= 0 {
		return fmt.Errorf("bptree: KeySize must be positive")
	}
	if o.Comparator == nil {
		return fmt.Errorf("bptree: Comparator is required")
	}
	avail := diskio.PageSize - headerSize
	if o.InternalMaxSize*o.internalSlotWidth() > avail {
		return fmt.Errorf("bptree: InternalMaxSize=%d does not fit in a %d-byte page with KeySize=%d",
			o.InternalMaxSize, diskio.PageSize, o.KeySize)
	}
	if o.LeafMaxSize*o.leafSlotWidth() > avail {
		return fmt.Errorf("bptree: LeafMaxSize=%d does not fit in a %d-byte page with KeySize=%d",
			o.LeafMaxSize, diskio.PageSize, o.KeySize)
	}
	if o.InternalMaxSize < 3 {
		return fmt.Errorf("bptree: InternalMaxSize must be >= 3")
	}
	if o.LeafMaxSize < 2 {
		return fmt.Errorf("bptree: LeafMaxSize must be >= 2")
	}
	return nil
}

// minSize implements spec §3's ceil(max_size/2).
func minSize(maxSize int) int {
	return (maxSize + 1) / 2
}
