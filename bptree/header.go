package bptree

import (
	"encoding/binary"
	"fmt"

	"bptreedb/diskio"
)

// HeaderPage is the typed first-class entity for page 0: a small
// table mapping index name to root page id (spec §4.5). Spec §9 flags
// that the source casts the header page through an unrelated
// page-view type when updating the root id; this codec replaces that
// cast with its own dedicated layout, exactly the fix the design notes
// call for.
//
// Layout: [4 bytes record count][records...]. Each record is
// [2 bytes name length][name bytes][4 bytes root page id].
type HeaderPage struct {
	buf []byte
}

// NewHeaderPage wraps buf (the page-0 image) as a header page view.
func NewHeaderPage(buf []byte) *HeaderPage { return &HeaderPage{buf: buf} }

// Init formats the page as an empty header.
func (h *HeaderPage) Init() {
	binary.LittleEndian.PutUint32(h.buf[0:4], 0)
}

type headerRecord struct {
	name string
	off  int // offset of this record's start
	size int // total byte length of this record
}

func (h *HeaderPage) count() int {
	return int(binary.LittleEndian.Uint32(h.buf[0:4]))
}

func (h *HeaderPage) setCount(n int) {
	binary.LittleEndian.PutUint32(h.buf[0:4], uint32(n))
}

// records scans the record table, stopping early if visit returns false.
func (h *HeaderPage) records(visit func(headerRecord, diskio.PageID) bool) {
	off := 4
	n := h.count()
	for i := 0; i < n; i++ {
		nameLen := int(binary.LittleEndian.Uint16(h.buf[off : off+2]))
		nameStart := off + 2
		name := string(h.buf[nameStart : nameStart+nameLen])
		rootOff := nameStart + nameLen
		root := diskio.PageID(int32(binary.LittleEndian.Uint32(h.buf[rootOff : rootOff+4])))
		rec := headerRecord{name: name, off: off, size: 2 + nameLen + 4}
		if !visit(rec, root) {
			return
		}
		off = rootOff + 4
	}
}

// GetRootID returns the root page id registered for name, or
// (InvalidPageID, false) if no such index is registered.
func (h *HeaderPage) GetRootID(name string) (diskio.PageID, bool) {
	var found diskio.PageID
	ok := false
	h.records(func(rec headerRecord, root diskio.PageID) bool {
		if rec.name == name {
			found, ok = root, true
			return false
		}
		return true
	})
	return found, ok
}

// InsertRecord registers a brand-new index name with root. Returns an
// error if name is already registered.
func (h *HeaderPage) InsertRecord(name string, root diskio.PageID) error {
	if _, ok := h.GetRootID(name); ok {
		return fmt.Errorf("bptree: header page already has a record for %q", name)
	}
	n := h.count()
	end := h.recordsEnd()
	recLen := 2 + len(name) + 4
	if end+recLen > len(h.buf) {
		return fmt.Errorf("bptree: header page full, cannot register %q", name)
	}
	binary.LittleEndian.PutUint16(h.buf[end:end+2], uint16(len(name)))
	copy(h.buf[end+2:end+2+len(name)], name)
	binary.LittleEndian.PutUint32(h.buf[end+2+len(name):end+recLen], uint32(root))
	h.setCount(n + 1)
	return nil
}

func (h *HeaderPage) recordsEnd() int {
	end := 4
	h.records(func(rec headerRecord, _ diskio.PageID) bool {
		end = rec.off + rec.size
		return true
	})
	return end
}

// UpdateRecord rewrites the root id for an already-registered name.
// The tree calls this on every root change (spec §4.5).
func (h *HeaderPage) UpdateRecord(name string, root diskio.PageID) error {
	updated := false
	h.records(func(rec headerRecord, _ diskio.PageID) bool {
		if rec.name != name {
			return true
		}
		nameLen := len(rec.name)
		rootOff := rec.off + 2 + nameLen
		binary.LittleEndian.PutUint32(h.buf[rootOff:rootOff+4], uint32(root))
		updated = true
		return false
	})
	if !updated {
		return fmt.Errorf("bptree: header page has no record for %q", name)
	}
	return nil
}

// DeleteRecord removes name's record, compacting the table.
func (h *HeaderPage) DeleteRecord(name string) error {
	var target headerRecord
	found := false
	h.records(func(rec headerRecord, _ diskio.PageID) bool {
		if rec.name == name {
			target = rec
			found = true
			return false
		}
		return true
	})
	if !found {
		return fmt.Errorf("bptree: header page has no record for %q", name)
	}
	end := h.recordsEnd()
	tail := h.buf[target.off+target.size : end]
	copy(h.buf[target.off:], tail)
	h.setCount(h.count() - 1)
	return nil
}
