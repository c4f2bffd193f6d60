// Package heap implements the external table-heap collaborator named
// in spec §3/§6: a slotted-page store of variable-length tuples that
// the B+-tree index points into via bptree.RecordID but never owns.
// Adapted from the teacher's heapfile_manager package, generalized to
// flow its page I/O through a buffer.Pool (spec §2's "all persistent
// state flows through C3") instead of hand-rolled file offsets.
package heap

import (
	"encoding/binary"
	"fmt"

	"bptreedb/diskio"
)

const (
	pageHeaderSize = 16
	slotSize       = 4 // offset (2B) + length (2B)
)

// pageHeader mirrors the teacher's PageHeader, trimmed to what a
// pool-backed slotted page still needs: FreePtr grows forward from
// the header, the slot directory grows backward from the page end,
// and SlotCount counts directory entries (including ones freed by a
// tombstone delete, so slot indices stay stable across deletes).
type pageHeader struct {
	FreePtr   uint16
	SlotCount uint16
}

func readPageHeader(page []byte) pageHeader {
	return pageHeader{
		FreePtr:   binary.LittleEndian.Uint16(page[0:2]),
		SlotCount: binary.LittleEndian.Uint16(page[2:4]),
	}
}

func writePageHeader(page []byte, h pageHeader) {
	binary.LittleEndian.PutUint16(page[0:2], h.FreePtr)
	binary.LittleEndian.PutUint16(page[2:4], h.SlotCount)
}

func initPage(page []byte) {
	for i := range page {
		page[i] = 0
	}
	writePageHeader(page, pageHeader{FreePtr: pageHeaderSize, SlotCount: 0})
}

type slot struct {
	Offset uint16
	Length uint16 // length 0 with offset 0 marks a tombstoned slot
}

func slotOffset(slotIndex uint16) int {
	return diskio.PageSize - int(slotIndex+1)*slotSize
}

func readSlot(page []byte, slotIndex uint16) slot {
	off := slotOffset(slotIndex)
	return slot{
		Offset: binary.LittleEndian.Uint16(page[off : off+2]),
		Length: binary.LittleEndian.Uint16(page[off+2 : off+4]),
	}
}

func writeSlot(page []byte, slotIndex uint16, s slot) {
	off := slotOffset(slotIndex)
	binary.LittleEndian.PutUint16(page[off:off+2], s.Offset)
	binary.LittleEndian.PutUint16(page[off+2:off+4], s.Length)
}

func freeSpace(h pageHeader) int {
	slotDirSize := int(h.SlotCount) * slotSize
	return diskio.PageSize - int(h.FreePtr) - slotDirSize
}

// insertInto writes row into page, appending a new slot, and returns
// the new slot's index. Returns false if there isn't room.
func insertInto(page []byte, row []byte) (uint16, bool) {
	h := readPageHeader(page)
	need := len(row) + slotSize
	if freeSpace(h) < need {
		return 0, false
	}
	offset := h.FreePtr
	copy(page[offset:int(offset)+len(row)], row)
	idx := h.SlotCount
	writeSlot(page, idx, slot{Offset: offset, Length: uint16(len(row))})
	h.FreePtr += uint16(len(row))
	h.SlotCount++
	writePageHeader(page, h)
	return idx, true
}

func rowAt(page []byte, slotIndex uint16) ([]byte, error) {
	h := readPageHeader(page)
	if slotIndex >= h.SlotCount {
		return nil, fmt.Errorf("heap: slot %d out of range (count=%d)", slotIndex, h.SlotCount)
	}
	s := readSlot(page, slotIndex)
	if s.Length == 0 {
		return nil, fmt.Errorf("heap: slot %d is deleted", slotIndex)
	}
	row := make([]byte, s.Length)
	copy(row, page[s.Offset:int(s.Offset)+int(s.Length)])
	return row, nil
}

func tombstone(page []byte, slotIndex uint16) error {
	h := readPageHeader(page)
	if slotIndex >= h.SlotCount {
		return fmt.Errorf("heap: slot %d out of range (count=%d)", slotIndex, h.SlotCount)
	}
	writeSlot(page, slotIndex, slot{Offset: 0, Length: 0})
	return nil
}
