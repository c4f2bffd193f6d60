package heap

import (
	"fmt"
	"sync"

	"bptreedb/buffer"
	"bptreedb/diskio"
	"bptreedb/internal/dlog"
)

// RecordID names a tuple's location: (page_id, slot_num). It has the
// same shape as bptree.RecordID by construction (spec §3's record
// identifier) but heap does not import bptree — the index is the
// consumer of heap locations, not the other way around.
type RecordID struct {
	PageID  diskio.PageID
	SlotNum int32
}

// Heap is a slotted-page store of variable-length tuples, the external
// table-heap collaborator the B+-tree index points into (spec §3, §6)
// without owning. Every page access goes through a buffer.Pool, so a
// Heap never talks to the disk pager directly, mirroring the tree
// engine's C3 dataflow rule.
type Heap struct {
	mu        sync.Mutex
	pool      *buffer.Pool
	pageIDs   []diskio.PageID // pages known to belong to this heap, in creation order
	log       *dlog.Logger
}

// New creates an empty heap backed by pool.
func New(pool *buffer.Pool) *Heap {
	return &Heap{pool: pool, log: dlog.Discard()}
}

// SetLogger replaces the heap's logger; the default discards everything.
func (h *Heap) SetLogger(l *dlog.Logger) { h.log = l }

const maxRowSize = diskio.PageSize - pageHeaderSize - slotSize

// Insert stores row and returns its RecordID. It tries the most
// recently allocated page first (mirroring the teacher's
// findSuitablePage linear scan, but bounded to the tail since earlier
// pages are assumed packed), then allocates a fresh page if none fit.
func (h *Heap) Insert(row []byte) (RecordID, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(row) > maxRowSize {
		return RecordID{}, fmt.Errorf("heap: row too large: %d bytes (max %d)", len(row), maxRowSize)
	}

	if n := len(h.pageIDs); n > 0 {
		pageID := h.pageIDs[n-1]
		fid, err := h.pool.Fetch(pageID)
		if err != nil {
			return RecordID{}, err
		}
		data := h.pool.Frame(fid).Data[:]
		if idx, ok := insertInto(data, row); ok {
			h.pool.Unpin(pageID, true)
			return RecordID{PageID: pageID, SlotNum: int32(idx)}, nil
		}
		h.pool.Unpin(pageID, false)
	}

	fid, pageID, err := h.pool.NewPage()
	if err != nil {
		return RecordID{}, err
	}
	data := h.pool.Frame(fid).Data[:]
	initPage(data)
	idx, ok := insertInto(data, row)
	if !ok {
		h.pool.Unpin(pageID, true)
		return RecordID{}, fmt.Errorf("heap: row of %d bytes does not fit in an empty page", len(row))
	}
	h.pool.Unpin(pageID, true)
	h.pageIDs = append(h.pageIDs, pageID)
	return RecordID{PageID: pageID, SlotNum: int32(idx)}, nil
}

// Get retrieves the tuple at rid.
func (h *Heap) Get(rid RecordID) ([]byte, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	fid, err := h.pool.Fetch(rid.PageID)
	if err != nil {
		return nil, fmt.Errorf("heap: get %+v: %w", rid, err)
	}
	data := h.pool.Frame(fid).Data[:]
	row, err := rowAt(data, uint16(rid.SlotNum))
	h.pool.Unpin(rid.PageID, false)
	return row, err
}

// Delete tombstones the slot at rid; the space is not reclaimed.
func (h *Heap) Delete(rid RecordID) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	fid, err := h.pool.Fetch(rid.PageID)
	if err != nil {
		return fmt.Errorf("heap: delete %+v: %w", rid, err)
	}
	data := h.pool.Frame(fid).Data[:]
	err = tombstone(data, uint16(rid.SlotNum))
	h.pool.Unpin(rid.PageID, err == nil)
	return err
}

// PageCount reports how many pages this heap has allocated.
func (h *Heap) PageCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.pageIDs)
}
