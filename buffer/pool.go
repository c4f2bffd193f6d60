package buffer

import (
	"errors"
	"fmt"
	"sync"

	"bptreedb/diskio"
	"bptreedb/internal/dlog"
)

// ErrNoFrame is returned by Fetch/NewPage when every frame is pinned.
// It is a normal outcome, never retried internally — the caller must
// release something and try again (spec §4.2, §7).
var ErrNoFrame = errors.New("buffer: no free frame")

// Pool manages a fixed-size array of frames caching page images from a
// diskio.Pager, arbitrating between the free list, the LRU replacer
// and the disk pager (spec component C3). Translated from
// original_source/src/buffer/buffer_pool_manager.cpp; the teacher's
// bplustree/buffer_pool.go supplied the Go-side pin/dirty/evict shape,
// generalized here to operate on raw page bytes rather than decoded
// tree nodes, per spec §9's "bounded view over borrowed bytes" note.
type Pool struct {
	mu        sync.Mutex
	pager     diskio.Pager
	frames    []Frame
	pageTable map[diskio.PageID]FrameID
	freeList  []FrameID
	replacer  *lruReplacer
	log       *dlog.Logger
}

// NewPool creates a pool of capacity frames backed by pager. Every
// frame starts on the free list, exactly as BufferPoolManager's
// constructor seeds free_list_ in the original source.
func NewPool(capacity int, pager diskio.Pager) *Pool {
	if capacity < 1 {
		panic("buffer: capacity must be >= 1")
	}
	p := &Pool{
		pager:     pager,
		frames:    make([]Frame, capacity),
		pageTable: make(map[diskio.PageID]FrameID, capacity),
		freeList:  make([]FrameID, capacity),
		replacer:  newLRUReplacer(),
		log:       dlog.Discard(),
	}
	for i := range p.frames {
		p.frames[i].PageID = diskio.InvalidPageID
		p.freeList[i] = FrameID(i)
	}
	return p
}

// SetLogger replaces the pool's logger; the default discards everything.
func (p *Pool) SetLogger(l *dlog.Logger) { p.log = l }

// Capacity returns the number of frames in the pool.
func (p *Pool) Capacity() int { return len(p.frames) }

// pickVictim returns a frame to reuse, free list first, then the
// replacer, matching GetFreeFrame in the original source.
func (p *Pool) pickVictim() (FrameID, bool) {
	if n := len(p.freeList); n > 0 {
		id := p.freeList[n-1]
		p.freeList = p.freeList[:n-1]
		return id, true
	}
	return p.replacer.victim()
}

func (p *Pool) writeBackIfDirty(id FrameID) error {
	f := &p.frames[id]
	if !f.IsDirty || f.PageID == diskio.InvalidPageID {
		return nil
	}
	if err := p.pager.WritePage(f.PageID, f.Data[:]); err != nil {
		return fmt.Errorf("buffer: writeback page %d: %w", f.PageID, err)
	}
	return nil
}

// Fetch loads pageID into a frame, pinning it, and returns its FrameID.
// If pageID is already resident its pin count is simply incremented.
// Returns ErrNoFrame if every frame is pinned (spec §4.2 step 1-6).
func (p *Pool) Fetch(pageID diskio.PageID) (FrameID, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if id, ok := p.pageTable[pageID]; ok {
		p.frames[id].PinCount++
		p.replacer.pin(id)
		return id, nil
	}

	id, ok := p.pickVictim()
	if !ok {
		return 0, ErrNoFrame
	}

	if err := p.writeBackIfDirty(id); err != nil {
		return 0, err
	}

	old := p.frames[id].PageID
	if old != diskio.InvalidPageID {
		delete(p.pageTable, old)
	}
	p.pageTable[pageID] = id

	f := &p.frames[id]
	f.reset()
	f.PageID = pageID
	f.PinCount = 1
	f.IsDirty = false
	if err := p.pager.ReadPage(pageID, f.Data[:]); err != nil {
		delete(p.pageTable, pageID)
		f.PageID = diskio.InvalidPageID
		p.freeList = append(p.freeList, id)
		return 0, fmt.Errorf("buffer: fetch page %d: %w", pageID, err)
	}
	p.log.Printf("fetch page %d -> frame %d", pageID, id)
	return id, nil
}

// Unpin decrements a loaded page's pin count, releasing the frame to
// the replacer once it reaches zero. mark_dirty is OR-accumulated into
// the frame's dirty bit. Returns false if the page was already
// unpinned (a caller bug, per spec §4.2).
func (p *Pool) Unpin(pageID diskio.PageID, markDirty bool) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	id, ok := p.pageTable[pageID]
	if !ok {
		return false
	}
	f := &p.frames[id]
	f.IsDirty = f.IsDirty || markDirty
	if f.PinCount <= 0 {
		return false
	}
	f.PinCount--
	if f.PinCount == 0 {
		p.replacer.unpin(id)
	}
	return true
}

// Flush writes a loaded page's frame back through the pager
// unconditionally and clears its dirty bit.
func (p *Pool) Flush(pageID diskio.PageID) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	id, ok := p.pageTable[pageID]
	if !ok {
		return fmt.Errorf("buffer: flush: page %d not loaded", pageID)
	}
	f := &p.frames[id]
	if err := p.pager.WritePage(pageID, f.Data[:]); err != nil {
		return fmt.Errorf("buffer: flush page %d: %w", pageID, err)
	}
	f.IsDirty = false
	return nil
}

// FlushAll flushes every loaded page.
func (p *Pool) FlushAll() error {
	p.mu.Lock()
	ids := make([]diskio.PageID, 0, len(p.pageTable))
	for id := range p.pageTable {
		ids = append(ids, id)
	}
	p.mu.Unlock()

	for _, id := range ids {
		if err := p.Flush(id); err != nil {
			return err
		}
	}
	return nil
}

// NewPage allocates a fresh page id from the disk pager and returns a
// pinned, dirty frame for it (the page is new-and-unwritten, spec §4.2).
func (p *Pool) NewPage() (FrameID, diskio.PageID, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	pageID, err := p.pager.AllocatePage()
	if err != nil {
		return 0, diskio.InvalidPageID, fmt.Errorf("buffer: allocate page: %w", err)
	}

	id, ok := p.pickVictim()
	if !ok {
		return 0, diskio.InvalidPageID, ErrNoFrame
	}

	if err := p.writeBackIfDirty(id); err != nil {
		return 0, diskio.InvalidPageID, err
	}

	old := p.frames[id].PageID
	if old != diskio.InvalidPageID {
		delete(p.pageTable, old)
	}

	f := &p.frames[id]
	f.reset()
	f.PageID = pageID
	f.PinCount = 1
	f.IsDirty = true
	p.pageTable[pageID] = id
	p.log.Printf("new page %d -> frame %d", pageID, id)
	return id, pageID, nil
}

// DeletePage deallocates pageID on the disk pager. If it is loaded and
// pinned, deletion fails (true deletion would strand a caller holding
// the pin). Otherwise the frame is zeroed and returned to the free list.
func (p *Pool) DeletePage(pageID diskio.PageID) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	id, loaded := p.pageTable[pageID]
	if loaded && p.frames[id].PinCount > 0 {
		return false, nil
	}

	if err := p.pager.DeallocatePage(pageID); err != nil {
		return false, fmt.Errorf("buffer: deallocate page %d: %w", pageID, err)
	}

	if !loaded {
		return true, nil
	}

	p.replacer.pin(id) // no-op if it wasn't queued, harmless if it was
	delete(p.pageTable, pageID)
	p.frames[id].reset()
	p.freeList = append(p.freeList, id)
	return true, nil
}

// Frame returns a pointer to the frame's data and dirty bit for
// direct in-place mutation by a codec. The caller must hold the pin it
// got from Fetch/NewPage and must Unpin with the correct dirty flag
// when done; Pool itself does not track "checked out" state beyond the
// pin count.
func (p *Pool) Frame(id FrameID) *Frame {
	return &p.frames[id]
}

// PinCountOf reports how many distinct pins are outstanding across all
// loaded pages, used by tests asserting pin-leak freedom (spec §8).
func (p *Pool) PinCountOf() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	total := 0
	for _, f := range p.frames {
		total += f.PinCount
	}
	return total
}

// Resident reports whether pageID currently has a frame.
func (p *Pool) Resident(pageID diskio.PageID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.pageTable[pageID]
	return ok
}

// ResidentSet returns the set of page ids currently loaded, used by
// the buffer-LRU reference-simulator test (spec §8).
func (p *Pool) ResidentSet() map[diskio.PageID]struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[diskio.PageID]struct{}, len(p.pageTable))
	for id := range p.pageTable {
		out[id] = struct{}{}
	}
	return out
}
