package buffer

import "container/list"

// lruReplacer tracks unpinned frames in LRU order: most-recently-unpinned
// at the front, least-recently-unpinned at the back, with a side index
// from frame id to its list element for O(1) removal (spec §4.1).
// There is no aging or frequency tracking — eviction is pure LRU over
// the unpinned set, translated from original_source's
// src/buffer/lru_replacer.cpp (std::list + std::unordered_map) into Go's
// container/list.
type lruReplacer struct {
	order *list.List // of FrameID, front = most recently unpinned
	index map[FrameID]*list.Element
}

func newLRUReplacer() *lruReplacer {
	return &lruReplacer{
		order: list.New(),
		index: make(map[FrameID]*list.Element),
	}
}

// victim removes and returns the least-recently-unpinned frame. It
// reports false without modifying anything if the replacer is empty —
// the out-parameter-left-untouched contract spec §9 calls out explicitly.
func (r *lruReplacer) victim() (FrameID, bool) {
	back := r.order.Back()
	if back == nil {
		return 0, false
	}
	id := back.Value.(FrameID)
	r.order.Remove(back)
	delete(r.index, id)
	return id, true
}

// pin removes id from the replacer if present; a no-op otherwise.
func (r *lruReplacer) pin(id FrameID) {
	elem, ok := r.index[id]
	if !ok {
		return
	}
	r.order.Remove(elem)
	delete(r.index, id)
}

// unpin inserts id at the front if absent; idempotent otherwise, so a
// frame can only ever be queued once (spec §4.1).
func (r *lruReplacer) unpin(id FrameID) {
	if _, ok := r.index[id]; ok {
		return
	}
	r.index[id] = r.order.PushFront(id)
}

// size returns the number of frames currently eligible for eviction.
func (r *lruReplacer) size() int {
	return r.order.Len()
}
