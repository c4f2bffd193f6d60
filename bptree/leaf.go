package bptree

import (
	"bptreedb/diskio"
)

// LeafPage is a bounded view over a pinned page image, interpreted as
// a leaf B+-tree node: an ordered array of (key, record_id) slots plus
// a next_leaf_page_id sibling pointer (spec §3). Leaves never reparent
// anything — their "children" are record-ids in an external heap, not
// pages (spec §4.3).
type LeafPage struct {
	buf  []byte
	opts Options
}

// NewLeafPage wraps buf as a leaf node view.
func NewLeafPage(buf []byte, opts Options) *LeafPage {
	return &LeafPage{buf: buf, opts: opts}
}

func (p *LeafPage) h() header         { return readHeader(p.buf) }
func (p *LeafPage) setH(h header)     { writeHeader(p.buf, h) }
func (p *LeafPage) slotsBase() []byte { return p.buf[headerSize:] }
func (p *LeafPage) slotWidth() int    { return p.opts.leafSlotWidth() }
func (p *LeafPage) slotOffset(i int) int { return i * p.slotWidth() }

// Init formats the page as a fresh, empty leaf node.
func (p *LeafPage) Init(pageID, parentID diskio.PageID, maxSize int) {
	p.setH(header{
		PageID:     pageID,
		ParentID:   parentID,
		Type:       NodeLeaf,
		Size:       0,
		MaxSize:    int16(maxSize),
		KeySize:    int16(p.opts.KeySize),
		NextPageID: diskio.InvalidPageID,
	})
}

func (p *LeafPage) PageID() diskio.PageID   { return p.h().PageID }
func (p *LeafPage) ParentID() diskio.PageID { return p.h().ParentID }
func (p *LeafPage) SetParentID(id diskio.PageID) {
	h := p.h()
	h.ParentID = id
	p.setH(h)
}
func (p *LeafPage) Size() int    { return int(p.h().Size) }
func (p *LeafPage) MaxSize() int { return int(p.h().MaxSize) }

func (p *LeafPage) setSize(n int) {
	h := p.h()
	h.Size = int16(n)
	p.setH(h)
}

func (p *LeafPage) NextPageID() diskio.PageID { return p.h().NextPageID }
func (p *LeafPage) SetNextPageID(id diskio.PageID) {
	h := p.h()
	h.NextPageID = id
	p.setH(h)
}

// KeyAt returns slot i's key.
func (p *LeafPage) KeyAt(i int) []byte {
	off := p.slotOffset(i)
	return p.slotsBase()[off : off+p.opts.KeySize]
}

func (p *LeafPage) setKeyAt(i int, key []byte) {
	off := p.slotOffset(i)
	copy(p.slotsBase()[off:off+p.opts.KeySize], key)
}

// ValueAt returns slot i's record id.
func (p *LeafPage) ValueAt(i int) RecordID {
	off := p.slotOffset(i) + p.opts.KeySize
	return decodeRecordID(p.slotsBase()[off : off+recordIDSize])
}

func (p *LeafPage) setValueAt(i int, v RecordID) {
	off := p.slotOffset(i) + p.opts.KeySize
	encodeRecordID(p.slotsBase()[off:off+recordIDSize], v)
}

func (p *LeafPage) setSlot(i int, key []byte, v RecordID) {
	p.setKeyAt(i, key)
	p.setValueAt(i, v)
}

func (p *LeafPage) copySlot(dst, src int) {
	dw := p.slotWidth()
	base := p.slotsBase()
	copy(base[dst*dw:dst*dw+dw], base[src*dw:src*dw+dw])
}

// GetItem returns the (key, rid) pair at slot i.
func (p *LeafPage) GetItem(i int) ([]byte, RecordID) {
	return p.KeyAt(i), p.ValueAt(i)
}

// KeyIndex returns the smallest i with key_at(i) >= k, or Size() if
// none (binary search, spec §4.3).
func (p *LeafPage) KeyIndex(k []byte) int {
	n := p.Size()
	lo, hi := 0, n
	for lo < hi {
		mid := (lo + hi) / 2
		if p.opts.Comparator(p.KeyAt(mid), k) < 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// Lookup finds k via binary search, returning its record id and true,
// or false if absent.
func (p *LeafPage) Lookup(k []byte) (RecordID, bool) {
	i := p.KeyIndex(k)
	if i >= p.Size() || p.opts.Comparator(p.KeyAt(i), k) != 0 {
		return RecordID{}, false
	}
	return p.ValueAt(i), true
}

// Insert performs an ordered insert preserving key order. It does not
// check the size against max_size: Tree.Insert lets a leaf reach the
// transient max_size+1 state and then splits it (spec §4.4 step 4).
func (p *LeafPage) Insert(k []byte, v RecordID) {
	i := p.KeyIndex(k)
	n := p.Size()
	for j := n; j > i; j-- {
		p.copySlot(j, j-1)
	}
	p.setSlot(i, k, v)
	p.setSize(n + 1)
}

// RemoveAndDeleteRecord removes k if present, shifting later slots
// left, and returns the new size. If k is absent, the size is
// returned unchanged.
func (p *LeafPage) RemoveAndDeleteRecord(k []byte) int {
	i := p.KeyIndex(k)
	n := p.Size()
	if i >= n || p.opts.Comparator(p.KeyAt(i), k) != 0 {
		return n
	}
	for j := i; j < n-1; j++ {
		p.copySlot(j, j+1)
	}
	p.setSize(n - 1)
	return n - 1
}

// MoveHalfTo moves the upper half of this leaf's slots into an empty
// recipient. Leaves never reparent; callers rewire the sibling chain.
func (p *LeafPage) MoveHalfTo(recipient *LeafPage) {
	n := p.Size()
	split := n / 2
	count := n - split
	for i := 0; i < count; i++ {
		src := split + i
		recipient.setSlot(i, p.KeyAt(src), p.ValueAt(src))
	}
	recipient.setSize(count)
	p.setSize(split)
}

// MoveAllTo dissolves this leaf into recipient, which must immediately
// precede it in key order, and transfers the sibling-list pointer.
func (p *LeafPage) MoveAllTo(recipient *LeafPage) {
	n := p.Size()
	base := recipient.Size()
	for i := 0; i < n; i++ {
		recipient.setSlot(base+i, p.KeyAt(i), p.ValueAt(i))
	}
	recipient.setSize(base + n)
	recipient.SetNextPageID(p.NextPageID())
	p.setSize(0)
}

// MoveFirstToEndOf rotates this leaf's first slot to the end of
// recipient, which precedes this leaf.
func (p *LeafPage) MoveFirstToEndOf(recipient *LeafPage) {
	k, v := p.GetItem(0)
	recipient.setSlot(recipient.Size(), k, v)
	recipient.setSize(recipient.Size() + 1)

	n := p.Size()
	for i := 0; i < n-1; i++ {
		p.copySlot(i, i+1)
	}
	p.setSize(n - 1)
}

// MoveLastToFrontOf rotates this leaf's last slot to the front of
// recipient, which follows this leaf.
func (p *LeafPage) MoveLastToFrontOf(recipient *LeafPage) {
	n := p.Size()
	k, v := p.GetItem(n - 1)
	p.setSize(n - 1)

	for i := recipient.Size(); i > 0; i-- {
		recipient.copySlot(i, i-1)
	}
	recipient.setSlot(0, k, v)
	recipient.setSize(recipient.Size() + 1)
}
