package bptree

import (
	"encoding/binary"

	"bptreedb/buffer"
	"bptreedb/diskio"
)

// InternalPage is a bounded view over a pinned page image, interpreted
// as an internal B+-tree node: an ordered array of (key, child_page_id)
// slots where slot 0's key is a dummy (spec §3, §9 "bounded view over
// borrowed bytes"). It holds no reference beyond the byte slice handed
// to it at construction, mirroring the affine-handle guidance of spec
// §9 — callers own the pin and must mark the frame dirty themselves.
// Translated from original_source's b_plus_tree_internal_page.cpp.
type InternalPage struct {
	buf  []byte
	opts Options
}

// NewInternalPage wraps buf (exactly diskio.PageSize bytes) as an
// internal node view.
func NewInternalPage(buf []byte, opts Options) *InternalPage {
	return &InternalPage{buf: buf, opts: opts}
}

func (p *InternalPage) h() header        { return readHeader(p.buf) }
func (p *InternalPage) setH(h header)    { writeHeader(p.buf, h) }
func (p *InternalPage) slotsBase() []byte { return p.buf[headerSize:] }
func (p *InternalPage) slotWidth() int   { return p.opts.internalSlotWidth() }

func (p *InternalPage) slotOffset(i int) int { return i * p.slotWidth() }

// Init formats the page as a fresh, empty internal node.
func (p *InternalPage) Init(pageID, parentID diskio.PageID, maxSize int) {
	p.setH(header{
		PageID:   pageID,
		ParentID: parentID,
		Type:     NodeInternal,
		Size:     0,
		MaxSize:  int16(maxSize),
		KeySize:  int16(p.opts.KeySize),
	})
}

func (p *InternalPage) PageID() diskio.PageID      { return p.h().PageID }
func (p *InternalPage) ParentID() diskio.PageID    { return p.h().ParentID }
func (p *InternalPage) SetParentID(id diskio.PageID) {
	h := p.h()
	h.ParentID = id
	p.setH(h)
}
func (p *InternalPage) Size() int    { return int(p.h().Size) }
func (p *InternalPage) MaxSize() int { return int(p.h().MaxSize) }

func (p *InternalPage) setSize(n int) {
	h := p.h()
	h.Size = int16(n)
	p.setH(h)
}

// KeyAt returns slot i's key. Slot 0's key is the dummy; callers that
// read it outside a move_all_to/rotation must ignore its content.
func (p *InternalPage) KeyAt(i int) []byte {
	off := p.slotOffset(i)
	return p.slotsBase()[off : off+p.opts.KeySize]
}

// SetKeyAt overwrites slot i's key in place.
func (p *InternalPage) SetKeyAt(i int, key []byte) {
	off := p.slotOffset(i)
	copy(p.slotsBase()[off:off+p.opts.KeySize], key)
}

// ValueAt returns slot i's child page id.
func (p *InternalPage) ValueAt(i int) diskio.PageID {
	off := p.slotOffset(i) + p.opts.KeySize
	return diskio.PageID(int32(binary.LittleEndian.Uint32(p.slotsBase()[off : off+4])))
}

func (p *InternalPage) setValueAt(i int, v diskio.PageID) {
	off := p.slotOffset(i) + p.opts.KeySize
	binary.LittleEndian.PutUint32(p.slotsBase()[off:off+4], uint32(v))
}

func (p *InternalPage) setSlot(i int, key []byte, v diskio.PageID) {
	p.SetKeyAt(i, key)
	p.setValueAt(i, v)
}

func (p *InternalPage) copySlot(dst, src int) {
	dw := p.slotWidth()
	base := p.slotsBase()
	copy(base[dst*dw:dst*dw+dw], base[src*dw:src*dw+dw])
}

// ValueIndex returns the slot index holding child v, or -1. Linear
// search, per spec §4.3.
func (p *InternalPage) ValueIndex(v diskio.PageID) int {
	n := p.Size()
	for i := 0; i < n; i++ {
		if p.ValueAt(i) == v {
			return i
		}
	}
	return -1
}

// Lookup returns the child page id whose subtree covers k, per the
// contract in spec §4.3: if size>1 and k < key_at(1), return
// value_at(0); else return value_at(i) for the greatest i>=1 with
// key_at(i) <= k.
func (p *InternalPage) Lookup(k []byte) diskio.PageID {
	n := p.Size()
	if n == 0 {
		return diskio.InvalidPageID
	}
	if n == 1 || p.opts.Comparator(k, p.KeyAt(1)) < 0 {
		return p.ValueAt(0)
	}
	lo, hi := 1, n-1
	result := 0
	for lo <= hi {
		mid := (lo + hi) / 2
		if p.opts.Comparator(p.KeyAt(mid), k) <= 0 {
			result = mid
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}
	return p.ValueAt(result)
}

// PopulateNewRoot sets slot 0 = (_, left), slot 1 = (k, right), size=2.
func (p *InternalPage) PopulateNewRoot(left diskio.PageID, k []byte, right diskio.PageID) {
	zero := make([]byte, p.opts.KeySize)
	p.setSlot(0, zero, left)
	p.setSlot(1, k, right)
	p.setSize(2)
}

// InsertAfter places (k, newValue) immediately after the slot whose
// value equals oldValue, shifting later slots right by one.
func (p *InternalPage) InsertAfter(oldValue diskio.PageID, k []byte, newValue diskio.PageID) {
	idx := p.ValueIndex(oldValue)
	n := p.Size()
	for i := n; i > idx+1; i-- {
		p.copySlot(i, i-1)
	}
	p.setSlot(idx+1, k, newValue)
	p.setSize(n + 1)
}

// MoveHalfTo moves this node's upper half of slots into an empty
// recipient and reparents every moved child through pool.
func (p *InternalPage) MoveHalfTo(recipient *InternalPage, pool *buffer.Pool) error {
	n := p.Size()
	split := n / 2
	count := n - split
	for i := 0; i < count; i++ {
		src := split + i
		recipient.setSlot(i, p.KeyAt(src), p.ValueAt(src))
	}
	recipient.setSize(count)
	p.setSize(split)
	return reparentChildren(recipient, 0, count, pool)
}

// MoveAllTo dissolves this node into recipient: the separator key that
// used to sit above this node in the parent becomes this node's new
// slot-0 content (the dummy-slot dual-semantics of spec §9), then
// every slot is appended to recipient and this node is cleared.
func (p *InternalPage) MoveAllTo(recipient *InternalPage, middleKey []byte, pool *buffer.Pool) error {
	p.SetKeyAt(0, middleKey)
	n := p.Size()
	base := recipient.Size()
	for i := 0; i < n; i++ {
		recipient.setSlot(base+i, p.KeyAt(i), p.ValueAt(i))
	}
	recipient.setSize(base + n)
	p.setSize(0)
	return reparentChildren(recipient, base, n, pool)
}

// MoveFirstToEndOf rotates this node's first slot to the end of
// recipient, which precedes this node; middleKey (the separator that
// used to sit between them) becomes the key of recipient's new last
// slot, and this node's old slot 1 shifts down to slot 0.
func (p *InternalPage) MoveFirstToEndOf(recipient *InternalPage, middleKey []byte, pool *buffer.Pool) error {
	movedValue := p.ValueAt(0)
	recipient.setSlot(recipient.Size(), middleKey, movedValue)
	recipient.setSize(recipient.Size() + 1)

	n := p.Size()
	for i := 0; i < n-1; i++ {
		p.copySlot(i, i+1)
	}
	p.setSize(n - 1)
	return reparentOne(recipient, recipient.Size()-1, pool)
}

// MoveLastToFrontOf rotates this node's last slot to the front of
// recipient, which follows this node. The moved slot becomes
// recipient's slot 0 (its child is now the leftmost child) and keeps
// its key there, so the caller can read the new parent separator from
// recipient.KeyAt(0); the old slot 0 shifts to slot 1 and is repainted
// with middleKey, the real separator that used to sit between this node
// and recipient (spec §9's dual-semantics note).
func (p *InternalPage) MoveLastToFrontOf(recipient *InternalPage, middleKey []byte, pool *buffer.Pool) error {
	n := p.Size()
	movedKey := append([]byte(nil), p.KeyAt(n-1)...)
	movedValue := p.ValueAt(n - 1)
	p.setSize(n - 1)

	rn := recipient.Size()
	for i := rn; i > 0; i-- {
		recipient.copySlot(i, i-1)
	}
	recipient.SetKeyAt(1, middleKey)
	recipient.setSlot(0, movedKey, movedValue)
	recipient.setSize(rn + 1)
	return reparentOne(recipient, 0, pool)
}

// Remove deletes the slot at index, shifting later slots left, and
// returns the new size. Per spec §9, the source leaves this as a stub;
// here it is fully implemented.
func (p *InternalPage) Remove(index int) int {
	n := p.Size()
	for i := index; i < n-1; i++ {
		p.copySlot(i, i+1)
	}
	p.setSize(n - 1)
	return n - 1
}

func reparentChildren(node *InternalPage, from, count int, pool *buffer.Pool) error {
	for i := from; i < from+count; i++ {
		if err := reparentOne(node, i, pool); err != nil {
			return err
		}
	}
	return nil
}

func reparentOne(node *InternalPage, slot int, pool *buffer.Pool) error {
	childID := node.ValueAt(slot)
	fid, err := pool.Fetch(childID)
	if err != nil {
		return err
	}
	frame := pool.Frame(fid)
	setParentID(frame.Data[:], node.PageID())
	pool.Unpin(childID, true)
	return nil
}

// setParentID patches a page's parent field without knowing whether it
// is an internal or leaf node — both layouts share the common header.
func setParentID(page []byte, parent diskio.PageID) {
	h := readHeader(page)
	h.ParentID = parent
	writeHeader(page, h)
}

// nodeTypeOf reads a pinned page's node type from its shared header.
func nodeTypeOf(page []byte) NodeType { return readHeader(page).Type }
