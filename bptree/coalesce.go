package bptree

import (
	"bptreedb/diskio"
)

// coalesceOrRedistribute implements spec §4.4 step 5 onward: fetch the
// underfull node's parent, pick a sibling, and either fuse the two
// nodes (coalesce) or rotate one entry across the boundary
// (redistribute). nodeID's frame must already be unpinned by the
// caller before this runs — coalesceOrRedistribute re-fetches
// everything it touches itself, matching spec §9's fix for the
// original source's "recurse without re-pinning the parent" bug: a
// recursive call receives only a page id, after the caller has
// unpinned that page, and pins it afresh, so no stale reference is
// carried across calls.
func (t *Tree) coalesceOrRedistribute(nodeID diskio.PageID, isLeaf bool) error {
	fid, err := t.pool.Fetch(nodeID)
	if err != nil {
		return err
	}
	parentID := parentOf(t.pool.Frame(fid).Data[:])
	t.pool.Unpin(nodeID, false)

	pfid, err := t.pool.Fetch(parentID)
	if err != nil {
		return err
	}
	parent := NewInternalPage(t.pool.Frame(pfid).Data[:], t.opts)

	ni := parent.ValueIndex(nodeID)
	var siblingID diskio.PageID
	siblingIsLeft := ni > 0
	if siblingIsLeft {
		siblingID = parent.ValueAt(ni - 1)
	} else {
		siblingID = parent.ValueAt(ni + 1)
	}

	nfid, err := t.pool.Fetch(nodeID)
	if err != nil {
		t.pool.Unpin(parentID, false)
		return err
	}
	sfid, err := t.pool.Fetch(siblingID)
	if err != nil {
		t.pool.Unpin(nodeID, false)
		t.pool.Unpin(parentID, false)
		return err
	}

	var nodeSize, siblingSize, maxSize int
	if isLeaf {
		n := NewLeafPage(t.pool.Frame(nfid).Data[:], t.opts)
		s := NewLeafPage(t.pool.Frame(sfid).Data[:], t.opts)
		nodeSize, siblingSize, maxSize = n.Size(), s.Size(), n.MaxSize()
	} else {
		n := NewInternalPage(t.pool.Frame(nfid).Data[:], t.opts)
		s := NewInternalPage(t.pool.Frame(sfid).Data[:], t.opts)
		nodeSize, siblingSize, maxSize = n.Size(), s.Size(), n.MaxSize()
	}
	// coalesce/redistribute re-fetch both pages themselves; release
	// these measurement-only pins first so that re-fetch sees a clean
	// pin count rather than stacking an extra one.
	t.pool.Unpin(nodeID, false)
	t.pool.Unpin(siblingID, false)

	if nodeSize+siblingSize <= maxSize {
		return t.coalesce(parent, ni, nodeID, siblingID, siblingIsLeft, isLeaf)
	}
	return t.redistribute(parent, ni, nodeID, siblingID, siblingIsLeft, isLeaf)
}

// coalesce fuses nodeID and siblingID: per spec §4.4, when ni==0 the
// right sibling is absorbed into this node; otherwise this node is
// absorbed into its left sibling. The surviving page is unpinned
// dirty, the dissolved one is freed, and the parent's slot for the
// dissolved page is removed — possibly recursing if the parent itself
// underflows.
func (t *Tree) coalesce(parent *InternalPage, ni int, nodeID, siblingID diskio.PageID, siblingIsLeft, isLeaf bool) error {
	root, err := t.rootPageID()
	if err != nil {
		return err
	}

	var removeSlot int
	var survivor, dissolved diskio.PageID
	if siblingIsLeft {
		survivor, dissolved = siblingID, nodeID
		removeSlot = ni
	} else {
		survivor, dissolved = nodeID, siblingID
		removeSlot = ni + 1
	}

	sepKey := append([]byte(nil), parent.KeyAt(removeSlot)...)

	svfid, err := t.pool.Fetch(survivor)
	if err != nil {
		return err
	}
	dsfid, err := t.pool.Fetch(dissolved)
	if err != nil {
		t.pool.Unpin(survivor, false)
		return err
	}

	if isLeaf {
		sv := NewLeafPage(t.pool.Frame(svfid).Data[:], t.opts)
		ds := NewLeafPage(t.pool.Frame(dsfid).Data[:], t.opts)
		ds.MoveAllTo(sv)
	} else {
		sv := NewInternalPage(t.pool.Frame(svfid).Data[:], t.opts)
		ds := NewInternalPage(t.pool.Frame(dsfid).Data[:], t.opts)
		if err := ds.MoveAllTo(sv, sepKey, t.pool); err != nil {
			t.pool.Unpin(survivor, true)
			t.pool.Unpin(dissolved, false)
			t.pool.Unpin(parent.PageID(), false)
			return err
		}
	}

	t.pool.Unpin(survivor, true)
	t.pool.Unpin(dissolved, false)
	if _, err := t.pool.DeletePage(dissolved); err != nil {
		t.pool.Unpin(parent.PageID(), false)
		return err
	}

	newParentSize := parent.Remove(removeSlot)
	parentID := parent.PageID()

	if parentID == root {
		t.pool.Unpin(parentID, true)
		return t.adjustRoot(parentID)
	}

	if newParentSize >= minSize(parent.MaxSize()) {
		t.pool.Unpin(parentID, true)
		return nil
	}

	t.pool.Unpin(parentID, true)
	return t.coalesceOrRedistribute(parentID, false)
}

// redistribute rotates a single entry across the sibling boundary
// (spec §4.4): when ni==0, the sibling's first entry moves to the end
// of this node and the parent separator at ni+1 is repainted; otherwise
// the sibling's last entry moves to the front of this node and the
// separator at ni is repainted. No recursion — by construction the
// sibling was above min_size, so it remains at or above it afterward.
func (t *Tree) redistribute(parent *InternalPage, ni int, nodeID, siblingID diskio.PageID, siblingIsLeft, isLeaf bool) error {
	nfid, err := t.pool.Fetch(nodeID)
	if err != nil {
		return err
	}
	sfid, err := t.pool.Fetch(siblingID)
	if err != nil {
		t.pool.Unpin(nodeID, false)
		return err
	}

	if isLeaf {
		node := NewLeafPage(t.pool.Frame(nfid).Data[:], t.opts)
		sib := NewLeafPage(t.pool.Frame(sfid).Data[:], t.opts)
		if siblingIsLeft {
			sib.MoveLastToFrontOf(node)
			parent.SetKeyAt(ni, node.KeyAt(0))
		} else {
			sib.MoveFirstToEndOf(node)
			parent.SetKeyAt(ni+1, sib.KeyAt(0))
		}
	} else {
		node := NewInternalPage(t.pool.Frame(nfid).Data[:], t.opts)
		sib := NewInternalPage(t.pool.Frame(sfid).Data[:], t.opts)
		if siblingIsLeft {
			middleKey := append([]byte(nil), parent.KeyAt(ni)...)
			if err := sib.MoveLastToFrontOf(node, middleKey, t.pool); err != nil {
				t.pool.Unpin(nodeID, true)
				t.pool.Unpin(siblingID, true)
				t.pool.Unpin(parent.PageID(), false)
				return err
			}
			parent.SetKeyAt(ni, node.KeyAt(0))
		} else {
			middleKey := append([]byte(nil), parent.KeyAt(ni+1)...)
			if err := sib.MoveFirstToEndOf(node, middleKey, t.pool); err != nil {
				t.pool.Unpin(nodeID, true)
				t.pool.Unpin(siblingID, true)
				t.pool.Unpin(parent.PageID(), false)
				return err
			}
			parent.SetKeyAt(ni+1, sib.KeyAt(0))
		}
	}

	t.pool.Unpin(nodeID, true)
	t.pool.Unpin(siblingID, true)
	t.pool.Unpin(parent.PageID(), true)
	return nil
}

// adjustRoot implements spec §4.4's adjust_root: called when the root
// itself has underflowed to size<=1. If it's an internal node with one
// remaining child, that child is promoted to root; if it's an empty
// leaf, the tree becomes empty.
func (t *Tree) adjustRoot(rootID diskio.PageID) error {
	fid, err := t.pool.Fetch(rootID)
	if err != nil {
		return err
	}
	data := t.pool.Frame(fid).Data[:]

	if nodeTypeOf(data) == NodeLeaf {
		leaf := NewLeafPage(data, t.opts)
		if leaf.Size() > 0 {
			t.pool.Unpin(rootID, false)
			return nil
		}
		t.pool.Unpin(rootID, false)
		if err := t.setRootPageID(diskio.InvalidPageID); err != nil {
			return err
		}
		_, err := t.pool.DeletePage(rootID)
		return err
	}

	ip := NewInternalPage(data, t.opts)
	if ip.Size() > 1 {
		t.pool.Unpin(rootID, false)
		return nil
	}
	newRoot := ip.ValueAt(0)
	t.pool.Unpin(rootID, false)

	t.setChildParent(newRoot, diskio.InvalidPageID)
	if err := t.setRootPageID(newRoot); err != nil {
		return err
	}
	_, err = t.pool.DeletePage(rootID)
	return err
}
