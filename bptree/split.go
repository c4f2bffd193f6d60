package bptree

import (
	"bptreedb/diskio"
)

// splitLeafAndPropagate handles a leaf that has transiently grown to
// max_size+1 (spec §4.4 step 4): allocate a new leaf, move the upper
// half into it, splice it into the sibling chain, then propagate the
// new separator into the parent. leaf's frame must be pinned on entry
// and is unpinned (dirty) by this call.
func (t *Tree) splitLeafAndPropagate(leaf *LeafPage) error {
	fid, newPageID, err := t.pool.NewPage()
	if err != nil {
		t.pool.Unpin(leaf.PageID(), true)
		return err
	}
	newLeaf := NewLeafPage(t.pool.Frame(fid).Data[:], t.opts)
	newLeaf.Init(newPageID, leaf.ParentID(), t.opts.LeafMaxSize)

	leaf.MoveHalfTo(newLeaf)
	newLeaf.SetNextPageID(leaf.NextPageID())
	leaf.SetNextPageID(newPageID)

	sepKey := append([]byte(nil), newLeaf.KeyAt(0)...)
	oldPageID := leaf.PageID()

	t.pool.Unpin(oldPageID, true)
	t.pool.Unpin(newPageID, true)

	return t.insertIntoParent(oldPageID, sepKey, newPageID)
}

// insertIntoParent implements spec §4.4's insert_into_parent: either
// creates a new root (left was root), inserts the separator into an
// existing parent with room, or splits the parent and recurses. left
// and right are page ids of the two (possibly freshly split) siblings.
func (t *Tree) insertIntoParent(left diskio.PageID, sepKey []byte, right diskio.PageID) error {
	fid, err := t.pool.Fetch(left)
	if err != nil {
		return err
	}
	leftParent := parentOf(t.pool.Frame(fid).Data[:])
	t.pool.Unpin(left, false)

	if leftParent == diskio.InvalidPageID {
		return t.createNewRoot(left, sepKey, right)
	}

	pfid, err := t.pool.Fetch(leftParent)
	if err != nil {
		return err
	}
	parent := NewInternalPage(t.pool.Frame(pfid).Data[:], t.opts)
	parent.InsertAfter(left, sepKey, right)
	t.setChildParent(right, leftParent)

	if parent.Size() <= parent.MaxSize() {
		t.pool.Unpin(leftParent, true)
		return nil
	}
	return t.splitInternalAndPropagate(parent)
}

// createNewRoot implements spec §4.4(a): populate a fresh root page
// with left and right as its two children, reparent both, persist.
func (t *Tree) createNewRoot(left diskio.PageID, sepKey []byte, right diskio.PageID) error {
	fid, newRootID, err := t.pool.NewPage()
	if err != nil {
		return err
	}
	root := NewInternalPage(t.pool.Frame(fid).Data[:], t.opts)
	root.Init(newRootID, diskio.InvalidPageID, t.opts.InternalMaxSize)
	root.PopulateNewRoot(left, sepKey, right)
	t.pool.Unpin(newRootID, true)

	t.setChildParent(left, newRootID)
	t.setChildParent(right, newRootID)

	t.log.Printf("%s: new internal root %d (children %d, %d)", t.name, newRootID, left, right)
	return t.setRootPageID(newRootID)
}

// splitInternalAndPropagate handles an internal node that has
// transiently grown to max_size+1 after InsertAfter. node's frame
// must be pinned on entry and is unpinned (dirty) here.
func (t *Tree) splitInternalAndPropagate(node *InternalPage) error {
	fid, newPageID, err := t.pool.NewPage()
	if err != nil {
		t.pool.Unpin(node.PageID(), true)
		return err
	}
	newNode := NewInternalPage(t.pool.Frame(fid).Data[:], t.opts)
	newNode.Init(newPageID, node.ParentID(), t.opts.InternalMaxSize)

	if err := node.MoveHalfTo(newNode, t.pool); err != nil {
		t.pool.Unpin(node.PageID(), true)
		t.pool.Unpin(newPageID, true)
		return err
	}

	// The separator promoted to the grandparent is the key sitting at
	// slot 0 of the new node — real content there even though slot 0
	// is nominally the "dummy" (spec §9's dual-semantics note).
	sepKey := append([]byte(nil), newNode.KeyAt(0)...)
	oldPageID := node.PageID()

	t.pool.Unpin(oldPageID, true)
	t.pool.Unpin(newPageID, true)

	return t.insertIntoParent(oldPageID, sepKey, newPageID)
}

func (t *Tree) setChildParent(childID, parentID diskio.PageID) {
	fid, err := t.pool.Fetch(childID)
	if err != nil {
		return
	}
	setParentID(t.pool.Frame(fid).Data[:], parentID)
	t.pool.Unpin(childID, true)
}

func parentOf(page []byte) diskio.PageID { return readHeader(page).ParentID }
