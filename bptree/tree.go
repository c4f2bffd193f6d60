package bptree

import (
	"fmt"
	"sync"

	"bptreedb/buffer"
	"bptreedb/diskio"
	"bptreedb/internal/dlog"
)

// Tree is the B+-tree engine (spec component C5): it orchestrates root
// tracking, root-finding, split-propagation on insert, and
// coalesce-or-redistribute on delete, fetching and unpinning pages
// through a buffer.Pool and operating on them via the C4 codecs. It
// never touches the disk pager directly (spec §2's dataflow rule).
//
// Scheduling model follows spec §5: single-threaded cooperative within
// one tree instance. The mutex below is the "whole-tree lock" the
// spec names as a valid way to serialize callers externally; it is
// not part of the engine's own correctness argument.
//
// Translated from original_source/src/storage/index/b_plus_tree.cpp;
// the teacher's bplustree/insertion.go, parent_insert.go,
// split_internal.go, deletion.go and find_leaf.go supplied the Go
// control-flow shape this is generalized from (slice-backed nodes) to
// operate on pinned page codecs instead.
type Tree struct {
	mu    sync.Mutex
	name  string
	pool  *buffer.Pool
	opts  Options
	log   *dlog.Logger
}

// Create registers a brand-new, empty index named name in the header
// page and returns a Tree bound to it. Fails if name is already
// registered.
func Create(name string, pool *buffer.Pool, opts Options) (*Tree, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	hf, err := pool.Fetch(diskio.HeaderPageID)
	if err != nil {
		return nil, fmt.Errorf("bptree: create %q: %w", name, err)
	}
	hp := NewHeaderPage(pool.Frame(hf).Data[:])
	if _, ok := hp.GetRootID(name); ok {
		pool.Unpin(diskio.HeaderPageID, false)
		return nil, fmt.Errorf("bptree: create %q: %w", name, ErrIndexAlreadyExists)
	}
	err = hp.InsertRecord(name, diskio.InvalidPageID)
	pool.Unpin(diskio.HeaderPageID, err == nil)
	if err != nil {
		return nil, err
	}
	return &Tree{name: name, pool: pool, opts: opts, log: dlog.Discard()}, nil
}

// Open binds a Tree to an already-registered index name.
func Open(name string, pool *buffer.Pool, opts Options) (*Tree, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	hf, err := pool.Fetch(diskio.HeaderPageID)
	if err != nil {
		return nil, fmt.Errorf("bptree: open %q: %w", name, err)
	}
	hp := NewHeaderPage(pool.Frame(hf).Data[:])
	_, ok := hp.GetRootID(name)
	pool.Unpin(diskio.HeaderPageID, false)
	if !ok {
		return nil, fmt.Errorf("bptree: open %q: %w", name, ErrIndexNotFound)
	}
	return &Tree{name: name, pool: pool, opts: opts, log: dlog.Discard()}, nil
}

// SetLogger replaces the tree's logger; the default discards everything.
func (t *Tree) SetLogger(l *dlog.Logger) { t.log = l }

func (t *Tree) rootPageID() (diskio.PageID, error) {
	fid, err := t.pool.Fetch(diskio.HeaderPageID)
	if err != nil {
		return diskio.InvalidPageID, err
	}
	hp := NewHeaderPage(t.pool.Frame(fid).Data[:])
	root, _ := hp.GetRootID(t.name)
	t.pool.Unpin(diskio.HeaderPageID, false)
	return root, nil
}

func (t *Tree) setRootPageID(root diskio.PageID) error {
	fid, err := t.pool.Fetch(diskio.HeaderPageID)
	if err != nil {
		return err
	}
	hp := NewHeaderPage(t.pool.Frame(fid).Data[:])
	err = hp.UpdateRecord(t.name, root)
	t.pool.Unpin(diskio.HeaderPageID, err == nil)
	return err
}

// IsEmpty reports whether the tree currently has no root.
func (t *Tree) IsEmpty() (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	root, err := t.rootPageID()
	if err != nil {
		return false, err
	}
	return root == diskio.InvalidPageID, nil
}

// findLeaf descends from root to the leaf that would contain k,
// unpinning every intermediate internal page clean as it goes. The
// returned leaf page's frame remains pinned; the caller must unpin it.
func (t *Tree) findLeaf(k []byte) (*LeafPage, error) {
	root, err := t.rootPageID()
	if err != nil {
		return nil, err
	}
	if root == diskio.InvalidPageID {
		return nil, nil
	}

	pageID := root
	for {
		fid, err := t.pool.Fetch(pageID)
		if err != nil {
			return nil, err
		}
		data := t.pool.Frame(fid).Data[:]
		if nodeTypeOf(data) == NodeLeaf {
			return NewLeafPage(data, t.opts), nil
		}
		ip := NewInternalPage(data, t.opts)
		child := ip.Lookup(k)
		t.pool.Unpin(pageID, false)
		if child == diskio.InvalidPageID {
			return nil, ErrMalformedNode
		}
		pageID = child
	}
}

// GetValue returns the record id stored for k, if any.
func (t *Tree) GetValue(k []byte) (RecordID, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	leaf, err := t.findLeaf(k)
	if err != nil {
		return RecordID{}, false, err
	}
	if leaf == nil {
		return RecordID{}, false, nil
	}
	rid, ok := leaf.Lookup(k)
	t.pool.Unpin(leaf.PageID(), false)
	return rid, ok, nil
}

// Insert adds (k, v). Returns false if k is already present (spec
// §4.4); tree state is unchanged on a duplicate.
func (t *Tree) Insert(k []byte, v RecordID) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	root, err := t.rootPageID()
	if err != nil {
		return false, err
	}
	if root == diskio.InvalidPageID {
		return true, t.startNewTree(k, v)
	}

	leaf, err := t.findLeaf(k)
	if err != nil {
		return false, err
	}
	if _, exists := leaf.Lookup(k); exists {
		t.pool.Unpin(leaf.PageID(), false)
		return false, nil
	}

	leaf.Insert(k, v)
	if leaf.Size() <= leaf.MaxSize() {
		t.pool.Unpin(leaf.PageID(), true)
		return true, nil
	}
	return true, t.splitLeafAndPropagate(leaf)
}

// startNewTree allocates a fresh page, formats it as a leaf root, and
// persists its id as the tree's root (spec §4.4 step 1).
func (t *Tree) startNewTree(k []byte, v RecordID) error {
	fid, pageID, err := t.pool.NewPage()
	if err != nil {
		return err
	}
	leaf := NewLeafPage(t.pool.Frame(fid).Data[:], t.opts)
	leaf.Init(pageID, diskio.InvalidPageID, t.opts.LeafMaxSize)
	leaf.Insert(k, v)
	t.pool.Unpin(pageID, true)

	if err := t.setRootPageID(pageID); err != nil {
		return err
	}
	t.log.Printf("%s: new root leaf %d", t.name, pageID)
	return nil
}

// Remove deletes k if present; silent success if absent (spec §4.4).
func (t *Tree) Remove(k []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	root, err := t.rootPageID()
	if err != nil {
		return err
	}
	if root == diskio.InvalidPageID {
		return nil
	}

	leaf, err := t.findLeaf(k)
	if err != nil {
		return err
	}
	oldSize := leaf.Size()
	newSize := leaf.RemoveAndDeleteRecord(k)
	if newSize == oldSize {
		t.pool.Unpin(leaf.PageID(), false)
		return nil
	}

	minSz := minSize(leaf.MaxSize())
	leafPageID := leaf.PageID()
	isRoot := leafPageID == root

	if newSize >= minSz || isRoot {
		t.pool.Unpin(leafPageID, true)
		if isRoot && newSize == 0 {
			if err := t.setRootPageID(diskio.InvalidPageID); err != nil {
				return err
			}
			_, err := t.pool.DeletePage(leafPageID)
			return err
		}
		return nil
	}

	t.pool.Unpin(leafPageID, true)
	return t.coalesceOrRedistribute(leafPageID, true)
}
