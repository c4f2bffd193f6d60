package bptree

import (
	"fmt"
	"strings"

	"bptreedb/diskio"
)

// Dump renders a breadth-first text sketch of the tree, one line per
// level, useful for debugging and for the bptreeinspect CLI. It is a
// supplemented feature (no counterpart constrains the original's
// lookup-path cast bug, spec §9) built the way the teacher's
// bplustree/inspect.go renders node summaries.
func (t *Tree) Dump() (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	root, err := t.rootPageID()
	if err != nil {
		return "", err
	}
	if root == diskio.InvalidPageID {
		return "(empty)\n", nil
	}

	var sb strings.Builder
	level := []diskio.PageID{root}
	depth := 0
	for len(level) > 0 {
		var next []diskio.PageID
		fmt.Fprintf(&sb, "L%d:", depth)
		for _, pageID := range level {
			fid, err := t.pool.Fetch(pageID)
			if err != nil {
				return "", err
			}
			data := t.pool.Frame(fid).Data[:]
			if nodeTypeOf(data) == NodeLeaf {
				leaf := NewLeafPage(data, t.opts)
				fmt.Fprintf(&sb, " [leaf#%d size=%d", pageID, leaf.Size())
				for i := 0; i < leaf.Size(); i++ {
					k, rid := leaf.GetItem(i)
					fmt.Fprintf(&sb, " %x->%d:%d", k, rid.PageID, rid.SlotNum)
				}
				sb.WriteString("]")
			} else {
				ip := NewInternalPage(data, t.opts)
				fmt.Fprintf(&sb, " [int#%d size=%d children=", pageID, ip.Size())
				for i := 0; i < ip.Size(); i++ {
					if i > 0 {
						sb.WriteString(",")
					}
					fmt.Fprintf(&sb, "%d", ip.ValueAt(i))
					next = append(next, ip.ValueAt(i))
				}
				sb.WriteString("]")
			}
			t.pool.Unpin(pageID, false)
		}
		sb.WriteString("\n")
		level = next
		depth++
	}
	return sb.String(), nil
}
