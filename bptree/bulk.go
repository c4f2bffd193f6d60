package bptree

// InsertAll inserts every (key, rid) pair in order, stopping at the
// first duplicate or error. It returns the number of pairs actually
// inserted, matching scenario 6 of spec §8 where callers insert a
// whole permutation and only care about an aggregate outcome.
func (t *Tree) InsertAll(keys [][]byte, rids []RecordID) (int, error) {
	n := 0
	for i := range keys {
		ok, err := t.Insert(keys[i], rids[i])
		if err != nil {
			return n, err
		}
		if !ok {
			return n, nil
		}
		n++
	}
	return n, nil
}

// DeleteAll removes every key in order, ignoring absent keys (Remove's
// own silent-success semantics), stopping only on a hard error.
func (t *Tree) DeleteAll(keys [][]byte) error {
	for _, k := range keys {
		if err := t.Remove(k); err != nil {
			return err
		}
	}
	return nil
}

// ValueIndex looks up k and returns its record id, or ok=false if
// absent. It is an alias of GetValue; it is unrelated to
// InternalPage.ValueIndex, which finds the slot holding a child page.
func (t *Tree) ValueIndex(k []byte) (RecordID, bool, error) {
	return t.GetValue(k)
}
