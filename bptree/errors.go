package bptree

import "errors"

// ErrMalformedNode is returned when an internal lookup resolves to
// InvalidPageID, which happens only for an internal node with no
// slots — a precondition violation, fatal to the operation per spec §7.
var ErrMalformedNode = errors.New("bptree: malformed node (lookup returned no child)")

// ErrEndIterator is returned by Key/Value/Next when the iterator
// is already past the last entry — dereferencing end is a programmer
// error that must fail loudly (spec §7).
var ErrEndIterator = errors.New("bptree: dereference of end iterator")

// ErrIndexAlreadyExists is returned by Create when the header page
// already has a root record for the requested name.
var ErrIndexAlreadyExists = errors.New("bptree: index name already registered")

// ErrIndexNotFound is returned by Open when no header record matches
// the requested name.
var ErrIndexNotFound = errors.New("bptree: index name not registered")
