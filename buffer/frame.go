// Package buffer implements the LRU replacer and buffer pool manager
// (spec components C2 and C3): it decides which in-memory frame holds
// which on-disk page, and when a frame may be reused. Nothing above
// this package reads or writes the disk pager directly.
package buffer

import "bptreedb/diskio"

// FrameID identifies a slot in the pool's frame array.
type FrameID int

// Frame is an in-memory slot holding one page image plus its metadata
// (spec §3). An empty frame has PageID InvalidPageID; the zero value's
// PageID is 0 (the header page id), so NewPool and reset set it
// explicitly.
type Frame struct {
	PageID   diskio.PageID
	Data     [diskio.PageSize]byte
	PinCount int
	IsDirty  bool
}

func (f *Frame) reset() {
	f.PageID = diskio.InvalidPageID
	f.PinCount = 0
	f.IsDirty = false
	for i := range f.Data {
		f.Data[i] = 0
	}
}
