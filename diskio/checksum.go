package diskio

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// checksumSize is the width of the out-of-band trailer the file pager
// appends after every logical PageSize page image on disk, modeled on
// the FIL trailer checksum InnoDB carries after every page
// (wilhasse-go-innodb's FilTrailer.Checksum). The checksum lives
// outside the PageSize contract so every in-memory page image handed
// to callers remains exactly PageSize bytes, per spec §3.
const checksumSize = 8

// slotSize is the on-disk footprint of one logical page: its image
// plus its trailer.
const slotSize = PageSize + checksumSize

func checksumOf(page []byte) uint64 {
	return xxhash.Sum64(page)
}

func putChecksum(trailer []byte, sum uint64) {
	binary.LittleEndian.PutUint64(trailer, sum)
}

func getChecksum(trailer []byte) uint64 {
	return binary.LittleEndian.Uint64(trailer)
}
