// Package bsdiff implements C4: the bsdiff-1 binary delta format used for
// every "modified" FileAction. A patch is a 32-byte header followed by
// three independently bzip2-compressed streams (control triples, added
// bytes, extra bytes) in the layout Colin Percival's original bsdiff/bspatch
// defined. Create runs the classic suffix-sort-driven longest-approximate-
// match search; Apply replays the resulting (add, copy, seek) triples
// against the source file.
package bsdiff

import "github.com/minecanton209/patchy/internal/updateerr"

// magic is the fixed 8-byte header tag identifying a bsdiff-1 patch.
const magic = "BSDIFF40"

// headerLen is the length in bytes of the fixed header: magic, the
// bzip2-compressed length of the control stream, the bzip2-compressed
// length of the diff (add) stream, and the length of the reconstructed
// (new) file, each an 8-byte little-endian integer following magic.
const headerLen = 32

type header struct {
	ctrlLen int64
	diffLen int64
	newSize int64
}

func encodeHeader(h header) []byte {
	buf := make([]byte, headerLen)
	copy(buf[0:8], magic)
	putInt64(buf[8:16], h.ctrlLen)
	putInt64(buf[16:24], h.diffLen)
	putInt64(buf[24:32], h.newSize)
	return buf
}

func decodeHeader(buf []byte) (header, error) {
	if len(buf) != headerLen {
		return header{}, updateerr.Newf(updateerr.MalformedPatch, "header is %d bytes, want %d", len(buf), headerLen)
	}
	if string(buf[0:8]) != magic {
		return header{}, updateerr.Newf(updateerr.MalformedPatch, "bad magic %q", buf[0:8])
	}

	h := header{
		ctrlLen: getInt64(buf[8:16]),
		diffLen: getInt64(buf[16:24]),
		newSize: getInt64(buf[24:32]),
	}
	if h.ctrlLen < 0 || h.diffLen < 0 || h.newSize < 0 {
		return header{}, updateerr.New(updateerr.MalformedPatch, "header contains a negative length")
	}
	return h, nil
}

// putInt64 writes v to buf (len 8) as little-endian, unsigned representation
// of a non-negative value.
func putInt64(buf []byte, v int64) {
	u := uint64(v)
	for i := 0; i < 8; i++ {
		buf[i] = byte(u >> (8 * uint(i)))
	}
}

func getInt64(buf []byte) int64 {
	var u uint64
	for i := 0; i < 8; i++ {
		u |= uint64(buf[i]) << (8 * uint(i))
	}
	return int64(u)
}

// putSignedInt64 writes v to buf (len 8) using bsdiff's sign-magnitude
// little-endian control-triple encoding: the low 63 bits hold the
// magnitude, bit 63 of the last byte marks a negative value.
func putSignedInt64(buf []byte, v int64) {
	u := uint64(v)
	if v < 0 {
		u = uint64(-v)
	}
	for i := 0; i < 8; i++ {
		buf[i] = byte(u >> (8 * uint(i)))
	}
	if v < 0 {
		buf[7] |= 0x80
	}
}

func getSignedInt64(buf []byte) int64 {
	var u uint64
	for i := 0; i < 7; i++ {
		u |= uint64(buf[i]) << (8 * uint(i))
	}
	last := buf[7]
	neg := last&0x80 != 0
	u |= uint64(last&0x7f) << 56

	v := int64(u)
	if neg {
		v = -v
	}
	return v
}
