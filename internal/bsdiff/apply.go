package bsdiff

import (
	"bytes"
	"compress/bzip2"
	"io"

	"github.com/minecanton209/patchy/internal/hashutil"
	"github.com/minecanton209/patchy/internal/updateerr"
)

// Apply reconstructs the new file from old and patch. It validates the
// header, decodes the three bzip2 streams compress/bzip2 can read natively
// (encoding is the only part of bzip2 the standard library can't do), then
// replays each control triple: copy add-length bytes from old, summed
// byte-wise (mod 256) with the diff stream; then copy extra-length bytes
// literally from the extra stream; then seek old forward by the signed
// seek distance. The old-file cursor is rejected as MalformedPatch the
// moment it (or the add span read through it) would leave [0, len(old)].
func Apply(old, patch []byte) ([]byte, error) {
	if len(patch) < headerLen {
		return nil, updateerr.New(updateerr.MalformedPatch, "patch shorter than header")
	}

	h, err := decodeHeader(patch[:headerLen])
	if err != nil {
		return nil, err
	}

	rest := patch[headerLen:]
	if int64(len(rest)) < h.ctrlLen+h.diffLen {
		return nil, updateerr.New(updateerr.MalformedPatch, "patch truncated before declared stream lengths")
	}

	ctrlZ := rest[:h.ctrlLen]
	diffZ := rest[h.ctrlLen : h.ctrlLen+h.diffLen]
	extraZ := rest[h.ctrlLen+h.diffLen:]

	ctrlBuf, err := readAllBzip2(ctrlZ)
	if err != nil {
		return nil, err
	}
	if len(ctrlBuf)%24 != 0 {
		return nil, updateerr.New(updateerr.MalformedPatch, "control stream is not a multiple of 24 bytes")
	}

	diffR := bzip2.NewReader(bytes.NewReader(diffZ))
	extraR := bzip2.NewReader(bytes.NewReader(extraZ))

	next := make([]byte, h.newSize)
	newpos, oldpos := int64(0), int64(0)

	for ctrlOff := 0; ctrlOff < len(ctrlBuf); ctrlOff += 24 {
		add := getSignedInt64(ctrlBuf[ctrlOff : ctrlOff+8])
		extra := getSignedInt64(ctrlBuf[ctrlOff+8 : ctrlOff+16])
		seek := getSignedInt64(ctrlBuf[ctrlOff+16 : ctrlOff+24])

		if add < 0 || extra < 0 {
			return nil, updateerr.New(updateerr.MalformedPatch, "control triple has a negative length")
		}
		if newpos+add > h.newSize {
			return nil, updateerr.New(updateerr.MalformedPatch, "add span overruns the declared new size")
		}

		if _, err := io.ReadFull(diffR, next[newpos:newpos+add]); err != nil {
			return nil, updateerr.Wrap(updateerr.MalformedPatch, "", err)
		}
		if oldpos < 0 || oldpos+add > int64(len(old)) {
			return nil, updateerr.Newf(updateerr.MalformedPatch,
				"copy span starting at %d length %d falls outside old file of length %d", oldpos, add, len(old))
		}
		for i := int64(0); i < add; i++ {
			next[newpos+i] += old[oldpos+i]
		}
		newpos += add
		oldpos += add

		if newpos+extra > h.newSize {
			return nil, updateerr.New(updateerr.MalformedPatch, "extra span overruns the declared new size")
		}
		if _, err := io.ReadFull(extraR, next[newpos:newpos+extra]); err != nil {
			return nil, updateerr.Wrap(updateerr.MalformedPatch, "", err)
		}
		newpos += extra

		oldpos += seek
		if oldpos < 0 || oldpos > int64(len(old)) {
			return nil, updateerr.Newf(updateerr.MalformedPatch,
				"seek leaves old-file cursor at %d, outside [0,%d]", oldpos, len(old))
		}
	}

	if newpos != h.newSize {
		return nil, updateerr.Newf(updateerr.MalformedPatch,
			"patch produced %d bytes, header declared %d", newpos, h.newSize)
	}

	return next, nil
}

func readAllBzip2(z []byte) ([]byte, error) {
	r := bzip2.NewReader(bytes.NewReader(z))
	buf, err := io.ReadAll(r)
	if err != nil {
		return nil, updateerr.Wrap(updateerr.MalformedPatch, "", err)
	}
	return buf, nil
}

// VerifyTarget reports whether applying patch to old yields a result whose
// SHA-256 digest equals targetHash.
func VerifyTarget(old, patch []byte, targetHash string) ([]byte, error) {
	next, err := Apply(old, patch)
	if err != nil {
		return nil, err
	}
	if !hashutil.Equal(hashutil.Bytes(next), targetHash) {
		return nil, updateerr.Newf(updateerr.TargetMismatch, "reconstructed file does not match targetHash %s", targetHash)
	}
	return next, nil
}
