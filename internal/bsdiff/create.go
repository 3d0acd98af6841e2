package bsdiff

// Create computes a bsdiff-1 patch that transforms old into next, following
// Colin Percival's original scan/search/extend algorithm: walk next left to
// right, at each position find the longest approximate match against old
// via the suffix array, extend that match forward and backward across the
// boundary with the previous match to absorb small edits, then emit one
// (add-length, extra-length, seek) control triple per match along with the
// byte-wise diff against old for the matched span and the literal bytes for
// the unmatched span.
func Create(old, next []byte) ([]byte, error) {
	I := qsufsort(old)

	oldsize := len(old)
	newsize := len(next)

	var ctrl []ctrlTriple
	db := make([]byte, 0, newsize)
	eb := make([]byte, 0, newsize)

	scan, pos, length := 0, 0, 0
	lastscan, lastpos, lastoffset := 0, 0, 0

	for scan < newsize {
		oldscore := 0
		scan += length
		scsc := scan

		for scan < newsize {
			length, pos = search(I, old, next[scan:])

			for ; scsc < scan+length; scsc++ {
				if scsc+lastoffset < oldsize && scsc+lastoffset >= 0 &&
					old[scsc+lastoffset] == next[scsc] {
					oldscore++
				}
			}

			if (length == oldscore && length != 0) || length > oldscore+8 {
				break
			}

			if scan+lastoffset < oldsize && scan+lastoffset >= 0 &&
				old[scan+lastoffset] == next[scan] {
				oldscore--
			}
			scan++
		}

		if length == oldscore && scan != newsize {
			continue
		}

		// Extend the match forward from lastscan/lastpos.
		s, sf, lenf := 0, 0, 0
		i := 0
		for lastscan+i < scan && lastpos+i < oldsize {
			if old[lastpos+i] == next[lastscan+i] {
				s++
			}
			i++
			if s*2-i > sf*2-lenf {
				sf = s
				lenf = i
			}
		}

		// Extend the next match backward from scan/pos.
		lenb := 0
		if scan < newsize {
			s, sb := 0, 0
			for i := 1; scan >= lastscan+i && pos >= i; i++ {
				if old[pos-i] == next[scan-i] {
					s++
				}
				if s*2-i > sb*2-lenb {
					sb = s
					lenb = i
				}
			}
		}

		// Resolve any overlap between the forward extension of the
		// previous match and the backward extension of this one.
		if lastscan+lenf > scan-lenb {
			overlap := (lastscan + lenf) - (scan - lenb)
			s, ss, lens := 0, 0, 0
			for i := 0; i < overlap; i++ {
				if next[lastscan+lenf-overlap+i] == old[lastpos+lenf-overlap+i] {
					s++
				}
				if next[scan-lenb+i] == old[pos-lenb+i] {
					s--
				}
				if s > ss {
					ss = s
					lens = i + 1
				}
			}
			lenf += lens - overlap
			lenb -= lens
		}

		for i := 0; i < lenf; i++ {
			db = append(db, next[lastscan+i]-old[lastpos+i])
		}
		extraLen := (scan - lenb) - (lastscan + lenf)
		for i := 0; i < extraLen; i++ {
			eb = append(eb, next[lastscan+lenf+i])
		}

		ctrl = append(ctrl, ctrlTriple{
			add:   lenf,
			extra: extraLen,
			seek:  (pos - lenb) - (lastpos + lenf),
		})

		lastscan = scan - lenb
		lastpos = pos - lenb
		lastoffset = pos - scan
	}

	ctrlBuf := encodeControlStream(ctrl)
	ctrlZ, err := bzip2Compress(ctrlBuf)
	if err != nil {
		return nil, err
	}
	dbZ, err := bzip2Compress(db)
	if err != nil {
		return nil, err
	}
	ebZ, err := bzip2Compress(eb)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, headerLen+len(ctrlZ)+len(dbZ)+len(ebZ))
	out = append(out, encodeHeader(header{
		ctrlLen: int64(len(ctrlZ)),
		diffLen: int64(len(dbZ)),
		newSize: int64(newsize),
	})...)
	out = append(out, ctrlZ...)
	out = append(out, dbZ...)
	out = append(out, ebZ...)

	return out, nil
}

type ctrlTriple struct {
	add, extra, seek int
}

func encodeControlStream(ctrl []ctrlTriple) []byte {
	buf := make([]byte, 0, len(ctrl)*24)
	var tmp [8]byte
	for _, c := range ctrl {
		putSignedInt64(tmp[:], int64(c.add))
		buf = append(buf, tmp[:]...)
		putSignedInt64(tmp[:], int64(c.extra))
		buf = append(buf, tmp[:]...)
		putSignedInt64(tmp[:], int64(c.seek))
		buf = append(buf, tmp[:]...)
	}
	return buf
}
