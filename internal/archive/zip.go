// Package archive implements C7: the deterministic TAR writer/reader used
// for full-package recovery archives, and the ZIP writer/reader for the
// update package's fixed layout (meta.json at the root, diffs/ and add/
// directories addressed by the manifest). Both are thin wrappers over the
// standard library's archive/zip and archive/tar — there is no ecosystem
// replacement in the examples for either container format itself, only for
// the things layered on top of them (bzip2 compression, hashing), which
// live in their own packages.
package archive

import (
	"archive/zip"
	"bytes"
	"io"
	"sort"

	"github.com/minecanton209/patchy/internal/updateerr"
)

const (
	MetaEntry = "meta.json"
	DiffsDir  = "diffs/"
	AddDir    = "add/"

	// FullPackageEntry and FallbackInstallerEntry are the fixed top-level
	// names for the optional §4.7 fallback artifacts: a full-tree archive
	// and a platform installer binary, referenced by the manifest's
	// FullPackageFile/FallbackInstallerFile fields.
	FullPackageEntry       = "full.tar.gz"
	FallbackInstallerEntry = "fallback-installer"
)

// PackageWriter accumulates entries for an update package ZIP.
type PackageWriter struct {
	zw      *zip.Writer
	entries map[string][]byte
}

// NewPackageWriter returns a writer that buffers entries in memory until
// Flush, so meta.json (whose bytes depend on PackageFileHash computed from
// the other entries) can always be added last.
func NewPackageWriter() *PackageWriter {
	return &PackageWriter{entries: make(map[string][]byte)}
}

// AddDiff stages a bsdiff patch entry under diffs/<mangled>.patch.
func (p *PackageWriter) AddDiff(mangled string, patch []byte) {
	p.entries[DiffsDir+mangled+".patch"] = patch
}

// AddFile stages a whole-file entry under add/<mangled>.
func (p *PackageWriter) AddFile(mangled string, data []byte) {
	p.entries[AddDir+mangled] = data
}

// AddEntry stages an arbitrary top-level entry, for the fallback archive and
// installer names that live outside the diffs/add layout.
func (p *PackageWriter) AddEntry(name string, data []byte) {
	p.entries[name] = data
}

// Flush writes every staged entry plus meta (the signed manifest bytes) to
// w as a ZIP archive, entries in sorted order for reproducibility.
func (p *PackageWriter) Flush(w io.Writer, meta []byte) error {
	zw := zip.NewWriter(w)

	names := make([]string, 0, len(p.entries))
	for name := range p.entries {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		fw, err := zw.Create(name)
		if err != nil {
			return updateerr.Wrap(updateerr.Io, name, err)
		}
		if _, err := fw.Write(p.entries[name]); err != nil {
			return updateerr.Wrap(updateerr.Io, name, err)
		}
	}

	fw, err := zw.Create(MetaEntry)
	if err != nil {
		return updateerr.Wrap(updateerr.Io, MetaEntry, err)
	}
	if _, err := fw.Write(meta); err != nil {
		return updateerr.Wrap(updateerr.Io, MetaEntry, err)
	}

	if err := zw.Close(); err != nil {
		return updateerr.Wrap(updateerr.Io, "", err)
	}
	return nil
}

// PackageReader gives random-access, by-name lookup into an opened update
// package ZIP, the shape C6's apply pipeline needs (locate and hash one
// diffs/ or add/ entry at a time, never the whole archive at once).
type PackageReader struct {
	zr *zip.Reader
}

func OpenPackageReader(data []byte) (*PackageReader, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, updateerr.Wrap(updateerr.PackageCorrupt, "", err)
	}
	return &PackageReader{zr: zr}, nil
}

// Meta returns the raw bytes of meta.json.
func (p *PackageReader) Meta() ([]byte, error) {
	return p.Read(MetaEntry)
}

// Read returns the raw bytes of the named entry. A missing entry is
// reported as PackageCorrupt, matching §6's "locate the referenced entry;
// failure to locate is itself a corruption" rule.
func (p *PackageReader) Read(name string) ([]byte, error) {
	f, err := p.open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf, err := io.ReadAll(f)
	if err != nil {
		return nil, updateerr.Wrap(updateerr.PackageCorrupt, name, err)
	}
	return buf, nil
}

func (p *PackageReader) open(name string) (io.ReadCloser, error) {
	for _, f := range p.zr.File {
		if f.Name == name {
			rc, err := f.Open()
			if err != nil {
				return nil, updateerr.Wrap(updateerr.PackageCorrupt, name, err)
			}
			return rc, nil
		}
	}
	return nil, updateerr.Newf(updateerr.PackageCorrupt, "entry %q not found in package", name)
}

// DiffPath returns the package-internal path for a mangled patch entry.
func DiffPath(mangled string) string { return DiffsDir + mangled + ".patch" }

// AddPath returns the package-internal path for a mangled add entry.
func AddPath(mangled string) string { return AddDir + mangled }
