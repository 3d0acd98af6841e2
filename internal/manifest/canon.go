package manifest

import (
	"encoding/json"

	"github.com/minecanton209/patchy/internal/updateerr"
)

// Canonical returns the deterministic byte sequence that is signed and
// verified for m: the signature field cleared, serialised to JSON in
// schema-declared field order (Go's encoding/json already marshals struct
// fields in declaration order), two-space indentation, LF line endings, no
// trailing newline, UTF-8 with no BOM. This must be the same sequence on any
// host regardless of the host's native line-ending convention, because it is
// built purely from Go string/byte operations, never from a text template or
// a file read back through a line-ending-translating layer.
func Canonical(m *Manifest) ([]byte, error) {
	clone := *m
	clone.Signature = ""

	buf, err := json.MarshalIndent(&clone, "", "  ")
	if err != nil {
		return nil, updateerr.Wrap(updateerr.MalformedManifest, "", err)
	}
	return buf, nil
}
