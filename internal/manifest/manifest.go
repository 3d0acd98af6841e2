// Package manifest implements the data model of C3 §3/§4.3: the signed,
// versioned description of an update transition, its per-file actions, and
// the canonical byte sequence that is the normative input to signing and
// verification.
package manifest

// ActionType tags the variant of a FileAction.
type ActionType string

const (
	Added    ActionType = "added"
	Modified ActionType = "modified"
	Removed  ActionType = "removed"
)

// Manifest is a signed, versioned description of an update transition.
// Field order here is the manifest schema order: encoding/json marshals
// struct fields in declaration order, so this order is also the canonical
// encoding's field order (see canon.go).
type Manifest struct {
	VersionId     int64  `json:"versionId"`
	Version       string `json:"version"`
	FromVersionId int64  `json:"fromVersionId"`

	ReleaseName string   `json:"releaseName,omitempty"`
	Changes     []string `json:"changes,omitempty"`

	Files []FileAction `json:"files"`

	RestartRequired bool `json:"restartRequired"`
	Critical        bool `json:"critical"`

	FallbackInstallerFile      string `json:"fallbackInstallerFile,omitempty"`
	FallbackInstallerHash      string `json:"fallbackInstallerHash,omitempty"`
	FallbackInstallerArguments string `json:"fallbackInstallerArguments,omitempty"`

	FullPackageFile string `json:"fullPackageFile,omitempty"`
	FullPackageHash string `json:"fullPackageHash,omitempty"`

	Signature string `json:"signature,omitempty"`
}

// FileAction is a single add/modify/remove instruction. Field order matches
// §3's declared order.
type FileAction struct {
	Action ActionType `json:"action"`
	Path   string     `json:"path"`

	// Mode is the Unix permission bits (os.FileMode.Perm()) of the file in
	// the new tree, restored on apply. Zero for removed actions and for
	// any manifest built before mode-bit preservation was added.
	Mode uint32 `json:"mode,omitempty"`

	AddFile string `json:"addFile,omitempty"`

	PatchFile string `json:"patchFile,omitempty"`

	SourceHash string `json:"sourceHash,omitempty"`
	TargetHash string `json:"targetHash,omitempty"`

	PackageFileHash string `json:"packageFileHash,omitempty"`
}

// New returns a Manifest with the §3 defaults (RestartRequired true,
// Critical false) and an empty Files slice.
func New(versionID, fromVersionID int64, version string) *Manifest {
	return &Manifest{
		VersionId:       versionID,
		FromVersionId:   fromVersionID,
		Version:         version,
		Files:           []FileAction{},
		RestartRequired: true,
		Critical:        false,
	}
}
