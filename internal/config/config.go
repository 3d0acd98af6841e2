// Package config loads and validates the release configuration that
// accompanies a create-update-package invocation: release metadata that
// isn't derivable by diffing two directory trees (release name, changelog
// entries, restart/critical flags, the fallback installer, and an optional
// publish target). config.json is schema-validated before it is
// unmarshalled, grounded on pkg/builds/schema.go's validate-before-unmarshal
// pattern; meta.json gets the same treatment in internal/manifest.
package config

import (
	"encoding/json"
	"os"

	"github.com/xeipuuv/gojsonschema"

	"github.com/minecanton209/patchy/internal/updateerr"
)

// PublishTarget names an optional object-storage destination for the
// finished update.pkg (which carries the full-package archive inside it when
// one was built).
type PublishTarget struct {
	Provider string `json:"provider"` // "s3" or "azure"
	Bucket   string `json:"bucket,omitempty"`
	Prefix   string `json:"prefix,omitempty"`
	Region   string `json:"region,omitempty"`
}

// Release is the optional config.json accompanying create-update-package.
// An absent config.json is equivalent to Default(), which differs from an
// empty Release only in RestartRequired being true. A config.json that omits
// restartRequired leaves it false.
type Release struct {
	ReleaseName                string        `json:"releaseName,omitempty"`
	Changes                    []string      `json:"changes,omitempty"`
	RestartRequired            bool          `json:"restartRequired"`
	Critical                   bool          `json:"critical"`
	FallbackInstallerFile      string        `json:"fallbackInstallerFile,omitempty"`
	FallbackInstallerArguments string        `json:"fallbackInstallerArguments,omitempty"`
	FullPackage                bool          `json:"fullPackage,omitempty"`
	Publish                    PublishTarget `json:"publish,omitempty"`
}

const releaseSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "releaseName": {"type": "string"},
    "changes": {"type": "array", "items": {"type": "string"}},
    "restartRequired": {"type": "boolean"},
    "critical": {"type": "boolean"},
    "fallbackInstallerFile": {"type": "string"},
    "fallbackInstallerArguments": {"type": "string"},
    "fullPackage": {"type": "boolean"},
    "publish": {
      "type": "object",
      "properties": {
        "provider": {"type": "string", "enum": ["s3", "azure"]},
        "bucket": {"type": "string"},
        "prefix": {"type": "string"},
        "region": {"type": "string"}
      }
    }
  }
}`

// Default returns the Release used when no config.json is given: every
// field zero except RestartRequired, which is true.
func Default() *Release {
	return &Release{RestartRequired: true}
}

// Load reads, schema-validates, and unmarshals the release config at path.
func Load(path string) (*Release, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, updateerr.Wrap(updateerr.Io, path, err)
	}
	return Parse(raw)
}

// Parse validates and unmarshals raw config.json bytes.
func Parse(raw []byte) (*Release, error) {
	if !json.Valid(raw) {
		return nil, updateerr.New(updateerr.MalformedManifest, "config.json is not valid JSON")
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(releaseSchemaJSON),
		gojsonschema.NewBytesLoader(raw),
	)
	if err != nil {
		return nil, updateerr.Wrap(updateerr.MalformedManifest, "", err)
	}
	if !result.Valid() {
		return nil, updateerr.Newf(updateerr.MalformedManifest, "config.json: %s", result.Errors()[0].String())
	}

	var r Release
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, updateerr.Wrap(updateerr.MalformedManifest, "", err)
	}
	return &r, nil
}
