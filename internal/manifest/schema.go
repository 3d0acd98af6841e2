package manifest

import (
	"encoding/json"

	"github.com/xeipuuv/gojsonschema"

	"github.com/minecanton209/patchy/internal/updateerr"
)

// schemaJSON is the structural shape of meta.json, checked before the bytes
// are ever unmarshalled into a Manifest: required fields, types, and the
// closed set of FileAction.Action values. Semantic invariants (version
// ordering, path safety, per-action companion fields) are Validate's job,
// not the schema's.
const schemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["versionId", "version", "fromVersionId", "files", "restartRequired", "critical"],
  "properties": {
    "versionId": {"type": "integer"},
    "version": {"type": "string", "minLength": 1},
    "fromVersionId": {"type": "integer"},
    "releaseName": {"type": "string"},
    "changes": {"type": "array", "items": {"type": "string"}},
    "files": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["action", "path"],
        "properties": {
          "action": {"type": "string", "enum": ["added", "modified", "removed"]},
          "path": {"type": "string", "minLength": 1},
          "addFile": {"type": "string"},
          "patchFile": {"type": "string"},
          "sourceHash": {"type": "string"},
          "targetHash": {"type": "string"},
          "packageFileHash": {"type": "string"}
        }
      }
    },
    "restartRequired": {"type": "boolean"},
    "critical": {"type": "boolean"},
    "fallbackInstallerFile": {"type": "string"},
    "fallbackInstallerHash": {"type": "string"},
    "fallbackInstallerArguments": {"type": "string"},
    "fullPackageFile": {"type": "string"},
    "fullPackageHash": {"type": "string"},
    "signature": {"type": "string"}
  }
}`

// ValidateSchema checks raw meta.json bytes against schemaJSON before they
// are unmarshalled, so a structurally broken manifest is rejected with a
// precise pointer into the document rather than a generic json.Unmarshal
// error.
func ValidateSchema(raw []byte) error {
	if !json.Valid(raw) {
		return updateerr.New(updateerr.MalformedManifest, "meta.json is not valid JSON")
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schemaJSON),
		gojsonschema.NewBytesLoader(raw),
	)
	if err != nil {
		return updateerr.Wrap(updateerr.MalformedManifest, "", err)
	}
	if result.Valid() {
		return nil
	}

	desc := result.Errors()[0].String()
	return updateerr.Newf(updateerr.MalformedManifest, "meta.json: %s", desc)
}

// Parse validates raw against the structural schema, unmarshals it, and
// then checks the semantic invariants via Validate.
func Parse(raw []byte) (*Manifest, error) {
	if err := ValidateSchema(raw); err != nil {
		return nil, err
	}

	var m Manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, updateerr.Wrap(updateerr.MalformedManifest, "", err)
	}

	if err := Validate(&m); err != nil {
		return nil, err
	}

	return &m, nil
}
