// Package publish implements an optional, post-build step: uploading the
// finished update package (which carries the full-package fallback archive
// inside it when one was built; nothing else is uploaded separately) to an
// object-storage bucket so a release pipeline can hand the
// artifact to whatever distributes it. This is static artifact storage,
// not a patch server — nothing here resolves "what version should this
// client have" or serves manifests over the network, which is the
// boundary the "no patch server" non-goal actually draws.
//
// Grounded on platform/api/aws/s3.go's UploadObject (head-first,
// skip-if-exists-unless-forced upload), translated from aws-sdk-go v1's
// s3manager to the v2 SDK's plain client + PutObject, with a second,
// equivalent backend for Azure Blob Storage mirroring the teacher's
// multi-cloud buildupload pattern.
package publish

import "context"

// Target uploads a named blob of bytes to wherever a given provider and
// bucket/container denote.
type Target interface {
	// Exists reports whether key is already present, for the
	// skip-if-exists-unless-forced behaviour UploadObject has.
	Exists(ctx context.Context, key string) (bool, error)
	// Upload writes data to key, overwriting any existing object.
	Upload(ctx context.Context, key string, data []byte) error
}

// Publish uploads data to key on target, skipping the upload when the key
// already exists and force is false.
func Publish(ctx context.Context, target Target, key string, data []byte, force bool) error {
	if !force {
		exists, err := target.Exists(ctx, key)
		if err != nil {
			return err
		}
		if exists {
			return nil
		}
	}
	return target.Upload(ctx, key, data)
}
