package publish

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"

	"github.com/minecanton209/patchy/internal/updateerr"
)

// AzureTarget uploads to a single Azure Blob Storage container, the second
// optional publish backend mirroring the teacher's multi-cloud build
// artifact upload.
type AzureTarget struct {
	client    *azblob.Client
	container string
}

// NewAzureTarget connects to account using a storage connection string
// (the simplest of the SDK's supported credential shapes, and the one that
// needs no extra Azure AD plumbing for a release pipeline's service
// account) and returns a Target bound to container.
func NewAzureTarget(connectionString, container string) (*AzureTarget, error) {
	client, err := azblob.NewClientFromConnectionString(connectionString, nil)
	if err != nil {
		return nil, updateerr.Wrap(updateerr.Io, "", err)
	}
	return &AzureTarget{client: client, container: container}, nil
}

func (t *AzureTarget) Exists(ctx context.Context, key string) (bool, error) {
	_, err := t.client.ServiceClient().NewContainerClient(t.container).NewBlobClient(key).GetProperties(ctx, nil)
	if err == nil {
		return true, nil
	}
	if bloberror.HasCode(err, bloberror.BlobNotFound) {
		return false, nil
	}
	return false, updateerr.Wrap(updateerr.Io, key, err)
}

func (t *AzureTarget) Upload(ctx context.Context, key string, data []byte) error {
	_, err := t.client.UploadBuffer(ctx, t.container, key, data, nil)
	if err != nil {
		return updateerr.Wrap(updateerr.Io, key, fmt.Errorf("upload to container %q: %w", t.container, err))
	}
	return nil
}
