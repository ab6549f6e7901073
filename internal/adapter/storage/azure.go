package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blockblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/container"
)

const azureBlockSize = 4 * 1024 * 1024

// AzureContainer uploads block blobs into one Azure Storage container.
type AzureContainer struct {
	client *container.Client
	name   string
}

// NewAzure connects with an account connection string and checks that the
// container is reachable.
func NewAzure(ctx context.Context, connectionString, name string) (*AzureContainer, error) {
	client, err := container.NewClientFromConnectionString(connectionString, name, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create azure container client: %w", err)
	}

	if _, err := client.GetProperties(ctx, nil); err != nil {
		if bloberror.HasCode(err, bloberror.ContainerNotFound) {
			return nil, fmt.Errorf("azure container %q does not exist: %w", name, err)
		}
		if bloberror.HasCode(err, bloberror.AuthenticationFailed, bloberror.AuthorizationFailure) {
			return nil, fmt.Errorf("azure credentials rejected for container %q: %w", name, err)
		}
		return nil, fmt.Errorf("failed to reach azure container %q: %w", name, err)
	}

	return &AzureContainer{client: client, name: name}, nil
}

// Upload streams r as a block blob at key, replacing any existing blob.
func (a *AzureContainer) Upload(ctx context.Context, key string, r io.Reader) error {
	_, err := a.client.NewBlockBlobClient(key).UploadStream(ctx, r, &blockblob.UploadStreamOptions{
		BlockSize:   azureBlockSize,
		Concurrency: 1,
		Metadata:    map[string]*string{"source": to.Ptr("offsite")},
	})
	if err != nil {
		return fmt.Errorf("failed to upload to azure: %w", err)
	}
	return nil
}

func (a *AzureContainer) Close() error {
	return nil
}
