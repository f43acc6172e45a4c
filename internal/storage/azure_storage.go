package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
)

// BlobStore downloads a model artifact from blob storage.
type BlobStore interface {
	DownloadArtifact(ctx context.Context, containerName, blobName string) (io.ReadCloser, error)
}

type azureStorage struct {
	client *azblob.Client
}

// NewAzureStorage creates a blob store authenticated with a shared key.
func NewAzureStorage(accountName string, accountKey string) (BlobStore, error) {
	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, fmt.Errorf("invalid Azure credentials: %w", err)
	}

	client, err := azblob.NewClientWithSharedKeyCredential(
		fmt.Sprintf("https://%s.blob.core.windows.net", accountName),
		credential,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure client: %w", err)
	}

	return &azureStorage{client: client}, nil
}

func (s *azureStorage) DownloadArtifact(ctx context.Context, containerName, blobName string) (io.ReadCloser, error) {
	downloadResponse, err := s.client.DownloadStream(ctx, containerName, blobName, nil)
	if err != nil {
		return nil, fmt.Errorf("download of %s/%s failed: %w", containerName, blobName, err)
	}
	return downloadResponse.Body, nil
}
