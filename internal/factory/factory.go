package factory

import (
	"fmt"

	"rice-leaf-inspector/internal/config"
	"rice-leaf-inspector/internal/repository"
	"rice-leaf-inspector/internal/storage"
)

// StorageFactory creates the remote backends a model artifact can come from
type StorageFactory interface {
	CreateFetcher() storage.ArtifactFetcher
	CreateBlobStore(azure config.AzureConfig) (storage.BlobStore, error)
}

// storageFactory implements StorageFactory
type storageFactory struct{}

// NewStorageFactory creates a new storage factory
func NewStorageFactory() StorageFactory {
	return &storageFactory{}
}

func (f *storageFactory) CreateFetcher() storage.ArtifactFetcher {
	return storage.NewHTTPArtifactFetcher()
}

func (f *storageFactory) CreateBlobStore(azure config.AzureConfig) (storage.BlobStore, error) {
	return storage.NewAzureStorage(azure.Account, azure.Key)
}

// NewModelRepository builds the repository for the configured model path and
// whichever remote sources are set.
func NewModelRepository(model config.ModelConfig, azure config.AzureConfig, storages StorageFactory) (repository.ModelRepository, error) {
	var opts []repository.Option

	if model.URL != "" {
		opts = append(opts, repository.WithHTTPSource(storages.CreateFetcher(), model.URL))
	}

	if azure.Enabled() {
		store, err := storages.CreateBlobStore(azure)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s storage: %w", repository.SourceAzure, err)
		}
		opts = append(opts, repository.WithBlobSource(store, repository.BlobLocation{
			Container: azure.Container,
			Blob:      azure.Blob,
		}))
	}

	return repository.NewFileModelRepository(model.Path, opts...), nil
}
