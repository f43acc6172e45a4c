package repository

import "context"

// ModelRepository makes the model artifact available on the local filesystem
type ModelRepository interface {
	// Resolve returns a local path to the artifact, downloading it first when
	// it is absent and a remote source is configured
	Resolve(ctx context.Context) (string, error)
}

// Source names where an artifact came from, for logging
type Source string

const (
	SourceLocal Source = "local"
	SourceHTTP  Source = "http"
	SourceAzure Source = "azure"
)
