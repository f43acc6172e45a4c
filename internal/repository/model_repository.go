package repository

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	apperrors "rice-leaf-inspector/internal/errors"
	"rice-leaf-inspector/internal/logger"
	"rice-leaf-inspector/internal/storage"
)

// BlobLocation identifies the artifact inside blob storage
type BlobLocation struct {
	Container string
	Blob      string
}

// FileModelRepository keeps the artifact at a fixed path and fills it from
// HTTP or blob storage on first use.
type FileModelRepository struct {
	path    string
	url     string
	fetcher storage.ArtifactFetcher
	blobs   storage.BlobStore
	blob    BlobLocation
}

// Option configures a FileModelRepository
type Option func(*FileModelRepository)

// WithHTTPSource downloads from url when the artifact is missing
func WithHTTPSource(fetcher storage.ArtifactFetcher, url string) Option {
	return func(r *FileModelRepository) {
		r.fetcher = fetcher
		r.url = url
	}
}

// WithBlobSource downloads from blob storage when the artifact is missing
func WithBlobSource(store storage.BlobStore, loc BlobLocation) Option {
	return func(r *FileModelRepository) {
		r.blobs = store
		r.blob = loc
	}
}

// NewFileModelRepository creates a repository for the artifact at path
func NewFileModelRepository(path string, opts ...Option) *FileModelRepository {
	r := &FileModelRepository{path: path}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the local artifact path. Local files always win; the HTTP
// source is tried before blob storage.
func (r *FileModelRepository) Resolve(ctx context.Context) (string, error) {
	if info, err := os.Stat(r.path); err == nil && !info.IsDir() {
		logger.WithFields(logrus.Fields{"path": r.path, "source": SourceLocal}).Info("Using local model artifact")
		return r.path, nil
	}

	var (
		body   io.ReadCloser
		source Source
		err    error
	)
	switch {
	case r.fetcher != nil && r.url != "":
		source = SourceHTTP
		body, err = r.fetcher.FetchArtifact(ctx, r.url)
	case r.blobs != nil:
		source = SourceAzure
		body, err = r.blobs.DownloadArtifact(ctx, r.blob.Container, r.blob.Blob)
	default:
		return "", apperrors.NewNotFoundError(fmt.Sprintf("no model at %s and no remote source configured", r.path), ErrModelNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("failed to download model from %s: %w", source, err)
	}
	defer body.Close()

	written, err := r.writeAtomically(body)
	if err != nil {
		return "", err
	}

	logger.WithFields(logrus.Fields{
		"path":   r.path,
		"source": source,
		"bytes":  written,
	}).Info("Downloaded model artifact")
	return r.path, nil
}

// writeAtomically writes to a temporary file next to the target and renames
// it into place, so a failed download never leaves a partial model behind.
func (r *FileModelRepository) writeAtomically(body io.Reader) (int64, error) {
	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("failed to create model directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(r.path)+".*.part")
	if err != nil {
		return 0, fmt.Errorf("failed to create temporary model file: %w", err)
	}
	defer os.Remove(tmp.Name())

	written, err := io.Copy(tmp, body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return 0, fmt.Errorf("failed to write model artifact: %w", err)
	}
	if written == 0 {
		return 0, ErrEmptyArtifact
	}

	if err := os.Rename(tmp.Name(), r.path); err != nil {
		return 0, fmt.Errorf("failed to move model artifact into place: %w", err)
	}
	return written, nil
}
