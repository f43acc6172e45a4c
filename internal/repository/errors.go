package repository

import "errors"

var (
	// ErrModelNotFound indicates the artifact is missing and no remote source is configured
	ErrModelNotFound = errors.New("model artifact not found")

	// ErrEmptyArtifact indicates a download produced no bytes
	ErrEmptyArtifact = errors.New("downloaded model artifact is empty")
)
