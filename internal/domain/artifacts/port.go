package artifacts

import "context"

// Repository port for artifact records.
type Repository interface {
	CreateArtifact(ctx context.Context, a *Artifact) error
	ListArtifacts(ctx context.Context, runID string) ([]*Artifact, error)
	GetArtifact(ctx context.Context, runID string, format Format) (*Artifact, error)
}

// BlobStore mirrors artifact content to object storage and returns its URL.
type BlobStore interface {
	PutObject(ctx context.Context, key, contentType string, data []byte) (string, error)
}
