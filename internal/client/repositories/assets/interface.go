package assets

import (
	"context"

	"github.com/dkrivenko/marksync/internal/client/models"
)

// Repository describes persistence for binary attachments staged for upload.
type Repository interface {
	// Insert stores a new asset and returns its local id.
	Insert(ctx context.Context, a *models.PendingAsset) (int64, error)

	// GetBySubmission returns all assets owned by a submission, in insertion
	// order (the upload pipeline processes them sequentially).
	GetBySubmission(ctx context.Context, submissionID int64) ([]*models.PendingAsset, error)

	// MarkUploading flags an asset as in flight.
	MarkUploading(ctx context.Context, localID int64) error

	// MarkUploaded records the durable remote URL; status and URL change
	// together so the uploaded⟺URL invariant holds.
	MarkUploaded(ctx context.Context, localID int64, remoteURL string) error

	// MarkFailed records an upload failure; the raw bytes stay for retry.
	MarkFailed(ctx context.Context, localID int64) error
}
