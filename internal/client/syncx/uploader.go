// Package syncx drives reconciliation between the local store and the
// server: the asset upload pipeline, the serialized sync orchestrator, and
// its status event stream.
package syncx

import (
	"context"
	"fmt"

	"github.com/dkrivenko/marksync/internal/client/api"
	"github.com/dkrivenko/marksync/internal/client/models"
	"github.com/dkrivenko/marksync/internal/client/repositories/assets"
	"github.com/dkrivenko/marksync/internal/logging"
)

// Uploader resolves a submission's binary attachments into durable remote
// URLs, independently of whether the submission itself has been created on
// the server yet.
type Uploader struct {
	assets assets.Repository
	api    api.Client
	log    logging.Logger
}

func NewUploader(assetsRepo assets.Repository, apiClient api.Client, log logging.Logger) *Uploader {
	return &Uploader{assets: assetsRepo, api: apiClient, log: log}
}

// UploadPending uploads every asset owned by the submission, sequentially,
// and returns the field-id -> URL map to patch into the payload. An already
// uploaded asset is reused without a network call. The first failure marks
// that asset failed and aborts the rest: a submission with an unresolved
// asset must not reach the server with a broken reference.
func (u *Uploader) UploadPending(ctx context.Context, submissionID int64) (map[string]string, error) {
	list, err := u.assets.GetBySubmission(ctx, submissionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load assets: %w", err)
	}

	urls := make(map[string]string, len(list))
	for _, a := range list {
		if a.Status == models.AssetUploaded && a.RemoteURL != "" {
			urls[a.FieldID] = a.RemoteURL
			continue
		}

		if err := u.assets.MarkUploading(ctx, a.LocalID); err != nil {
			return nil, err
		}

		url, err := u.api.UploadAsset(ctx, a.Filename, a.Data)
		if err != nil {
			if markErr := u.assets.MarkFailed(ctx, a.LocalID); markErr != nil {
				u.log.Error(ctx, "failed to mark asset failed", "asset", a.LocalID, "error", markErr)
			}
			return nil, fmt.Errorf("asset %q upload failed: %w", a.FieldID, err)
		}

		if err := u.assets.MarkUploaded(ctx, a.LocalID, url); err != nil {
			return nil, err
		}
		urls[a.FieldID] = url
		u.log.Debug(ctx, "asset uploaded", "submission", submissionID, "field", a.FieldID)
	}
	return urls, nil
}
