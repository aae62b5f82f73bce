package models

// AssetStatus is the upload lifecycle of a binary attachment.
type AssetStatus string

const (
	AssetPending   AssetStatus = "pending"
	AssetUploading AssetStatus = "uploading"
	AssetUploaded  AssetStatus = "uploaded"
	AssetFailed    AssetStatus = "failed"
)

// PendingAsset is a binary attachment owned by exactly one offline submission
// and one question within it. Once the owning submission is fully synced the
// row is logically orphaned but not physically deleted.
//
// Invariant: Status == AssetUploaded exactly when RemoteURL is non-empty.
type PendingAsset struct {
	LocalID      int64
	SubmissionID int64 // local id of the owning OfflineSubmission
	FieldID      string
	Data         []byte
	Filename     string
	Status       AssetStatus
	RemoteURL    string
}
