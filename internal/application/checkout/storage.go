package checkout

import (
	"context"
	"time"
)

// UploadTarget is a presigned request the browser uses to upload a document directly to storage
type UploadTarget struct {
	URL       string            `json:"url"`
	Method    string            `json:"method"`
	Headers   map[string]string `json:"headers"`
	FileKey   string            `json:"file_key"`
	ExpiresAt time.Time         `json:"expires_at"`
	MaxSize   int64             `json:"max_size"`
}

// ObjectInfo is what a HEAD request reveals about an uploaded document
type ObjectInfo struct {
	Key         string
	Size        int64
	ContentType string
}

// ContentStorage stores article documents uploaded during checkout
type ContentStorage interface {
	// PresignUpload returns a PUT request for key; URL, method and headers are filled in
	PresignUpload(ctx context.Context, key, contentType string, maxSize int64) (*UploadTarget, error)

	// Stat returns nil without error when the object does not exist
	Stat(ctx context.Context, key string) (*ObjectInfo, error)
}
