package storage

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	checkoutapp "github.com/linkmarket/backend/internal/application/checkout"
)

// StubContentStorage stands in for S3 when storage is disabled (local development, tests).
// Every presigned key is remembered and reported back by Stat as an empty document.
type StubContentStorage struct {
	BaseURL string

	mu      sync.Mutex
	objects map[string]checkoutapp.ObjectInfo
}

// NewStubContentStorage creates a new StubContentStorage
func NewStubContentStorage() *StubContentStorage {
	return &StubContentStorage{
		BaseURL: "https://storage.example.com",
		objects: make(map[string]checkoutapp.ObjectInfo),
	}
}

var _ checkoutapp.ContentStorage = (*StubContentStorage)(nil)

// PresignUpload returns a fake upload URL and registers the key
func (s *StubContentStorage) PresignUpload(ctx context.Context, key, contentType string, maxSize int64) (*checkoutapp.UploadTarget, error) {
	if key == "" {
		return nil, errors.New("storage key is required")
	}
	expiresAt := time.Now().Add(15 * time.Minute)

	s.mu.Lock()
	s.objects[key] = checkoutapp.ObjectInfo{Key: key, ContentType: contentType}
	s.mu.Unlock()

	return &checkoutapp.UploadTarget{
		URL:       s.BaseURL + "/upload/" + key + "?expires=" + url.QueryEscape(expiresAt.Format(time.RFC3339)),
		Method:    http.MethodPut,
		Headers:   map[string]string{"Content-Type": contentType, "X-Amz-Meta-Max-Size": strconv.FormatInt(maxSize, 10)},
		FileKey:   key,
		ExpiresAt: expiresAt,
		MaxSize:   maxSize,
	}, nil
}

// Stat reports keys handed out by PresignUpload
func (s *StubContentStorage) Stat(ctx context.Context, key string) (*checkoutapp.ObjectInfo, error) {
	if key == "" {
		return nil, errors.New("storage key is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	info, ok := s.objects[key]
	if !ok {
		return nil, nil
	}
	return &info, nil
}

// Put records an object as uploaded with the given size
func (s *StubContentStorage) Put(key, contentType string, size int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = checkoutapp.ObjectInfo{Key: key, Size: size, ContentType: contentType}
}
