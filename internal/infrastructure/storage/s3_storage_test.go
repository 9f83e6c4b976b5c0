package storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/linkmarket/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func testStorageConfig(endpoint string) *config.StorageConfig {
	return &config.StorageConfig{
		Bucket:       "content",
		AccessKey:    "test-key",
		SecretKey:    "test-secret",
		Region:       "eu-central-1",
		Endpoint:     endpoint,
		UsePathStyle: true,
	}
}

func TestNewS3ContentStorage_Validation(t *testing.T) {
	t.Run("nil config", func(t *testing.T) {
		_, err := NewS3ContentStorage(nil)
		assert.ErrorContains(t, err, "configuration is required")
	})

	t.Run("missing bucket", func(t *testing.T) {
		cfg := testStorageConfig("")
		cfg.Bucket = ""
		_, err := NewS3ContentStorage(cfg)
		assert.ErrorContains(t, err, "bucket is required")
	})

	t.Run("missing credentials", func(t *testing.T) {
		cfg := testStorageConfig("")
		cfg.SecretKey = ""
		_, err := NewS3ContentStorage(cfg)
		assert.ErrorContains(t, err, "secret key")
	})

	t.Run("defaults presign expiration to 15 minutes", func(t *testing.T) {
		s, err := NewS3ContentStorage(testStorageConfig("localhost:9000"))
		require.NoError(t, err)
		assert.Equal(t, 15*time.Minute, s.presignExpiration)
		assert.Equal(t, "content", s.Bucket())
	})

	t.Run("options override", func(t *testing.T) {
		s, err := NewS3ContentStorage(testStorageConfig(""),
			WithPresignExpiration(time.Minute),
			WithLogger(zaptest.NewLogger(t)),
		)
		require.NoError(t, err)
		assert.Equal(t, time.Minute, s.presignExpiration)
	})
}

func TestS3ContentStorage_PresignUpload(t *testing.T) {
	s, err := NewS3ContentStorage(testStorageConfig("http://localhost:9000"))
	require.NoError(t, err)

	key := "checkout/abc/def/article.docx"
	target, err := s.PresignUpload(context.Background(), key, "application/pdf", 10<<20)
	require.NoError(t, err)

	u, err := url.Parse(target.URL)
	require.NoError(t, err)
	assert.Equal(t, "localhost:9000", u.Host)
	assert.Equal(t, "/content/"+key, u.Path)
	assert.Equal(t, "900", u.Query().Get("X-Amz-Expires"))
	assert.Contains(t, u.Query().Get("X-Amz-SignedHeaders"), "x-amz-meta-max-size")
	assert.Equal(t, http.MethodPut, target.Method)
	assert.Equal(t, key, target.FileKey)
	assert.Equal(t, int64(10<<20), target.MaxSize)

	var maxSizeHeader string
	for name, value := range target.Headers {
		if strings.EqualFold(name, "X-Amz-Meta-Max-Size") {
			maxSizeHeader = value
		}
		assert.NotEqual(t, "host", strings.ToLower(name))
	}
	assert.Equal(t, "10485760", maxSizeHeader)

	_, err = s.PresignUpload(context.Background(), "", "application/pdf", 1)
	assert.Error(t, err)
}

func TestS3ContentStorage_Stat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodHead, r.Method)
		switch r.URL.Path {
		case "/content/checkout/s/l/present.pdf":
			w.Header().Set("Content-Type", "application/pdf")
			w.Header().Set("Content-Length", "2048")
			w.WriteHeader(http.StatusOK)
		case "/content/checkout/s/l/broken.pdf":
			w.WriteHeader(http.StatusForbidden)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	s, err := NewS3ContentStorage(testStorageConfig(srv.URL))
	require.NoError(t, err)
	ctx := context.Background()

	info, err := s.Stat(ctx, "checkout/s/l/present.pdf")
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, int64(2048), info.Size)
	assert.Equal(t, "application/pdf", info.ContentType)

	info, err = s.Stat(ctx, "checkout/s/l/missing.pdf")
	require.NoError(t, err)
	assert.Nil(t, info)

	_, err = s.Stat(ctx, "checkout/s/l/broken.pdf")
	assert.Error(t, err)

	_, err = s.Stat(ctx, "")
	assert.Error(t, err)
}

func TestStubContentStorage(t *testing.T) {
	s := NewStubContentStorage()
	ctx := context.Background()

	target, err := s.PresignUpload(ctx, "checkout/a/b/doc.pdf", "application/pdf", 100)
	require.NoError(t, err)
	assert.Contains(t, target.URL, "https://storage.example.com/upload/checkout/a/b/doc.pdf")
	assert.Equal(t, "application/pdf", target.Headers["Content-Type"])
	assert.True(t, target.ExpiresAt.After(time.Now()))

	info, err := s.Stat(ctx, "checkout/a/b/doc.pdf")
	require.NoError(t, err)
	require.NotNil(t, info)

	s.Put("checkout/a/b/big.pdf", "application/pdf", 4096)
	info, err = s.Stat(ctx, "checkout/a/b/big.pdf")
	require.NoError(t, err)
	assert.Equal(t, int64(4096), info.Size)

	info, err = s.Stat(ctx, "unknown")
	require.NoError(t, err)
	assert.Nil(t, info)

	_, err = s.PresignUpload(ctx, "", "application/pdf", 1)
	assert.Error(t, err)
}
