package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/inkwell/studio/common/config"
)

// BlobStore is the narrow contract the lineage engine needs from the
// external object store: release a reference and mint public URLs.
// Designs hold only references; the bytes live behind this interface.
type BlobStore interface {
	Release(ctx context.Context, ref string) error
	PublicURL(ref string) string
	Usage(ctx context.Context, ownerID string) (int64, error)
}

// HTTPBlobStore talks to the blob store service over HTTP
type HTTPBlobStore struct {
	baseURL string
	http    *HTTPClient
	logger  Logger
}

// NewHTTPBlobStore creates a blob store client
func NewHTTPBlobStore(cfg config.BlobStoreConfig, logger Logger) *HTTPBlobStore {
	return &HTTPBlobStore{
		baseURL: cfg.BaseURL,
		http:    NewHTTPClient(&http.Client{Timeout: cfg.Timeout}, logger),
		logger:  logger,
	}
}

// Release asks the store to delete the object behind ref.
// Callers treat failures as best-effort: log and proceed, a reconciliation
// sweep catches leaked blobs.
func (s *HTTPBlobStore) Release(ctx context.Context, ref string) error {
	endpoint := fmt.Sprintf("%s/v1/blobs/%s", s.baseURL, url.PathEscape(ref))

	resp, err := s.http.DoRequest(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to release blob %s: %w", ref, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	// 404 means the blob is already gone; releasing is idempotent
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusNotFound {
		return fmt.Errorf("blob store returned status %d for %s", resp.StatusCode, ref)
	}

	s.logger.Debug("released blob", "ref", ref)
	return nil
}

// PublicURL returns the signed public URL for a stored reference
func (s *HTTPBlobStore) PublicURL(ref string) string {
	return fmt.Sprintf("%s/public/%s", s.baseURL, url.PathEscape(ref))
}

// Usage returns the approximate bytes stored for an owner
func (s *HTTPBlobStore) Usage(ctx context.Context, ownerID string) (int64, error) {
	endpoint := fmt.Sprintf("%s/v1/usage/%s", s.baseURL, url.PathEscape(ownerID))

	resp, err := s.http.DoRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to get blob usage for %s: %w", ownerID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("blob store returned status %d for usage of %s", resp.StatusCode, ownerID)
	}

	var result struct {
		Bytes int64 `json:"bytes"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return 0, fmt.Errorf("failed to decode usage response: %w", err)
	}

	return result.Bytes, nil
}

// NoopBlobStore is used in tests and local development without a blob store
type NoopBlobStore struct {
	Released []string
}

// Release records the ref and succeeds
func (s *NoopBlobStore) Release(ctx context.Context, ref string) error {
	s.Released = append(s.Released, ref)
	return nil
}

// PublicURL echoes the ref back
func (s *NoopBlobStore) PublicURL(ref string) string {
	return ref
}

// Usage always reports zero
func (s *NoopBlobStore) Usage(ctx context.Context, ownerID string) (int64, error) {
	return 0, nil
}

var _ BlobStore = (*HTTPBlobStore)(nil)
var _ BlobStore = (*NoopBlobStore)(nil)
