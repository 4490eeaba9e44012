package publicurl

import (
	"fmt"
	"strings"

	"github.com/erijustudio/storefront-backend/pkg/config"
)

// Resolver turns stored image references into public bucket URLs. Catalog
// rows hold either a bare object key or a full URL pasted by an operator;
// both must render.
type Resolver struct {
	baseURL string
	bucket  string
}

// NewResolver builds a resolver from storage configuration.
func NewResolver(cfg config.StorageConfig) (*Resolver, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.PublicBaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("storage public base url is required")
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, fmt.Errorf("storage bucket is required")
	}
	return &Resolver{baseURL: base, bucket: bucket}, nil
}

// Resolve maps a stored reference to a browser-loadable URL. The second
// return is false when the reference is empty or the literal string "null",
// both of which appear in rows imported from older exports.
func (r *Resolver) Resolve(ref string) (string, bool) {
	trimmed := strings.TrimSpace(ref)
	if trimmed == "" || trimmed == "null" {
		return "", false
	}
	if strings.HasPrefix(trimmed, "http://") || strings.HasPrefix(trimmed, "https://") {
		return trimmed, true
	}
	key := strings.TrimLeft(trimmed, "/")
	if key == "" {
		return "", false
	}
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", r.baseURL, r.bucket, key), true
}
