// Package storage holds menu item images. Remote hosting goes to an S3-compatible bucket;
// without one, images are embedded in the row as data URLs.
package storage

import (
	"context"
	"encoding/base64"
	"strings"
)

// ImageStore uploads an image under key and returns the URL clients should load.
type ImageStore interface {
	Upload(ctx context.Context, key, contentType string, data []byte) (string, error)
	Delete(ctx context.Context, url string) error
}

// DataURL embeds data in a data: URL.
func DataURL(contentType string, data []byte) string {
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// IsDataURL reports whether url carries its own payload and has nothing to delete remotely.
func IsDataURL(url string) bool {
	return strings.HasPrefix(url, "data:")
}

// InlineStore never talks to the network.
type InlineStore struct{}

func (InlineStore) Upload(_ context.Context, _ string, contentType string, data []byte) (string, error) {
	return DataURL(contentType, data), nil
}

func (InlineStore) Delete(context.Context, string) error { return nil }

// ImmediateCleaner deletes images synchronously; used when no queue is configured.
type ImmediateCleaner struct {
	Store ImageStore
}

func (c ImmediateCleaner) Schedule(ctx context.Context, url string) error {
	if IsDataURL(url) {
		return nil
	}
	return c.Store.Delete(ctx, url)
}
