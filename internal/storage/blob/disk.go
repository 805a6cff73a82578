// Package blob provides the asset store adapter: upload with public URL
// resolution and batch removal over a local blob directory served by the
// admin server itself.
package blob

import (
	"context"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-faster/errors"

	"github.com/snackbox/admin-api/internal/domain/catalog"
)

var _ catalog.AssetStore = (*DiskStore)(nil)

// DiskStore keeps blobs as flat files under a single directory. Keys are
// file names; nesting is rejected.
type DiskStore struct {
	dir     string
	baseURL string
}

// NewDiskStore creates the directory if needed. baseURL is prepended to keys
// when resolving public locators, e.g. "/assets" or
// "https://cdn.example.com/assets".
func NewDiskStore(dir, baseURL string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create asset dir %s", dir)
	}
	return &DiskStore{
		dir:     dir,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

// Upload writes the content under key and returns the key. An existing blob
// under the same key is overwritten; callers mint collision-free keys.
func (s *DiskStore) Upload(ctx context.Context, key string, r io.Reader) (string, error) {
	if err := validKey(key); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	f, err := os.Create(filepath.Join(s.dir, key))
	if err != nil {
		return "", errors.Wrapf(err, "create blob %q", key)
	}

	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return "", errors.Wrapf(err, "write blob %q", key)
	}
	if err := f.Close(); err != nil {
		return "", errors.Wrapf(err, "close blob %q", key)
	}
	return key, nil
}

// PublicURL resolves a stored key to its public locator.
func (s *DiskStore) PublicURL(key string) string {
	return s.baseURL + "/" + key
}

// Remove deletes the given keys. Already-missing blobs are skipped; the
// first real failure is returned after attempting the rest.
func (s *DiskStore) Remove(_ context.Context, keys []string) error {
	var firstErr error
	for _, key := range keys {
		if err := validKey(key); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		err := os.Remove(filepath.Join(s.dir, key))
		if err != nil && !errors.Is(err, fs.ErrNotExist) && firstErr == nil {
			firstErr = errors.Wrapf(err, "remove blob %q", key)
		}
	}
	return firstErr
}

// Handler serves the blob directory read-only for public locators.
func (s *DiskStore) Handler() http.Handler {
	return http.FileServer(http.Dir(s.dir))
}

func validKey(key string) error {
	if key == "" || key != filepath.Base(key) || strings.HasPrefix(key, ".") {
		return errors.Errorf("invalid blob key %q", key)
	}
	return nil
}
