package blob

import (
	"context"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

const (
	ProductImages = "product-images"
	Contracts     = "contracts"
)

var (
	ErrBlobExists  = errors.New("blob already exists")
	ErrInvalidName = errors.New("invalid blob name")
)

// Store performs blind, create-once writes. Blobs have no versions and are
// never updated in place.
type Store interface {
	Put(ctx context.Context, container, name string, content io.Reader) (location string, err error)
}

func NewFileStore(root, baseURL string) *FileStore {
	return &FileStore{root: root, baseURL: strings.TrimSuffix(baseURL, "/")}
}

// FileStore lays blobs out as <root>/<container>/<name>.
type FileStore struct {
	root    string
	baseURL string
}

func (s *FileStore) Put(ctx context.Context, container, name string, content io.Reader) (string, error) {
	if !validName(container) || !validName(name) {
		return "", errors.Wrapf(ErrInvalidName, "%s/%s", container, name)
	}

	dir := filepath.Join(s.root, container)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrapf(err, "create container %s", container)
	}

	path := filepath.Join(dir, name)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if os.IsExist(err) {
		return "", errors.Wrapf(ErrBlobExists, "%s/%s", container, name)
	}
	if err != nil {
		return "", errors.Wrapf(err, "create blob %s/%s", container, name)
	}

	_, err = io.Copy(file, readerWithContext(ctx, content))
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
		return "", errors.Wrapf(err, "write blob %s/%s", container, name)
	}

	return s.baseURL + "/" + url.PathEscape(container) + "/" + url.PathEscape(name), nil
}

func validName(name string) bool {
	return name != "" && name != "." && name != ".." && !strings.ContainsAny(name, `/\`)
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (r ctxReader) Read(p []byte) (int, error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}

func readerWithContext(ctx context.Context, r io.Reader) io.Reader {
	return ctxReader{ctx: ctx, r: r}
}
