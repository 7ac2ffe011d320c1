// Package assets stores uploaded product images on local disk and hands
// back the public URL they are served under.
package assets

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrTooLarge    = errors.New("file too large")
	ErrUnsupported = errors.New("unsupported file type")
)

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

type Stored struct {
	URL         string
	ContentType string
	Size        int64
}

type DiskStore struct {
	Dir      string
	BaseURL  string
	MaxBytes int64
}

func NewDiskStore(dir, baseURL string, maxBytes int64) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("asset dir: %w", err)
	}
	return &DiskStore{Dir: dir, BaseURL: strings.TrimRight(baseURL, "/"), MaxBytes: maxBytes}, nil
}

// Save sniffs the content type from the first bytes, so the client's
// declared type and file name are ignored.
func (s *DiskStore) Save(r io.Reader) (*Stored, error) {
	br := bufio.NewReaderSize(r, 512)
	head, err := br.Peek(512)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, err
	}
	if len(head) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrUnsupported)
	}
	ctype := http.DetectContentType(head)
	ext, ok := extensions[ctype]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, ctype)
	}

	name := uuid.NewString() + ext
	tmp, err := os.CreateTemp(s.Dir, ".upload-*")
	if err != nil {
		return nil, err
	}
	defer os.Remove(tmp.Name())

	limit := s.MaxBytes
	if limit <= 0 {
		limit = 5 << 20
	}
	n, err := io.Copy(tmp, io.LimitReader(br, limit+1))
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, err
	}
	if n > limit {
		return nil, ErrTooLarge
	}

	if err := os.Rename(tmp.Name(), filepath.Join(s.Dir, name)); err != nil {
		return nil, err
	}
	return &Stored{URL: s.BaseURL + "/" + name, ContentType: ctype, Size: n}, nil
}
