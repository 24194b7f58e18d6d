// Package storage persists uploaded book PDFs on local disk.  Files are
// stored under a single directory and served back under the /uploads URL
// prefix.
package storage

import (
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrNotPDF rejects any upload whose filename does not end in .pdf.  The
// check runs before anything touches the disk.
var ErrNotPDF = errors.New("Only PDF files are allowed")

// Uploads owns the upload directory.
type Uploads struct {
	dir string
}

// New ensures the upload directory exists and returns an Uploads rooted at it.
func New(dir string) (*Uploads, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Uploads{dir: dir}, nil
}

// Dir returns the directory uploads are written to.
func (u *Uploads) Dir() string { return u.dir }

// SavePDF validates and stores one uploaded PDF.  The stored name is
// "<field>-<unix ms>-<random int>.pdf": collision-resistant, not secret.
// On any failure after the file was created the partial file is removed, so
// a rejected upload never leaves debris behind.  The returned path is the
// public URL path the file is served under.
func (u *Uploads) SavePDF(field string, fh *multipart.FileHeader) (string, error) {
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if ext != ".pdf" {
		return "", ErrNotPDF
	}

	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	name := fmt.Sprintf("%s-%d-%d%s", field, time.Now().UnixMilli(), rand.IntN(1_000_000_000), ext)
	dstPath := filepath.Join(u.dir, name)
	dst, err := os.Create(dstPath)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(dstPath)
		return "", err
	}
	if err := dst.Close(); err != nil {
		os.Remove(dstPath)
		return "", err
	}
	return "/uploads/" + name, nil
}
