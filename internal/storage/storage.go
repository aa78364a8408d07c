package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrNotFound = errors.New("blob not found")
	ErrTooLarge = errors.New("file exceeds maximum size")
)

// BlobStore persists uploaded files and hands back opaque refs. Refs are
// what expense attachments carry; the store never learns about expenses.
type BlobStore interface {
	Put(fileName string, r io.Reader) (ref string, err error)
	Get(ref string) (io.ReadCloser, error)
	Delete(ref string) error
}

// LocalStore keeps blobs as flat files under one directory, named by a
// generated ref.
type LocalStore struct {
	dir     string
	maxSize int64
}

func NewLocalStore(dir string, maxSize int64) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &LocalStore{dir: dir, maxSize: maxSize}, nil
}

// Put stores the reader's content and returns the ref. The original file
// extension is kept on disk so served files keep a usable content type.
func (s *LocalStore) Put(fileName string, r io.Reader) (string, error) {
	ext := filepath.Ext(fileName)
	ref := uuid.NewString() + ext

	path := filepath.Join(s.dir, ref)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create blob: %w", err)
	}
	defer f.Close()

	limited := io.LimitReader(r, s.maxSize+1)
	n, err := io.Copy(f, limited)
	if err != nil {
		os.Remove(path)
		return "", fmt.Errorf("write blob: %w", err)
	}
	if n > s.maxSize {
		os.Remove(path)
		return "", ErrTooLarge
	}

	return ref, nil
}

func (s *LocalStore) Get(ref string) (io.ReadCloser, error) {
	path, err := s.refPath(ref)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return f, nil
}

func (s *LocalStore) Delete(ref string) error {
	path, err := s.refPath(ref)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// refPath rejects refs that would escape the storage directory.
func (s *LocalStore) refPath(ref string) (string, error) {
	if ref == "" || strings.Contains(ref, "/") || strings.Contains(ref, "\\") || strings.Contains(ref, "..") {
		return "", ErrNotFound
	}
	return filepath.Join(s.dir, ref), nil
}
