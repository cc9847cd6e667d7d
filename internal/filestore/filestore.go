// Package filestore хранит файлы-подтверждения заметок на локальном диске
// под ключами вида <uuid>.<ext>.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrNotFound   = errors.New("file not found")
	ErrInvalidKey = errors.New("invalid file key")
)

// Store каталог с файлами и публичный адрес, по которому они отдаются.
type Store struct {
	dir       string
	publicURL string
}

// New создаёт каталог dir при необходимости. publicURL без завершающего "/".
func New(dir, publicURL string) (*Store, error) {
	const op = "filestore.New"
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Store{dir: dir, publicURL: strings.TrimRight(publicURL, "/")}, nil
}

// Save записывает содержимое под новым ключом и возвращает ключ.
func (s *Store) Save(ctx context.Context, ext string, content io.Reader) (string, error) {
	const op = "filestore.Save"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	key := uuid.NewString() + "." + strings.ToLower(ext)
	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = os.Remove(tmp.Name())
	}()

	if _, err = io.Copy(tmp, content); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if err = tmp.Close(); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if err = os.Rename(tmp.Name(), filepath.Join(s.dir, key)); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return key, nil
}

// Open открывает файл по ключу.
func (s *Store) Open(key string) (*os.File, error) {
	const op = "filestore.Open"
	if key == "" || key != filepath.Base(key) || strings.HasPrefix(key, ".") {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidKey)
	}
	f, err := os.Open(filepath.Join(s.dir, key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return f, nil
}

// URL публичный адрес файла.
func (s *Store) URL(key string) string {
	return s.publicURL + "/files/" + key
}
