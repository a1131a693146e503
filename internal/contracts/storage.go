package contracts

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// AttachmentStore persists uploaded contract documents.
type AttachmentStore interface {
	Save(originalName string, data []byte) (storedName, path string, err error)
	Open(storedName string) ([]byte, error)
}

// DiskStore writes attachments under a single directory, renaming each file
// to a UUID so uploads cannot collide or traverse paths.
type DiskStore struct {
	dir string
}

// NewDiskStore ensures the upload directory exists.
func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("contracts: create upload dir: %w", err)
	}
	return &DiskStore{dir: dir}, nil
}

func (s *DiskStore) Save(originalName string, data []byte) (string, string, error) {
	stored := uuid.NewString() + filepath.Ext(filepath.Base(originalName))
	path := filepath.Join(s.dir, stored)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", "", fmt.Errorf("contracts: write attachment: %w", err)
	}
	return stored, path, nil
}

func (s *DiskStore) Open(storedName string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, filepath.Base(storedName)))
	if err != nil {
		return nil, fmt.Errorf("contracts: read attachment: %w", err)
	}
	return data, nil
}
