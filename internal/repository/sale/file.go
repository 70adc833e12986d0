package sale

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sync"

	"venusstore/internal/domain"
)

// fileRepo stores the full sale history as one JSON array, rewritten on
// every append. A crash after Append returns can never lose a sale.
type fileRepo struct {
	mu     sync.Mutex
	path   string
	sales  []domain.Sale
	logger *log.Logger
}

// NewFile creates a file-backed Repository at path.
func NewFile(path string, logger *log.Logger) Repository {
	return &fileRepo{path: path, logger: logger}
}

// Load reads the history from disk. A missing file is an empty history; a
// corrupt file is logged and treated as empty rather than failing startup.
func (r *fileRepo) Load(_ context.Context) ([]domain.Sale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := os.ReadFile(r.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) && r.logger != nil {
			r.logger.Printf("read %s: %v; starting with empty ledger", r.path, err)
		}
		r.sales = nil
		return nil, nil
	}

	var sales []domain.Sale
	if err := json.Unmarshal(data, &sales); err != nil {
		if r.logger != nil {
			r.logger.Printf("parse %s: %v; starting with empty ledger", r.path, err)
		}
		r.sales = nil
		return nil, nil
	}
	r.sales = sales
	out := make([]domain.Sale, len(sales))
	copy(out, sales)
	return out, nil
}

// Append adds one sale and synchronously rewrites the file.
func (r *fileRepo) Append(_ context.Context, s domain.Sale) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sales = append(r.sales, s)
	if err := r.flush(); err != nil {
		r.sales = r.sales[:len(r.sales)-1]
		return err
	}
	return nil
}

// Reset drops the history and rewrites the file.
func (r *fileRepo) Reset(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev := r.sales
	r.sales = nil
	if err := r.flush(); err != nil {
		r.sales = prev
		return err
	}
	return nil
}

// flush writes to a temp file and renames it into place so a crash mid-write
// leaves the previous history intact.
func (r *fileRepo) flush() error {
	sales := r.sales
	if sales == nil {
		sales = []domain.Sale{}
	}
	data, err := json.MarshalIndent(sales, "", "  ")
	if err != nil {
		return fmt.Errorf("encode sales: %w", err)
	}

	dir := filepath.Dir(r.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(r.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write sales: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("sync sales: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, r.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", r.path, err)
	}
	return nil
}
