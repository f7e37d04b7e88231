package export

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Directory is the writable var directory exports are generated in.
// Every path is resolved inside the root; absolute paths are accepted when
// they point below it.
type Directory struct {
	root string
}

// NewDirectory returns a Directory rooted at path.
func NewDirectory(path string) (*Directory, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve var directory: %w", err)
	}
	return &Directory{root: abs}, nil
}

// Root returns the absolute root path.
func (d *Directory) Root() string { return d.root }

// AbsolutePath returns the absolute location of name.
func (d *Directory) AbsolutePath(name string) (string, error) {
	rel, err := d.relative(name)
	if err != nil {
		return "", err
	}
	return filepath.Join(d.root, rel), nil
}

// relative maps name to a path relative to the root.
func (d *Directory) relative(name string) (string, error) {
	if name == "" {
		return "", errors.New("empty path")
	}
	if filepath.IsAbs(name) {
		rel, err := filepath.Rel(d.root, name)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return "", fmt.Errorf("path %s is outside %s", name, d.root)
		}
		return rel, nil
	}
	return filepath.Clean(name), nil
}

func (d *Directory) open() (*os.Root, error) {
	root, err := os.OpenRoot(d.root)
	if err != nil {
		return nil, fmt.Errorf("open var directory: %w", err)
	}
	return root, nil
}

// IsExist reports whether name is an existing regular file.
func (d *Directory) IsExist(name string) bool {
	rel, err := d.relative(name)
	if err != nil {
		return false
	}
	root, err := d.open()
	if err != nil {
		return false
	}
	defer root.Close()

	info, err := root.Stat(rel)
	return err == nil && info.Mode().IsRegular()
}

// ReadFile returns the content of name.
func (d *Directory) ReadFile(name string) ([]byte, error) {
	rel, err := d.relative(name)
	if err != nil {
		return nil, err
	}
	root, err := d.open()
	if err != nil {
		return nil, err
	}
	defer root.Close()

	f, err := root.Open(rel)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return data, nil
}

// WriteFile replaces the content of name, creating it if needed.
func (d *Directory) WriteFile(name string, data []byte) error {
	rel, err := d.relative(name)
	if err != nil {
		return err
	}
	root, err := d.open()
	if err != nil {
		return err
	}
	defer root.Close()

	f, err := root.OpenFile(rel, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", name, err)
	}
	return f.Close()
}

// EnsureDir creates the var root and the subdirectory name below it.
func (d *Directory) EnsureDir(name string) error {
	if err := os.MkdirAll(d.root, 0o755); err != nil {
		return fmt.Errorf("create var directory: %w", err)
	}
	rel, err := d.relative(name)
	if err != nil {
		return err
	}
	root, err := d.open()
	if err != nil {
		return err
	}
	defer root.Close()

	if err := root.Mkdir(rel, 0o755); err != nil && !errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("create %s: %w", name, err)
	}
	return nil
}

// RemoveOlderThan deletes the regular files directly inside the
// subdirectory name whose modification time is before cutoff. It returns
// how many files were removed; a missing subdirectory removes nothing.
func (d *Directory) RemoveOlderThan(name string, cutoff time.Time) (int, error) {
	rel, err := d.relative(name)
	if err != nil {
		return 0, err
	}
	root, err := d.open()
	if err != nil {
		return 0, err
	}
	defer root.Close()

	f, err := root.Open(rel)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", name, err)
	}
	entries, err := f.ReadDir(-1)
	f.Close()
	if err != nil {
		return 0, fmt.Errorf("list %s: %w", name, err)
	}

	removed := 0
	var errs []error
	for _, e := range entries {
		info, err := e.Info()
		if err != nil || !info.Mode().IsRegular() || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := root.Remove(filepath.Join(rel, e.Name())); err != nil {
			errs = append(errs, err)
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}
